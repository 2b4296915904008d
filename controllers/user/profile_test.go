package user

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"b4u/middlewares"
	"b4u/models"
	"b4u/repository"
	"b4u/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memProfiles struct {
	users map[uint]*models.User
}

func (m *memProfiles) GetByID(ctx context.Context, id uint) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, repository.ErrUserNotFound
}

func (m *memProfiles) UpdateContact(ctx context.Context, id uint, email, wallet, locale string) (*models.User, error) {
	u, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	u.Email, u.WalletAddress, u.Locale = email, wallet, locale
	return u, nil
}

func (m *memProfiles) SavePubgProfile(ctx context.Context, userID uint, playerID, nickname string) (*models.PubgProfile, error) {
	u, err := m.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	u.PubgProfile = &models.PubgProfile{UserID: userID, PlayerID: playerID, Nickname: nickname}
	return u.PubgProfile, nil
}

func (m *memProfiles) SaveMlbbProfile(ctx context.Context, userID uint, gameUserID, zoneID, nickname string) (*models.MlbbProfile, error) {
	u, err := m.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	u.MlbbProfile = &models.MlbbProfile{UserID: userID, GameUserID: gameUserID, ZoneID: zoneID, Nickname: nickname}
	return u.MlbbProfile, nil
}

func setup(t *testing.T) (*fiber.App, *memProfiles, string) {
	t.Helper()
	profiles := &memProfiles{users: map[uint]*models.User{}}
	u := &models.User{PiUID: "pi-3", Username: "pioneer3"}
	u.ID = 3
	profiles.users[3] = u

	tokens := services.NewTokenIssuer("secret", time.Hour)
	token, _, err := tokens.Issue(services.Session{SubjectID: 3, Username: "pioneer3", Role: services.RoleUser})
	require.NoError(t, err)

	app := fiber.New()
	g := app.Group("/profile", middlewares.UserAuth(tokens))
	g.Get("/", GetProfile(profiles))
	g.Put("/", UpdateProfile(profiles))
	g.Put("/pubg", UpdatePubgProfile(profiles))
	g.Put("/mlbb", UpdateMlbbProfile(profiles))
	return app, profiles, token
}

func send(t *testing.T, app *fiber.App, method, path, token, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestProfile(t *testing.T) {
	app, profiles, token := setup(t)

	status, body := send(t, app, "GET", "/profile", token, "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "pioneer3", body["data"].(map[string]any)["username"])

	status, _ = send(t, app, "PUT", "/profile", token, `{"email":"me@example.com","locale":"id"}`)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "me@example.com", profiles.users[3].Email)
	assert.Equal(t, "id", profiles.users[3].Locale)

	status, body = send(t, app, "PUT", "/profile", token, `{"email":"not-an-email","locale":"fr"}`)
	require.Equal(t, fiber.StatusBadRequest, status)
	fields := body["fields"].(map[string]any)
	assert.Equal(t, "must be a valid email", fields["email"])
	assert.Contains(t, fields["locale"], "must be one of")
}

func TestGameProfiles(t *testing.T) {
	app, profiles, token := setup(t)

	status, _ := send(t, app, "PUT", "/profile/pubg", token, `{"player_id":"5123456789","nickname":" Ace "}`)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "5123456789", profiles.users[3].PubgProfile.PlayerID)
	assert.Equal(t, "Ace", profiles.users[3].PubgProfile.Nickname)

	status, body := send(t, app, "PUT", "/profile/pubg", token, `{"player_id":"abc"}`)
	require.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "must be numeric", body["fields"].(map[string]any)["player_id"])

	status, _ = send(t, app, "PUT", "/profile/mlbb", token, `{"game_user_id":"12345678","zone_id":"2001"}`)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "2001", profiles.users[3].MlbbProfile.ZoneID)

	status, body = send(t, app, "PUT", "/profile/mlbb", token, `{"game_user_id":"12345678"}`)
	require.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "is required", body["fields"].(map[string]any)["zone_id"])
}
