package consent

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"b4u/middlewares"
	"b4u/models"
	"b4u/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memLogs struct{ entries []models.ConsentLog }

func (m *memLogs) Create(ctx context.Context, entry *models.ConsentLog) error {
	entry.ID = uint(len(m.entries) + 1)
	m.entries = append(m.entries, *entry)
	return nil
}

func TestRecord(t *testing.T) {
	logs := &memLogs{}
	tokens := services.NewTokenIssuer("secret", time.Hour)
	app := fiber.New()
	app.Post("/consent", middlewares.OptionalAuth(tokens), Record(logs))

	post := func(token, body string) int {
		req := httptest.NewRequest("POST", "/consent", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", strings.Repeat("x", 300))
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}

	assert.Equal(t, fiber.StatusCreated, post("", `{"consent_type":"cookies","accepted":false}`))
	require.Len(t, logs.entries, 1)
	assert.Nil(t, logs.entries[0].UserID)
	assert.False(t, logs.entries[0].Accepted)
	assert.Len(t, logs.entries[0].UserAgent, 255)

	token, _, err := tokens.Issue(services.Session{SubjectID: 5, Role: services.RoleUser})
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, post(token, `{"consent_type":"terms","version":"2024-01","accepted":true}`))
	require.Len(t, logs.entries, 2)
	require.NotNil(t, logs.entries[1].UserID)
	assert.Equal(t, uint(5), *logs.entries[1].UserID)

	assert.Equal(t, fiber.StatusBadRequest, post("", `{"consent_type":"terms"}`))
	assert.Equal(t, fiber.StatusBadRequest, post("", `{"consent_type":"tracking","accepted":true}`))
	assert.Len(t, logs.entries, 2)
}
