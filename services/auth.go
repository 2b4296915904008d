package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"b4u/models"
	"b4u/providers/pinetwork"
	"b4u/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// Session is the authenticated caller attached to a request.
type Session struct {
	SubjectID uint      `json:"subject_id"`
	PiUID     string    `json:"pi_uid,omitempty"`
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

type claims struct {
	jwt.RegisteredClaims
	PiUID    string `json:"uid,omitempty"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs an HS256 token for s and returns it with its expiry.
func (t *TokenIssuer) Issue(s Session) (string, time.Time, error) {
	now := t.now()
	exp := now.Add(t.ttl)

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(s.SubjectID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		PiUID:    s.PiUID,
		Username: s.Username,
		Role:     s.Role,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

func (t *TokenIssuer) Parse(token string) (*Session, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(tok *jwt.Token) (any, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil || c.Role == "" {
		return nil, ErrUnauthorized
	}

	s := &Session{
		SubjectID: uint(id),
		PiUID:     c.PiUID,
		Username:  c.Username,
		Role:      c.Role,
	}
	if c.ExpiresAt != nil {
		s.ExpiresAt = c.ExpiresAt.Time
	}
	return s, nil
}

type PiAuthenticator interface {
	Me(ctx context.Context, accessToken string) (*pinetwork.Me, error)
}

type UserAccounts interface {
	UpsertByPiUID(ctx context.Context, piUID, username string) (*models.User, error)
}

type AdminAccounts interface {
	GetByUsername(ctx context.Context, username string) (*models.Admin, error)
	TouchLogin(ctx context.Context, id uint) error
}

type LoginResult struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	User      *models.User  `json:"user,omitempty"`
	Admin     *models.Admin `json:"admin,omitempty"`
}

type AuthService struct {
	pi     PiAuthenticator
	users  UserAccounts
	admins AdminAccounts
	tokens *TokenIssuer
}

func NewAuthService(pi PiAuthenticator, users UserAccounts, admins AdminAccounts, tokens *TokenIssuer) *AuthService {
	return &AuthService{pi: pi, users: users, admins: admins, tokens: tokens}
}

// LoginWithPi verifies the wallet SDK access token against Pi Network and
// creates the user on first login.
func (s *AuthService) LoginWithPi(ctx context.Context, accessToken string) (*LoginResult, error) {
	me, err := s.pi.Me(ctx, accessToken)
	if err != nil {
		log.Warn().Err(err).Msg("pi access token rejected")
		return nil, ErrUnauthorized
	}
	if me.UID == "" {
		return nil, ErrUnauthorized
	}

	user, err := s.users.UpsertByPiUID(ctx, me.UID, me.Username)
	if err != nil {
		return nil, err
	}

	token, exp, err := s.tokens.Issue(Session{
		SubjectID: user.ID,
		PiUID:     user.PiUID,
		Username:  user.Username,
		Role:      RoleUser,
	})
	if err != nil {
		return nil, err
	}

	log.Info().Uint("user_id", user.ID).Str("pi_uid", user.PiUID).Msg("user logged in")
	return &LoginResult{Token: token, ExpiresAt: exp, User: user}, nil
}

func (s *AuthService) LoginAdmin(ctx context.Context, username, password string) (*LoginResult, error) {
	admin, err := s.admins.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrAdminNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, exp, err := s.tokens.Issue(Session{SubjectID: admin.ID, Username: admin.Username, Role: RoleAdmin})
	if err != nil {
		return nil, err
	}

	if err := s.admins.TouchLogin(ctx, admin.ID); err != nil {
		log.Warn().Err(err).Uint("admin_id", admin.ID).Msg("failed to record admin login")
	}
	return &LoginResult{Token: token, ExpiresAt: exp, Admin: admin}, nil
}

func (s *AuthService) Tokens() *TokenIssuer { return s.tokens }
