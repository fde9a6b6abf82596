package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"forge-server/internal/models"
	"forge-server/internal/repository"
	"forge-server/internal/storage"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"go.uber.org/zap"
)

// googleUser is the canned identity returned by the stubbed Google flow.
var googleUser = models.User{
	ID:     "user_google_1",
	Name:   "Alex Rivera",
	Email:  "alex.rivera@gmail.com",
	Avatar: "https://api.dicebear.com/7.x/avataaars/svg?seed=Alex",
}

// TokenDetails is an issued access token and its expiry.
type TokenDetails struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

type tokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// AuthService implements the session shim: signup with stored credentials,
// sign-in that fabricates an identity when no account exists, and the
// stubbed Google flow. Every entry point holds for a fixed delay so clients
// see a realistic verification pause.
type AuthService struct {
	sessions  *repository.SessionRepository
	clock     Clock
	delay     time.Duration
	jwtSecret []byte
	tokenTTL  time.Duration
	logger    *zap.Logger
}

func NewAuthService(sessions *repository.SessionRepository, clock Clock, delay time.Duration, jwtSecret string, tokenTTL time.Duration, logger *zap.Logger) *AuthService {
	return &AuthService{
		sessions:  sessions,
		clock:     clock,
		delay:     delay,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		logger:    logger.Named("AuthService"),
	}
}

// Register creates an account with a bcrypt-hashed password and opens a
// session for it.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (models.User, TokenDetails, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || !validEmail(email) || password == "" {
		return models.User{}, TokenDetails{}, models.ErrInvalidInput
	}

	if err := s.hold(ctx); err != nil {
		return models.User{}, TokenDetails{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, TokenDetails{}, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		ID:     "user_email_" + uuid.NewString(),
		Name:   name,
		Email:  email,
		Avatar: avatarFor(email),
	}

	if err := s.sessions.SaveAccount(ctx, repository.AccountRecord{User: user, PasswordHash: string(hash)}); err != nil {
		return models.User{}, TokenDetails{}, err
	}
	return s.openSession(ctx, user)
}

// Login signs a user in. When an account exists for the email the password
// must match its hash; otherwise an identity is fabricated from the email,
// matching the promise that any credentials open the studio.
func (s *AuthService) Login(ctx context.Context, email, password string) (models.User, TokenDetails, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !validEmail(email) || password == "" {
		return models.User{}, TokenDetails{}, models.ErrInvalidInput
	}

	if err := s.hold(ctx); err != nil {
		return models.User{}, TokenDetails{}, err
	}

	rec, err := s.sessions.GetAccount(ctx, email)
	switch {
	case err == nil:
		if bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password)) != nil {
			return models.User{}, TokenDetails{}, models.ErrInvalidCredentials
		}
		return s.openSession(ctx, rec.User)
	case errors.Is(err, storage.ErrKeyNotFound):
		user := models.User{
			ID:     "user_email_" + uuid.NewString(),
			Name:   email[:strings.Index(email, "@")],
			Email:  email,
			Avatar: avatarFor(email),
		}
		return s.openSession(ctx, user)
	default:
		return models.User{}, TokenDetails{}, err
	}
}

// GoogleLogin runs the stubbed OAuth flow and signs in the canned identity.
func (s *AuthService) GoogleLogin(ctx context.Context) (models.User, TokenDetails, error) {
	if err := s.hold(ctx); err != nil {
		return models.User{}, TokenDetails{}, err
	}
	return s.openSession(ctx, googleUser)
}

// Logout drops the stored session.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if err := s.sessions.DeleteSession(ctx, userID); err != nil {
		return err
	}
	s.logger.Info("User logged out", zap.String("userID", userID))
	return nil
}

// Me returns the signed-in user for a session.
func (s *AuthService) Me(ctx context.Context, userID string) (models.User, error) {
	return s.sessions.GetSession(ctx, userID)
}

// ParseToken validates an access token and returns the subject user id.
func (s *AuthService) ParseToken(tokenString string) (string, error) {
	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", models.ErrTokenExpired
		}
		return "", models.ErrTokenInvalid
	}
	if !token.Valid || claims.Subject == "" {
		return "", models.ErrTokenInvalid
	}
	return claims.Subject, nil
}

func (s *AuthService) openSession(ctx context.Context, user models.User) (models.User, TokenDetails, error) {
	if err := s.sessions.SaveSession(ctx, user); err != nil {
		return models.User{}, TokenDetails{}, err
	}
	token, err := s.issueToken(user)
	if err != nil {
		return models.User{}, TokenDetails{}, err
	}
	s.logger.Info("User signed in", zap.String("userID", user.ID), zap.String("email", user.Email))
	return user, token, nil
}

func (s *AuthService) issueToken(user models.User) (TokenDetails, error) {
	now := s.clock.Now()
	expiresAt := now.Add(s.tokenTTL)
	claims := tokenClaims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return TokenDetails{}, fmt.Errorf("sign token: %w", err)
	}
	return TokenDetails{AccessToken: signed, ExpiresAt: expiresAt}, nil
}

// hold pauses for the configured verification delay, honoring cancellation.
func (s *AuthService) hold(ctx context.Context) error {
	if s.delay <= 0 {
		return nil
	}
	select {
	case <-s.clock.After(s.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1
}

func avatarFor(email string) string {
	return "https://api.dicebear.com/7.x/avataaars/svg?seed=" + email
}
