package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"forge-server/internal/models"
	"forge-server/internal/storage"

	"go.uber.org/zap"
)

// AccountRecord is a registered account: the user identity plus the bcrypt
// hash of the password given at signup. Nothing about it is real security;
// the auth flows are a local simulation.
type AccountRecord struct {
	User         models.User `json:"user"`
	PasswordHash string      `json:"passwordHash"`
}

// SessionRepository persists per-user records: the session marker written at
// login, registered account records, and the theme preference.
type SessionRepository struct {
	store  storage.KeyValueStore
	logger *zap.Logger
}

// NewSessionRepository creates a repository over the given store.
func NewSessionRepository(store storage.KeyValueStore, logger *zap.Logger) *SessionRepository {
	return &SessionRepository{
		store:  store,
		logger: logger.Named("SessionRepo"),
	}
}

// SaveSession writes the session marker for a logged-in user.
func (r *SessionRepository) SaveSession(ctx context.Context, user models.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal session record: %w", err)
	}
	return r.store.Set(ctx, storage.SessionKey(user.ID), data)
}

// GetSession returns the session marker, or models.ErrUnauthorized when the
// user has no active session.
func (r *SessionRepository) GetSession(ctx context.Context, userID string) (models.User, error) {
	data, err := r.store.Get(ctx, storage.SessionKey(userID))
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return models.User{}, models.ErrUnauthorized
		}
		return models.User{}, err
	}
	var user models.User
	if err := json.Unmarshal(data, &user); err != nil {
		r.logger.Warn("Corrupt session record, treating as logged out", zap.Error(err), zap.String("userID", userID))
		return models.User{}, models.ErrUnauthorized
	}
	return user, nil
}

// DeleteSession clears the session marker at logout.
func (r *SessionRepository) DeleteSession(ctx context.Context, userID string) error {
	return r.store.Delete(ctx, storage.SessionKey(userID))
}

// SaveAccount writes a registered account record keyed by email.
func (r *SessionRepository) SaveAccount(ctx context.Context, rec AccountRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal account record: %w", err)
	}
	return r.store.Set(ctx, storage.AccountKey(rec.User.Email), data)
}

// GetAccount returns a registered account, or storage.ErrKeyNotFound when no
// account exists for the email.
func (r *SessionRepository) GetAccount(ctx context.Context, email string) (AccountRecord, error) {
	data, err := r.store.Get(ctx, storage.AccountKey(email))
	if err != nil {
		return AccountRecord{}, err
	}
	var rec AccountRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		r.logger.Warn("Corrupt account record", zap.Error(err), zap.String("email", email))
		return AccountRecord{}, storage.ErrKeyNotFound
	}
	return rec, nil
}

// SaveTheme persists the theme preference for a user.
func (r *SessionRepository) SaveTheme(ctx context.Context, userID string, theme models.Theme) error {
	data, err := json.Marshal(theme)
	if err != nil {
		return fmt.Errorf("failed to marshal theme: %w", err)
	}
	return r.store.Set(ctx, storage.ThemeKey(userID), data)
}

// GetTheme returns the stored theme preference, defaulting to dark when none
// is stored or the record is unreadable.
func (r *SessionRepository) GetTheme(ctx context.Context, userID string) models.Theme {
	data, err := r.store.Get(ctx, storage.ThemeKey(userID))
	if err != nil {
		return models.ThemeDark
	}
	var theme models.Theme
	if err := json.Unmarshal(data, &theme); err != nil || !theme.Valid() {
		return models.ThemeDark
	}
	return theme
}
