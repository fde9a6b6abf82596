package storage

import (
	"context"
	"errors"
	"fmt"
)

// ErrKeyNotFound is returned when no document exists under a key.
var ErrKeyNotFound = errors.New("key not found")

// KeyValueStore persists JSON documents under string keys. The durable layout
// mirrors the product's original local-storage scheme: a handful of keys,
// each holding one JSON document, written fire-and-forget after mutations.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Durable key layout.
const (
	KeyGames = "polarity_games"

	sessionKeyPrefix = "polarity_session:"
	accountKeyPrefix = "polarity_account:"
	themeKeyPrefix   = "polarity_theme:"
)

// SessionKey returns the key holding a user's session record.
func SessionKey(userID string) string {
	return sessionKeyPrefix + userID
}

// AccountKey returns the key holding a registered account record.
func AccountKey(email string) string {
	return accountKeyPrefix + email
}

// ThemeKey returns the key holding a user's theme preference.
func ThemeKey(userID string) string {
	return fmt.Sprintf("%s%s", themeKeyPrefix, userID)
}
