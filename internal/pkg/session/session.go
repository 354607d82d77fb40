package session

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	jwtpkg "github.com/ShreyankGopal/Adobe-Hacks/internal/pkg/jwt"
	redisc "github.com/ShreyankGopal/Adobe-Hacks/internal/pkg/redis"
	"github.com/google/uuid"
)

// DefaultTTL bounds how long session-scoped state survives without activity.
const DefaultTTL = 12 * time.Hour

const keyPrefix = "pdfsight:session:"

// Issue creates a fresh session ID and a signed token bound to it.
func Issue(ttl time.Duration) (token, sessionID string, err error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	sessionID = uuid.New().String()
	token, err = jwtpkg.Sign(sessionID, ttl)
	return token, sessionID, err
}

// Verify parses a session token and returns the session ID it carries.
func Verify(token string) (string, error) {
	claims, err := jwtpkg.Parse(strings.TrimSpace(token))
	if err != nil {
		return "", err
	}
	return claims.SessionID, nil
}

// Store is the session-scoped key/value state shared across pages.
// One Redis hash per session; every write refreshes the session TTL so
// state lives exactly as long as the session stays active.
type Store struct {
	rc  *redisc.Client
	ttl time.Duration
}

func NewStore(rc *redisc.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{rc: rc, ttl: ttl}
}

func (s *Store) hashKey(sessionID string) string { return keyPrefix + sessionID }

// Put serializes value as JSON under the given key. A fresh write
// overwrites whatever was stored before.
func (s *Store) Put(ctx context.Context, sessionID, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.PutRaw(ctx, sessionID, key, string(data))
}

// PutRaw stores an already-serialized value.
func (s *Store) PutRaw(ctx context.Context, sessionID, key, raw string) error {
	hk := s.hashKey(sessionID)
	if err := s.rc.HSet(ctx, hk, key, raw); err != nil {
		return err
	}
	return s.rc.Expire(ctx, hk, s.ttl)
}

// GetRaw returns the stored value and whether it was present.
func (s *Store) GetRaw(ctx context.Context, sessionID, key string) (string, bool, error) {
	raw, err := s.rc.HGet(ctx, s.hashKey(sessionID), key)
	if err != nil {
		return "", false, err
	}
	return raw, raw != "", nil
}

// Get deserializes the stored value into out. Missing or corrupt
// entries restore as "nothing stored": ok=false, err=nil.
func (s *Store) Get(ctx context.Context, sessionID, key string, out interface{}) (bool, error) {
	raw, ok, err := s.GetRaw(ctx, sessionID, key)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return false, nil
	}
	return true, nil
}

// Delete removes keys from the session state.
func (s *Store) Delete(ctx context.Context, sessionID string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.rc.HDel(ctx, s.hashKey(sessionID), keys...)
}

// All returns every stored key/value pair for the session.
func (s *Store) All(ctx context.Context, sessionID string) (map[string]string, error) {
	return s.rc.HGetAll(ctx, s.hashKey(sessionID))
}

// Clear wipes the whole session state, e.g. when a new upload session starts.
func (s *Store) Clear(ctx context.Context, sessionID string) error {
	return s.rc.Del(ctx, s.hashKey(sessionID))
}
