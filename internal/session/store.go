package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/statspot/internal/shared"
)

// Fields is the non-sensitive token subset returned by the exchange service.
type Fields struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Scope       string `json:"scope"`
}

// Token is a stored session: [Fields] plus the capture time in epoch milliseconds.
type Token struct {
	Fields
	ObtainedAt int64 `json:"obtained_at"`
}

// ExpiresAt is the absolute expiry instant, or the zero time when unknown.
func (t Token) ExpiresAt() time.Time {
	if t.ExpiresIn <= 0 || t.ObtainedAt <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(t.ObtainedAt + t.ExpiresIn*1000)
}

// Expired reports whether the token is unusable at now.
// Tokens without expiry information never expire locally.
func (t Token) Expired(now time.Time) bool {
	exp := t.ExpiresAt()
	if exp.IsZero() {
		return false
	}
	return !now.Before(exp)
}

// Store is the session store over a profile [Storage].
type Store struct {
	storage Storage
	now     func() time.Time
	events  EventRecorder
}

// NewStore creates a Store. A nil now uses [time.Now].
func NewStore(storage Storage, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	s := &Store{storage: storage, now: now}
	if rec, ok := storage.(EventRecorder); ok {
		s.events = rec
	}
	return s
}

// Storage exposes the backing store (shared with the cookie jar).
func (s *Store) Storage() Storage {
	return s.storage
}

// Record forwards to the storage's [EventRecorder] when it has one.
func (s *Store) Record(kind, detail string) {
	if s.events != nil {
		_ = s.events.RecordEvent(kind, detail)
	}
}

// Save persists fields stamped with the current time, replacing any previous token in one write.
func (s *Store) Save(fields Fields) (*Token, error) {
	if fields.AccessToken == "" {
		return nil, fmt.Errorf("%w: empty access token", shared.ErrInvalidInput)
	}

	tok := &Token{Fields: fields, ObtainedAt: s.now().UnixMilli()}
	data, err := json.Marshal(tok)
	if err != nil {
		return nil, fmt.Errorf("failed to encode token: %w", err)
	}

	if err := s.storage.Set(KeyToken, string(data)); err != nil {
		return nil, err
	}
	return tok, nil
}

// Read returns the stored token, or [shared.ErrNoSession] when it is absent, unreadable or expired.
// Expired and unreadable values are purged.
func (s *Store) Read() (*Token, error) {
	raw, err := s.storage.Get(KeyToken)
	if errors.Is(err, shared.ErrKeyNotFound) {
		return nil, shared.ErrNoSession
	}
	if err != nil {
		return nil, err
	}

	var tok Token
	if err := json.Unmarshal([]byte(raw), &tok); err != nil || tok.AccessToken == "" {
		_ = s.storage.Delete(KeyToken)
		return nil, shared.ErrNoSession
	}

	if tok.Expired(s.now()) {
		if err := s.storage.Delete(KeyToken); err != nil {
			return nil, err
		}
		s.Record(EventExpired, tok.ExpiresAt().UTC().Format(time.RFC3339))
		return nil, shared.ErrNoSession
	}

	return &tok, nil
}

// Clear removes the stored token.
func (s *Store) Clear() error {
	return s.storage.Delete(KeyToken)
}

// SaveVerifier records the verifier of the login attempt in flight, replacing any earlier one.
func (s *Store) SaveVerifier(verifier string) error {
	return s.storage.Set(KeyVerifier, verifier)
}

// Verifier returns the in-flight verifier or [shared.ErrMissingVerifier].
func (s *Store) Verifier() (string, error) {
	v, err := s.storage.Get(KeyVerifier)
	if errors.Is(err, shared.ErrKeyNotFound) || (err == nil && v == "") {
		return "", shared.ErrMissingVerifier
	}
	return v, err
}

// ClearVerifier drops the in-flight verifier.
func (s *Store) ClearVerifier() error {
	return s.storage.Delete(KeyVerifier)
}
