package app

import (
	"crypto/rand"
	"encoding/base64"
	"time"
)

// Session tracking constants. The TTL is generous relative to the longest
// scoreable solve (600s); the capacity bound means an old token can be
// evicted early under pressure, which is acceptable at this TTL.
const (
	SessionTTL      = 30 * time.Minute
	SessionCapacity = 10000
)

// SessionTracker issues one-time session tokens anchored to a server-side
// start time. Elapsed solve time is always computed from this anchor so a
// client cannot manipulate its time bonus.
type SessionTracker struct {
	store KeyStore[time.Time]
	now   func() time.Time
}

func NewSessionTracker(store KeyStore[time.Time]) *SessionTracker {
	return &SessionTracker{store: store, now: time.Now}
}

// NewSessionTrackerWithClock is test-only for deterministic timestamps.
func NewSessionTrackerWithClock(store KeyStore[time.Time], now func() time.Time) *SessionTracker {
	return &SessionTracker{store: store, now: now}
}

// Create generates an unpredictable token and records the current time
// under it.
func (t *SessionTracker) Create() (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}
	t.store.Put(token, t.now())
	return token, nil
}

// StartTime returns the start time recorded for token, if the token is
// still live.
func (t *SessionTracker) StartTime(token string) (time.Time, bool) {
	return t.store.Get(token)
}

// Invalidate retires a token. Idempotent: invalidating an absent token is
// a no-op. The submission flow calls this only after a durable save, so a
// retry of a failed save still finds a valid session.
func (t *SessionTracker) Invalidate(token string) {
	t.store.Invalidate(token)
}

// newToken returns 16 bytes of crypto/rand entropy, base64url-encoded.
func newToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
