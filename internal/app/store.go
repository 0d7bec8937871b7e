package app

import (
	"context"
	"time"

	"iq-quiz-service/internal/domain"
)

// KeyStore is an ephemeral TTL- and capacity-bounded key/value cache.
// Implementations must be safe for concurrent use; a Put racing a Get on
// the same key resolves to last-write-wins. Entries may be evicted before
// their TTL under capacity pressure, so callers treat the TTL as an upper
// bound, never a deadline.
type KeyStore[V any] interface {
	// Put stores value under key with the store's default TTL.
	Put(key string, value V)
	// PutTTL stores value under key with an explicit TTL.
	PutTTL(key string, value V, ttl time.Duration)
	// Get returns the live value for key, if any.
	Get(key string) (V, bool)
	// Invalidate removes key. Removing an absent key is a no-op.
	Invalidate(key string)
}

// QuestionRepository loads the question bank and applies the atomic bulk
// counter increments. Increments never go through read-modify-write in
// this package; lost updates under concurrent submissions are the storage
// layer's problem to prevent.
type QuestionRepository interface {
	FindAll(ctx context.Context) ([]domain.Question, error)
	FindByIDs(ctx context.Context, ids []int64) ([]domain.Question, error)
	IncrementTotalAttempts(ctx context.Context, ids []int64) error
	IncrementCorrectCounts(ctx context.Context, ids []int64) error
}

// ResultRepository persists accepted submissions and answers the
// population queries the ranking math needs.
type ResultRepository interface {
	CountWithHigherScore(ctx context.Context, score int) (int, error)
	CountAll(ctx context.Context) (int, error)
	Save(ctx context.Context, result domain.Result) (domain.Result, error)
	// FindByShareToken returns domain.ErrNotFound for unknown tokens.
	FindByShareToken(ctx context.Context, token string) (domain.Result, error)
	// FindAllDedupedByIP returns one result per submitting IP (best
	// score, fastest time on ties), sorted by score desc then time asc.
	FindAllDedupedByIP(ctx context.Context) ([]domain.Result, error)
}

// FeedbackRepository persists free-text feedback.
type FeedbackRepository interface {
	Save(ctx context.Context, fb domain.Feedback) (domain.Feedback, error)
}
