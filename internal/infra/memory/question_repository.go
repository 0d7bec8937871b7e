package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"iq-quiz-service/internal/domain"
)

// QuestionSource is the backing store a CachedQuestionRepository wraps.
// It mirrors the question side of the storage contract.
type QuestionSource interface {
	FindAll(ctx context.Context) ([]domain.Question, error)
	FindByIDs(ctx context.Context, ids []int64) ([]domain.Question, error)
	IncrementTotalAttempts(ctx context.Context, ids []int64) error
	IncrementCorrectCounts(ctx context.Context, ids []int64) error
}

// CachedQuestionRepository caches the full question pool in front of a
// slower repository. The pool changes rarely, so the TTL is long; the
// id-lookup and counter-increment operations pass straight through to
// the backing store. Stale attempt counters inside the cached pool are
// acceptable for the lifetime of the TTL.
type CachedQuestionRepository struct {
	inner QuestionSource
	ttl   time.Duration
	clock func() time.Time
	sf    singleflight.Group
	rnd   *rand.Rand

	mu        sync.RWMutex
	pool      []domain.Question
	expiresAt time.Time
}

func NewCachedQuestionRepository(inner QuestionSource, ttl time.Duration) *CachedQuestionRepository {
	return &CachedQuestionRepository{
		inner: inner,
		ttl:   ttl,
		clock: time.Now,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *CachedQuestionRepository) FindAll(ctx context.Context) ([]domain.Question, error) {
	now := r.clock()

	r.mu.RLock()
	if r.pool != nil && r.expiresAt.After(now) {
		pool := r.pool
		r.mu.RUnlock()
		return pool, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do("pool", func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if r.pool != nil && r.expiresAt.After(now) {
			pool := r.pool
			r.mu.RUnlock()
			return pool, nil
		}
		r.mu.RUnlock()

		pool, err := r.inner.FindAll(ctx)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.pool = pool
		r.expiresAt = now.Add(r.ttlWithJitter())
		r.mu.Unlock()
		return pool, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (r *CachedQuestionRepository) FindByIDs(ctx context.Context, ids []int64) ([]domain.Question, error) {
	return r.inner.FindByIDs(ctx, ids)
}

func (r *CachedQuestionRepository) IncrementTotalAttempts(ctx context.Context, ids []int64) error {
	return r.inner.IncrementTotalAttempts(ctx, ids)
}

func (r *CachedQuestionRepository) IncrementCorrectCounts(ctx context.Context, ids []int64) error {
	return r.inner.IncrementCorrectCounts(ctx, ids)
}

func (r *CachedQuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// QuestionRepository is an in-memory question bank (tests and the demo
// mode). Counter increments are atomic under the repository lock, which
// stands in for the database's bulk UPDATE.
type QuestionRepository struct {
	mu        sync.RWMutex
	questions map[int64]domain.Question
	order     []int64
}

func NewQuestionRepository(seed []domain.Question) *QuestionRepository {
	repo := &QuestionRepository{questions: make(map[int64]domain.Question, len(seed))}
	for _, q := range seed {
		repo.questions[q.ID] = q
		repo.order = append(repo.order, q.ID)
	}
	return repo
}

func (r *QuestionRepository) FindAll(_ context.Context) ([]domain.Question, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Question, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.questions[id])
	}
	return out, nil
}

func (r *QuestionRepository) FindByIDs(_ context.Context, ids []int64) ([]domain.Question, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Question
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if q, ok := r.questions[id]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

func (r *QuestionRepository) IncrementTotalAttempts(_ context.Context, ids []int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		if q, ok := r.questions[id]; ok {
			q.TotalAttempts++
			r.questions[id] = q
		}
	}
	return nil
}

func (r *QuestionRepository) IncrementCorrectCounts(_ context.Context, ids []int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		if q, ok := r.questions[id]; ok {
			q.CorrectCount++
			r.questions[id] = q
		}
	}
	return nil
}
