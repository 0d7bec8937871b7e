package memory

import (
	"context"
	"sort"
	"sync"

	"iq-quiz-service/internal/domain"
)

// ResultRepository is an in-memory result store (tests and the demo
// mode).
type ResultRepository struct {
	mu      sync.RWMutex
	results []domain.Result
	nextID  int64
}

func NewResultRepository() *ResultRepository {
	return &ResultRepository{nextID: 1}
}

func (r *ResultRepository) CountWithHigherScore(_ context.Context, score int) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, res := range r.results {
		if res.Score > score {
			count++
		}
	}
	return count, nil
}

func (r *ResultRepository) CountAll(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.results), nil
}

func (r *ResultRepository) Save(_ context.Context, result domain.Result) (domain.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result.ID = r.nextID
	r.nextID++
	r.results = append(r.results, result)
	return result, nil
}

func (r *ResultRepository) FindByShareToken(_ context.Context, token string) (domain.Result, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, res := range r.results {
		if res.ShareToken == token {
			return res, nil
		}
	}
	return domain.Result{}, domain.NotFoundf("result not found")
}

func (r *ResultRepository) FindAllDedupedByIP(_ context.Context) ([]domain.Result, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	best := make(map[string]domain.Result)
	for _, res := range r.results {
		cur, ok := best[res.IPAddress]
		if !ok || betterEntry(res, cur) {
			best[res.IPAddress] = res
		}
	}

	out := make([]domain.Result, 0, len(best))
	for _, res := range best {
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool {
		return betterEntry(out[i], out[j])
	})
	return out, nil
}

// betterEntry orders leaderboard candidates: score desc, then elapsed
// time asc.
func betterEntry(a, b domain.Result) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.TimeSeconds < b.TimeSeconds
}
