package app

import (
	"math/rand"
	"sort"
	"sync"

	"iq-quiz-service/internal/domain"
)

const picksPerCategory = 3

// QuestionSelector draws a balanced question set from the full pool:
// categories in the fixed presentation order, one uniformly-random pick
// per difficulty level within each category, difficulty-ascending. The
// random source is injected so tests can make selection deterministic.
// rand.Rand is not safe for concurrent use, so the mutex serializes
// draws across in-flight requests.
type QuestionSelector struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewQuestionSelector(rnd *rand.Rand) *QuestionSelector {
	return &QuestionSelector{rnd: rnd}
}

// Select builds one question set from pool. Selection is re-randomized on
// every call; categories absent from the pool are skipped, shrinking the
// output by three per missing category.
func (s *QuestionSelector) Select(pool []domain.Question) []domain.Question {
	s.mu.Lock()
	defer s.mu.Unlock()

	byCategory := make(map[domain.Category][]domain.Question)
	for _, q := range pool {
		byCategory[q.Category] = append(byCategory[q.Category], q)
	}

	var selected []domain.Question
	for _, category := range domain.CategoryOrder {
		questions, ok := byCategory[category]
		if !ok {
			continue
		}
		selected = append(selected, s.pickForCategory(questions)...)
	}
	return selected
}

// pickForCategory picks one question per difficulty level present, then
// backfills from the category's unpicked questions until three are chosen
// or the category runs out.
func (s *QuestionSelector) pickForCategory(questions []domain.Question) []domain.Question {
	picked := make([]domain.Question, 0, picksPerCategory)
	taken := make(map[int64]bool)

	for difficulty := 1; difficulty <= 3; difficulty++ {
		var bucket []domain.Question
		for _, q := range questions {
			if q.Difficulty == difficulty {
				bucket = append(bucket, q)
			}
		}
		if len(bucket) == 0 {
			continue
		}
		q := bucket[s.rnd.Intn(len(bucket))]
		picked = append(picked, q)
		taken[q.ID] = true
	}

	if len(picked) < picksPerCategory {
		var remaining []domain.Question
		for _, q := range questions {
			if !taken[q.ID] {
				remaining = append(remaining, q)
			}
		}
		s.rnd.Shuffle(len(remaining), func(i, j int) {
			remaining[i], remaining[j] = remaining[j], remaining[i]
		})
		for _, q := range remaining {
			if len(picked) == picksPerCategory {
				break
			}
			picked = append(picked, q)
		}
	}

	sort.SliceStable(picked, func(i, j int) bool {
		return picked[i].Difficulty < picked[j].Difficulty
	})
	return picked
}
