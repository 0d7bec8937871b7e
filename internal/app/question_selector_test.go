package app

import (
	"math/rand"
	"sync"
	"testing"

	"iq-quiz-service/internal/domain"
)

func newTestSelector() *QuestionSelector {
	return NewQuestionSelector(rand.New(rand.NewSource(1)))
}

// fullPool returns two questions per category/difficulty pair.
func fullPool() []domain.Question {
	var pool []domain.Question
	id := int64(1)
	for _, category := range domain.CategoryOrder {
		for difficulty := 1; difficulty <= 3; difficulty++ {
			for n := 0; n < 2; n++ {
				pool = append(pool, domain.Question{
					ID:         id,
					Category:   category,
					Difficulty: difficulty,
				})
				id++
			}
		}
	}
	return pool
}

func TestSelectFullPool(t *testing.T) {
	selected := newTestSelector().Select(fullPool())

	if len(selected) != 15 {
		t.Fatalf("expected 15 questions, got %d", len(selected))
	}
	for i, category := range domain.CategoryOrder {
		block := selected[i*3 : i*3+3]
		for j, q := range block {
			if q.Category != category {
				t.Fatalf("position %d: expected category %s, got %s", i*3+j, category, q.Category)
			}
			if q.Difficulty != j+1 {
				t.Fatalf("category %s position %d: expected difficulty %d, got %d", category, j, j+1, q.Difficulty)
			}
		}
	}
}

func TestSelectSkipsAbsentCategory(t *testing.T) {
	var pool []domain.Question
	for _, q := range fullPool() {
		if q.Category != domain.CategorySpatial {
			pool = append(pool, q)
		}
	}

	selected := newTestSelector().Select(pool)

	if len(selected) != 12 {
		t.Fatalf("expected 12 questions with one category absent, got %d", len(selected))
	}
	for _, q := range selected {
		if q.Category == domain.CategorySpatial {
			t.Fatalf("absent category appeared in selection")
		}
	}
}

func TestSelectBackfillsMissingDifficulty(t *testing.T) {
	// Pattern category has no difficulty-3 questions but plenty of
	// difficulty-1 spares.
	pool := []domain.Question{
		{ID: 1, Category: domain.CategoryPattern, Difficulty: 1},
		{ID: 2, Category: domain.CategoryPattern, Difficulty: 1},
		{ID: 3, Category: domain.CategoryPattern, Difficulty: 1},
		{ID: 4, Category: domain.CategoryPattern, Difficulty: 2},
	}

	selected := newTestSelector().Select(pool)

	if len(selected) != 3 {
		t.Fatalf("expected backfill to 3 questions, got %d", len(selected))
	}
	for i := 1; i < len(selected); i++ {
		if selected[i].Difficulty < selected[i-1].Difficulty {
			t.Fatalf("selection not difficulty-ascending: %+v", selected)
		}
	}
	seen := make(map[int64]bool)
	for _, q := range selected {
		if seen[q.ID] {
			t.Fatalf("question %d picked twice", q.ID)
		}
		seen[q.ID] = true
	}
}

func TestSelectExhaustsSmallCategory(t *testing.T) {
	pool := []domain.Question{
		{ID: 1, Category: domain.CategoryVerbal, Difficulty: 2},
	}

	selected := newTestSelector().Select(pool)

	if len(selected) != 1 {
		t.Fatalf("expected the single available question, got %d", len(selected))
	}
}

// The selector is shared by every in-flight question fetch, so draws
// must be safe under concurrent use of the one random source.
func TestSelectConcurrent(t *testing.T) {
	pool := fullPool()
	selector := newTestSelector()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				if selected := selector.Select(pool); len(selected) != 15 {
					t.Errorf("expected 15 questions, got %d", len(selected))
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestSelectRandomWithinBucket(t *testing.T) {
	pool := fullPool()
	selector := NewQuestionSelector(rand.New(rand.NewSource(7)))

	// With two candidates per bucket, repeated draws must not always
	// produce the identical set.
	first := selector.Select(pool)
	for i := 0; i < 50; i++ {
		next := selector.Select(pool)
		for j := range next {
			if next[j].ID != first[j].ID {
				return
			}
		}
	}
	t.Fatalf("50 draws produced identical selections")
}
