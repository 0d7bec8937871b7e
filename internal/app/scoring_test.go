package app

import (
	"testing"

	"iq-quiz-service/internal/domain"
)

func TestTimeBonusBoundaries(t *testing.T) {
	if got := TimeBonus(0); got != 600 {
		t.Fatalf("expected 600 bonus for instant solve, got %d", got)
	}
	if got := TimeBonus(300); got != 0 {
		t.Fatalf("expected 0 bonus at 300s, got %d", got)
	}
	if got := TimeBonus(450); got != 0 {
		t.Fatalf("expected 0 bonus beyond 300s, got %d", got)
	}
	if got := TimeBonus(100); got != 400 {
		t.Fatalf("expected 400 bonus at 100s, got %d", got)
	}
}

func TestClampElapsed(t *testing.T) {
	if got := ClampElapsed(-5); got != 0 {
		t.Fatalf("expected negative elapsed clamped to 0, got %d", got)
	}
	if got := ClampElapsed(10000); got != MaxElapsedSeconds {
		t.Fatalf("expected elapsed clamped to %d, got %d", MaxElapsedSeconds, got)
	}
	if got := ClampElapsed(42); got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
}

func TestScoreDifficultyWeights(t *testing.T) {
	questions := map[int64]domain.Question{
		1: {ID: 1, Difficulty: 1},
		2: {ID: 2, Difficulty: 2},
		3: {ID: 3, Difficulty: 3},
		4: {ID: 4, Difficulty: 9}, // bad data falls back to 100
	}

	// All four correct at exactly the bonus cutoff: 50+100+150+100.
	if got := Score([]int64{1, 2, 3, 4}, questions, 300); got != 400 {
		t.Fatalf("expected 400, got %d", got)
	}
	// Same inputs, same output.
	if got := Score([]int64{1, 2, 3, 4}, questions, 300); got != 400 {
		t.Fatalf("score not deterministic, got %d", got)
	}
	// No correct answers, instant solve: bonus only.
	if got := Score(nil, questions, 0); got != 600 {
		t.Fatalf("expected bonus-only 600, got %d", got)
	}
}

func TestEstimateIQBoundsAndMonotonicity(t *testing.T) {
	if got := EstimateIQ(0); got != 75 {
		t.Fatalf("expected floor 75, got %d", got)
	}
	if got := EstimateIQ(100000); got != 150 {
		t.Fatalf("expected ceiling 150, got %d", got)
	}

	prev := 0
	for score := 0; score <= 3000; score += 25 {
		iq := EstimateIQ(score)
		if iq < 75 || iq > 150 {
			t.Fatalf("iq %d out of [75,150] at score %d", iq, score)
		}
		if iq < prev {
			t.Fatalf("iq decreased from %d to %d at score %d", prev, iq, score)
		}
		prev = iq
	}
}
