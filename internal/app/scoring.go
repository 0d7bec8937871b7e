package app

import "iq-quiz-service/internal/domain"

// Scoring constants. The time bonus rewards solves under five minutes;
// elapsed time is clamped before the formula so clock skew or a stalled
// client can neither inflate the bonus nor go negative.
const (
	timeBonusBaseSeconds = 300
	timeBonusPerSecond   = 2
	// MaxElapsedSeconds caps the recorded solve time.
	MaxElapsedSeconds = 600

	iqFloor        = 75
	iqCeil         = 150
	iqScoreDivisor = 25
)

// difficultyScores maps difficulty level to the points one correct answer
// is worth.
var difficultyScores = map[int]int{1: 50, 2: 100, 3: 150}

// defaultDifficultyScore applies when a question carries a difficulty
// outside 1..3.
const defaultDifficultyScore = 100

// ClampElapsed bounds a raw elapsed-seconds measurement to the scoreable
// range [0, MaxElapsedSeconds].
func ClampElapsed(seconds int64) int {
	if seconds < 0 {
		return 0
	}
	if seconds > MaxElapsedSeconds {
		return MaxElapsedSeconds
	}
	return int(seconds)
}

// Score computes the final score: difficulty-weighted points for each
// correctly answered question plus the time bonus. It is deterministic in
// its inputs.
func Score(correctIDs []int64, questions map[int64]domain.Question, elapsedSeconds int) int {
	base := 0
	for _, id := range correctIDs {
		if points, ok := difficultyScores[questions[id].Difficulty]; ok {
			base += points
		} else {
			base += defaultDifficultyScore
		}
	}
	return base + TimeBonus(elapsedSeconds)
}

// TimeBonus is up to 600 points for an instantaneous solve, falling
// linearly to zero at timeBonusBaseSeconds.
func TimeBonus(elapsedSeconds int) int {
	bonus := (timeBonusBaseSeconds - elapsedSeconds) * timeBonusPerSecond
	if bonus < 0 {
		return 0
	}
	return bonus
}

// EstimateIQ maps a raw score onto a coarse, bounded IQ-like scale. It is
// a monotonic non-decreasing step function (integer division) clamped to
// [iqFloor, iqCeil].
func EstimateIQ(score int) int {
	iq := iqFloor + score/iqScoreDivisor
	if iq < iqFloor {
		return iqFloor
	}
	if iq > iqCeil {
		return iqCeil
	}
	return iq
}
