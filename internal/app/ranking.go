package app

import (
	"context"
	"math"
	"time"

	"iq-quiz-service/internal/domain"
)

const (
	// LeaderboardTTL bounds staleness between explicit invalidations.
	LeaderboardTTL = time.Minute

	leaderboardCacheKey = "ranking"
	leaderboardTopSize  = 10
)

// percentileTargets are the population percentiles represented by marker
// entries below the top block.
var percentileTargets = []int{30, 50, 70, 90}

// RankingAggregator computes rank/percentile against the stored result
// population and builds the deduplicated leaderboard, cached briefly and
// invalidated on every accepted submission.
type RankingAggregator struct {
	results ResultRepository
	cache   KeyStore[domain.Leaderboard]
}

func NewRankingAggregator(results ResultRepository, cache KeyStore[domain.Leaderboard]) *RankingAggregator {
	return &RankingAggregator{results: results, cache: cache}
}

// FreshRank ranks a submission that has not been saved yet: the counts
// exclude it, so both rank and total are bumped by one to account for
// the submission itself.
func (a *RankingAggregator) FreshRank(ctx context.Context, score int) (domain.RankInfo, error) {
	higher, err := a.results.CountWithHigherScore(ctx, score)
	if err != nil {
		return domain.RankInfo{}, err
	}
	total, err := a.results.CountAll(ctx)
	if err != nil {
		return domain.RankInfo{}, err
	}
	return rankInfo(higher+1, total+1), nil
}

// StoredRank ranks a result that already exists in the population, so no
// self-adjustment is applied. The figure drifts as the population grows.
func (a *RankingAggregator) StoredRank(ctx context.Context, score int) (domain.RankInfo, error) {
	higher, err := a.results.CountWithHigherScore(ctx, score)
	if err != nil {
		return domain.RankInfo{}, err
	}
	total, err := a.results.CountAll(ctx)
	if err != nil {
		return domain.RankInfo{}, err
	}
	if total < 1 {
		total = 1
	}
	return rankInfo(higher+1, total), nil
}

// Leaderboard returns the cached leaderboard, rebuilding it from storage
// on a miss.
func (a *RankingAggregator) Leaderboard(ctx context.Context) (domain.Leaderboard, error) {
	if lb, ok := a.cache.Get(leaderboardCacheKey); ok {
		return lb, nil
	}
	all, err := a.results.FindAllDedupedByIP(ctx)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	lb := BuildLeaderboard(all)
	a.cache.Put(leaderboardCacheKey, lb)
	return lb, nil
}

// Invalidate drops the cached leaderboard. Called after every accepted
// submission.
func (a *RankingAggregator) Invalidate() {
	a.cache.Invalidate(leaderboardCacheKey)
}

func rankInfo(rank, total int) domain.RankInfo {
	return domain.RankInfo{
		Rank:              rank,
		TotalParticipants: total,
		TopPercent:        topPercent(rank, total),
	}
}

// topPercent is the share of the population at or above this rank, with
// one decimal place.
func topPercent(rank, total int) float64 {
	return math.Round(float64(rank)/float64(total)*1000) / 10
}

// BuildLeaderboard assembles the top block plus percentile markers from a
// population already deduplicated to one entry per IP and sorted by score
// desc, time asc.
func BuildLeaderboard(all []domain.Result) domain.Leaderboard {
	total := len(all)

	top := make([]domain.RankingEntry, 0, leaderboardTopSize)
	for i, r := range all {
		if i == leaderboardTopSize {
			break
		}
		top = append(top, rankingEntry(i+1, r))
	}

	// Percentile markers only make sense once there is population beyond
	// the top block.
	var markers []domain.PercentileEntry
	if total > leaderboardTopSize {
		seen := make(map[int]bool)
		for _, pct := range percentileTargets {
			pos := int(math.Round(float64(total) * float64(pct) / 100))
			if pos < leaderboardTopSize {
				pos = leaderboardTopSize
			}
			if pos > total-1 {
				pos = total - 1
			}
			if seen[pos] {
				continue
			}
			seen[pos] = true
			markers = append(markers, domain.PercentileEntry{
				TopPercent:   pct,
				RankingEntry: rankingEntry(pos+1, all[pos]),
			})
		}
	}

	return domain.Leaderboard{TopEntries: top, PercentileEntries: markers, TotalCount: total}
}

func rankingEntry(rank int, r domain.Result) domain.RankingEntry {
	return domain.RankingEntry{
		Rank:         rank,
		Nickname:     r.Nickname,
		Score:        r.Score,
		CorrectCount: r.CorrectCount,
		TimeSeconds:  r.TimeSeconds,
		EstimatedIQ:  r.EstimatedIQ,
	}
}
