package app

import (
	"sync"

	"iq-quiz-service/internal/domain"
)

// RankingFeed fans fresh leaderboard snapshots out to live subscribers
// (the WebSocket ranking stream). Publishing never blocks on a slow
// subscriber: a stale pending snapshot is dropped in favor of the new one.
type RankingFeed struct {
	mu          sync.Mutex
	subscribers map[chan domain.Leaderboard]struct{}
}

func NewRankingFeed() *RankingFeed {
	return &RankingFeed{subscribers: make(map[chan domain.Leaderboard]struct{})}
}

// Subscribe returns a channel of leaderboard snapshots. The caller must
// invoke the returned cancel function to avoid leaks.
func (f *RankingFeed) Subscribe() (<-chan domain.Leaderboard, func()) {
	ch := make(chan domain.Leaderboard, 1)

	f.mu.Lock()
	f.subscribers[ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if _, ok := f.subscribers[ch]; ok {
			delete(f.subscribers, ch)
			close(ch)
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers lb to every subscriber, replacing any undelivered
// previous snapshot.
func (f *RankingFeed) Publish(lb domain.Leaderboard) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subscribers {
		select {
		case ch <- lb:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- lb
		}
	}
}
