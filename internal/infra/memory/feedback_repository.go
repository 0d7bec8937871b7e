package memory

import (
	"context"
	"sync"

	"iq-quiz-service/internal/domain"
)

// FeedbackRepository is an in-memory feedback store (tests and the demo
// mode).
type FeedbackRepository struct {
	mu        sync.Mutex
	feedbacks []domain.Feedback
	nextID    int64
}

func NewFeedbackRepository() *FeedbackRepository {
	return &FeedbackRepository{nextID: 1}
}

func (r *FeedbackRepository) Save(_ context.Context, fb domain.Feedback) (domain.Feedback, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fb.ID = r.nextID
	r.nextID++
	r.feedbacks = append(r.feedbacks, fb)
	return fb, nil
}

// All returns a snapshot of the stored feedback, oldest first.
func (r *FeedbackRepository) All() []domain.Feedback {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Feedback, len(r.feedbacks))
	copy(out, r.feedbacks)
	return out
}
