package app

import (
	"context"
	"strings"
	"time"

	"iq-quiz-service/internal/domain"
)

const maxFeedbackLength = 500

// FeedbackService accepts free-text feedback, limited to one accepted
// submission per IP per window with no escalation tier.
type FeedbackService struct {
	repo  FeedbackRepository
	guard *SubmissionGuard
	now   func() time.Time
}

func NewFeedbackService(repo FeedbackRepository, guard *SubmissionGuard) *FeedbackService {
	return &FeedbackService{repo: repo, guard: guard, now: time.Now}
}

// Submit validates, rate-limits and persists one piece of feedback. The
// window is armed only after a successful save.
func (s *FeedbackService) Submit(ctx context.Context, content, ip string) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return domain.Validationf("feedback text is required")
	}
	if len([]rune(trimmed)) > maxFeedbackLength {
		return domain.Validationf("feedback must be at most %d characters", maxFeedbackLength)
	}

	if !s.guard.CanSubmitFeedback(ip) {
		return domain.RateLimitedf("feedback is limited to one submission per hour")
	}

	if _, err := s.repo.Save(ctx, domain.Feedback{
		Content:   trimmed,
		IPAddress: ip,
		CreatedAt: s.now(),
	}); err != nil {
		return err
	}
	s.guard.RecordFeedback(ip)
	return nil
}
