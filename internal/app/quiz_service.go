package app

import (
	"context"
	"log"
	"time"

	"iq-quiz-service/internal/domain"

	"github.com/google/uuid"
)

// QuizService wires the core pipeline: question selection, session
// tracking, rate limiting, scoring and ranking. Persistence is delegated
// to the injected repositories; every success-side effect (session
// invalidation, cooldown arming, leaderboard invalidation) happens
// strictly after the durable save so that a failed save leaves the
// attempt retryable.
type QuizService struct {
	questions QuestionRepository
	results   ResultRepository
	sessions  *SessionTracker
	guard     *SubmissionGuard
	selector  *QuestionSelector
	ranking   *RankingAggregator
	nicknames *NicknameValidator
	feed      *RankingFeed
	now       func() time.Time
}

func NewQuizService(
	questions QuestionRepository,
	results ResultRepository,
	sessions *SessionTracker,
	guard *SubmissionGuard,
	selector *QuestionSelector,
	ranking *RankingAggregator,
	nicknames *NicknameValidator,
	feed *RankingFeed,
) *QuizService {
	return &QuizService{
		questions: questions,
		results:   results,
		sessions:  sessions,
		guard:     guard,
		selector:  selector,
		ranking:   ranking,
		nicknames: nicknames,
		feed:      feed,
		now:       time.Now,
	}
}

// WithClock is test-only for deterministic elapsed-time measurement.
func (s *QuizService) WithClock(now func() time.Time) *QuizService {
	s.now = now
	return s
}

// SubmitRequest carries one quiz submission.
type SubmitRequest struct {
	Nickname     string
	Answers      []domain.AnswerItem
	SessionToken string
	IP           string
}

// FetchQuestionSet draws a fresh question set from the pool and issues
// the session token that anchors this attempt's start time.
func (s *QuizService) FetchQuestionSet(ctx context.Context) (domain.QuestionSet, error) {
	pool, err := s.questions.FindAll(ctx)
	if err != nil {
		return domain.QuestionSet{}, err
	}

	selected := s.selector.Select(pool)
	views := make([]domain.QuestionView, 0, len(selected))
	for _, q := range selected {
		views = append(views, q.View())
	}

	token, err := s.sessions.Create()
	if err != nil {
		return domain.QuestionSet{}, err
	}
	return domain.QuestionSet{SessionToken: token, Questions: views}, nil
}

// CheckEligibility is the read-only pre-flight probe for the submit rate
// limit. It never mutates guard state.
func (s *QuizService) CheckEligibility(ip string) bool {
	return s.guard.CanSubmit(ip)
}

// CheckNickname runs the nickname validator without any other effect.
func (s *QuizService) CheckNickname(nickname string) error {
	return s.nicknames.Validate(nickname)
}

// Submit scores and persists one quiz attempt. All validation and
// rate-limit rejections happen before any mutation; the one deliberate
// exception is the guard's cooldown→day-ban escalation on an abusive
// retry.
func (s *QuizService) Submit(ctx context.Context, req SubmitRequest) (domain.ScoredResult, error) {
	if err := s.nicknames.Validate(req.Nickname); err != nil {
		return domain.ScoredResult{}, err
	}
	if len(req.Answers) == 0 {
		return domain.ScoredResult{}, domain.Validationf("answers are required")
	}

	if reason, rejected := s.guard.RejectReason(req.IP); rejected {
		return domain.ScoredResult{}, domain.RateLimitedf("%s", reason)
	}

	startTime, ok := s.sessions.StartTime(req.SessionToken)
	if !ok {
		return domain.ScoredResult{}, domain.Validationf("invalid or expired session; please restart the test")
	}
	elapsed := ClampElapsed(int64(s.now().Sub(startTime) / time.Second))

	ids := make([]int64, 0, len(req.Answers))
	for _, a := range req.Answers {
		ids = append(ids, a.QuestionID)
	}
	stored, err := s.questions.FindByIDs(ctx, ids)
	if err != nil {
		return domain.ScoredResult{}, err
	}
	questionMap := make(map[int64]domain.Question, len(stored))
	for _, q := range stored {
		questionMap[q.ID] = q
	}
	if len(questionMap) != distinctCount(ids) {
		return domain.ScoredResult{}, domain.Validationf("submission contains an unknown question id")
	}

	var correctIDs []int64
	for _, a := range req.Answers {
		if a.Answer != domain.NoAnswer && a.Answer == questionMap[a.QuestionID].Answer {
			correctIDs = append(correctIDs, a.QuestionID)
		}
	}

	score := Score(correctIDs, questionMap, elapsed)

	// Rank against the population before this result joins it; FreshRank
	// accounts for the submission itself.
	rank, err := s.ranking.FreshRank(ctx, score)
	if err != nil {
		return domain.ScoredResult{}, err
	}

	saved, err := s.results.Save(ctx, domain.Result{
		ShareToken:   uuid.NewString(),
		Nickname:     req.Nickname,
		Score:        score,
		CorrectCount: len(correctIDs),
		TimeSeconds:  elapsed,
		EstimatedIQ:  EstimateIQ(score),
		IPAddress:    req.IP,
		CreatedAt:    s.now(),
	})
	if err != nil {
		return domain.ScoredResult{}, err
	}

	// From here on the result is durable: record the success effects.
	// Counter increments happen through the storage layer's atomic bulk
	// updates; a failure is logged but does not undo the submission.
	if err := s.questions.IncrementTotalAttempts(ctx, ids); err != nil {
		log.Printf("increment total attempts: %v", err)
	}
	if len(correctIDs) > 0 {
		if err := s.questions.IncrementCorrectCounts(ctx, correctIDs); err != nil {
			log.Printf("increment correct counts: %v", err)
		}
	}
	s.sessions.Invalidate(req.SessionToken)
	s.guard.Record(req.IP)
	s.ranking.Invalidate()
	s.publishRanking(ctx)

	feedback := make([]domain.QuestionFeedback, 0, len(req.Answers))
	for _, a := range req.Answers {
		q := questionMap[a.QuestionID]
		feedback = append(feedback, domain.QuestionFeedback{
			QuestionID:    a.QuestionID,
			UserAnswer:    a.Answer,
			CorrectAnswer: q.Answer,
			Correct:       a.Answer != domain.NoAnswer && a.Answer == q.Answer,
			Category:      q.Category,
		})
	}

	return domain.ScoredResult{Result: saved, RankInfo: rank, AnswerFeedback: feedback}, nil
}

// ResultByShareToken resolves a permanent share link. The rank is
// computed against the present population, so it drifts as more people
// take the test.
func (s *QuizService) ResultByShareToken(ctx context.Context, token string) (domain.ScoredResult, error) {
	result, err := s.results.FindByShareToken(ctx, token)
	if err != nil {
		return domain.ScoredResult{}, err
	}
	rank, err := s.ranking.StoredRank(ctx, result.Score)
	if err != nil {
		return domain.ScoredResult{}, err
	}
	return domain.ScoredResult{Result: result, RankInfo: rank}, nil
}

// Leaderboard returns the cached deduplicated ranking view.
func (s *QuizService) Leaderboard(ctx context.Context) (domain.Leaderboard, error) {
	return s.ranking.Leaderboard(ctx)
}

// publishRanking pushes a fresh snapshot to live subscribers. Best
// effort: a failed rebuild only costs the push.
func (s *QuizService) publishRanking(ctx context.Context) {
	if s.feed == nil {
		return
	}
	lb, err := s.ranking.Leaderboard(ctx)
	if err != nil {
		log.Printf("rebuild leaderboard for feed: %v", err)
		return
	}
	s.feed.Publish(lb)
}

func distinctCount(ids []int64) int {
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		seen[id] = true
	}
	return len(seen)
}
