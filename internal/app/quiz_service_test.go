package app_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"iq-quiz-service/internal/app"
	"iq-quiz-service/internal/domain"
	"iq-quiz-service/internal/infra/memory"
)

type testEnv struct {
	service   *app.QuizService
	questions *memory.QuestionRepository
	results   *memory.ResultRepository
	sessions  *app.SessionTracker
	guard     *app.SubmissionGuard
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	questions := memory.NewQuestionRepository(testBank())
	results := memory.NewResultRepository()
	sessions := app.NewSessionTracker(memory.NewStore[time.Time](app.SessionTTL, app.SessionCapacity))
	guard := app.NewSubmissionGuard(
		memory.NewStore[app.GuardRecord](app.SubmitCooldown, app.GuardCapacity),
		memory.NewStore[time.Time](app.FeedbackWindow, app.GuardCapacity),
		nil,
	)
	selector := app.NewQuestionSelector(rand.New(rand.NewSource(1)))
	ranking := app.NewRankingAggregator(results, memory.NewStore[domain.Leaderboard](app.LeaderboardTTL, 1))
	nicknames, err := app.NewNicknameValidator()
	if err != nil {
		t.Fatalf("nickname validator: %v", err)
	}

	service := app.NewQuizService(questions, results, sessions, guard, selector, ranking, nicknames, nil)
	return &testEnv{service: service, questions: questions, results: results, sessions: sessions, guard: guard}
}

// testBank is one question per category/difficulty pair, answer always
// option 0.
func testBank() []domain.Question {
	var bank []domain.Question
	id := int64(1)
	for _, category := range domain.CategoryOrder {
		for difficulty := 1; difficulty <= 3; difficulty++ {
			bank = append(bank, domain.Question{
				ID:         id,
				Content:    "question",
				Options:    []string{"A", "B", "C", "D"},
				Answer:     0,
				Difficulty: difficulty,
				OrderNum:   int(id),
				Category:   category,
			})
			id++
		}
	}
	return bank
}

func allCorrectAnswers(set domain.QuestionSet) []domain.AnswerItem {
	answers := make([]domain.AnswerItem, 0, len(set.Questions))
	for _, q := range set.Questions {
		answers = append(answers, domain.AnswerItem{QuestionID: q.ID, Answer: 0})
	}
	return answers
}

func TestFetchQuestionSetWithholdsAnswers(t *testing.T) {
	env := newTestEnv(t)

	set, err := env.service.FetchQuestionSet(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if set.SessionToken == "" {
		t.Fatalf("expected a session token")
	}
	if len(set.Questions) != 15 {
		t.Fatalf("expected 15 questions, got %d", len(set.Questions))
	}
	if _, ok := env.sessions.StartTime(set.SessionToken); !ok {
		t.Fatalf("expected the issued token to be live")
	}
}

func TestSubmitHappyPath(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	set, err := env.service.FetchQuestionSet(ctx)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	result, err := env.service.Submit(ctx, app.SubmitRequest{
		Nickname:     "Alice",
		Answers:      allCorrectAnswers(set),
		SessionToken: set.SessionToken,
		IP:           "10.0.0.1",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	// 15 correct: 5×(50+100+150) base plus a near-instant time bonus.
	if result.CorrectCount != 15 {
		t.Fatalf("expected 15 correct, got %d", result.CorrectCount)
	}
	if result.Score < 1500 || result.Score > 2100 {
		t.Fatalf("unexpected score %d", result.Score)
	}
	if result.Rank != 1 || result.TotalParticipants != 1 || result.TopPercent != 100.0 {
		t.Fatalf("expected first-ever rank 1/1/100.0, got %d/%d/%v", result.Rank, result.TotalParticipants, result.TopPercent)
	}
	if result.ShareToken == "" {
		t.Fatalf("expected a share token")
	}
	if len(result.AnswerFeedback) != 15 {
		t.Fatalf("expected feedback for every answer, got %d", len(result.AnswerFeedback))
	}

	// Success effects: token retired, cooldown armed, counters bumped.
	if _, ok := env.sessions.StartTime(set.SessionToken); ok {
		t.Fatalf("expected session invalidated after save")
	}
	if env.guard.CanSubmit("10.0.0.1") {
		t.Fatalf("expected cooldown armed after save")
	}
	stored, _ := env.questions.FindByIDs(ctx, []int64{set.Questions[0].ID})
	if stored[0].TotalAttempts != 1 || stored[0].CorrectCount != 1 {
		t.Fatalf("expected counters incremented, got %+v", stored[0])
	}
}

func TestSubmitRejectsReusedToken(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	set, _ := env.service.FetchQuestionSet(ctx)
	req := app.SubmitRequest{
		Nickname:     "Alice",
		Answers:      allCorrectAnswers(set),
		SessionToken: set.SessionToken,
		IP:           "10.0.0.1",
	}
	if _, err := env.service.Submit(ctx, req); err != nil {
		t.Fatalf("first submit: %v", err)
	}

	// The token was single-use; a replay from another IP fails
	// validation, not rate limiting.
	req.IP = "10.0.0.2"
	_, err := env.service.Submit(ctx, req)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for reused token, got %v", err)
	}
}

func TestSubmitUnknownQuestionLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	set, _ := env.service.FetchQuestionSet(ctx)
	answers := allCorrectAnswers(set)
	answers[3].QuestionID = 9999

	_, err := env.service.Submit(ctx, app.SubmitRequest{
		Nickname:     "Alice",
		Answers:      answers,
		SessionToken: set.SessionToken,
		IP:           "10.0.0.1",
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	// Rejected before any mutation: session still valid, no counters, no
	// result row, IP still clear.
	if _, ok := env.sessions.StartTime(set.SessionToken); !ok {
		t.Fatalf("expected session to survive a rejected submission")
	}
	stored, _ := env.questions.FindByIDs(ctx, []int64{set.Questions[0].ID})
	if stored[0].TotalAttempts != 0 {
		t.Fatalf("expected counters untouched, got %+v", stored[0])
	}
	if total, _ := env.results.CountAll(ctx); total != 0 {
		t.Fatalf("expected no result saved, got %d", total)
	}
	if !env.guard.CanSubmit("10.0.0.1") {
		t.Fatalf("expected IP still clear after rejection")
	}
}

func TestSubmitNoAnswerSentinelNeverCorrect(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	set, _ := env.service.FetchQuestionSet(ctx)
	answers := make([]domain.AnswerItem, 0, len(set.Questions))
	for _, q := range set.Questions {
		answers = append(answers, domain.AnswerItem{QuestionID: q.ID, Answer: domain.NoAnswer})
	}

	result, err := env.service.Submit(ctx, app.SubmitRequest{
		Nickname:     "Alice",
		Answers:      answers,
		SessionToken: set.SessionToken,
		IP:           "10.0.0.1",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.CorrectCount != 0 {
		t.Fatalf("expected 0 correct for all-skipped submission, got %d", result.CorrectCount)
	}
	for _, fb := range result.AnswerFeedback {
		if fb.Correct {
			t.Fatalf("sentinel answer marked correct: %+v", fb)
		}
	}
}

func TestSubmitRateLimitEscalation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	set, _ := env.service.FetchQuestionSet(ctx)
	if _, err := env.service.Submit(ctx, app.SubmitRequest{
		Nickname:     "Alice",
		Answers:      allCorrectAnswers(set),
		SessionToken: set.SessionToken,
		IP:           "10.0.0.1",
	}); err != nil {
		t.Fatalf("first submit: %v", err)
	}

	// Immediate retry: rejected by the cooldown and escalated, so the
	// third attempt reports the day ban.
	for i := 0; i < 2; i++ {
		set, _ = env.service.FetchQuestionSet(ctx)
		_, err := env.service.Submit(ctx, app.SubmitRequest{
			Nickname:     "Alice",
			Answers:      allCorrectAnswers(set),
			SessionToken: set.SessionToken,
			IP:           "10.0.0.1",
		})
		if !errors.Is(err, domain.ErrRateLimited) {
			t.Fatalf("attempt %d: expected rate limit error, got %v", i+2, err)
		}
	}
}

func TestSubmitBadNickname(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	set, _ := env.service.FetchQuestionSet(ctx)
	_, err := env.service.Submit(ctx, app.SubmitRequest{
		Nickname:     "total admin",
		Answers:      allCorrectAnswers(set),
		SessionToken: set.SessionToken,
		IP:           "10.0.0.1",
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for blocked nickname, got %v", err)
	}
}

func TestResultByShareToken(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	set, _ := env.service.FetchQuestionSet(ctx)
	saved, err := env.service.Submit(ctx, app.SubmitRequest{
		Nickname:     "Alice",
		Answers:      allCorrectAnswers(set),
		SessionToken: set.SessionToken,
		IP:           "10.0.0.1",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	fetched, err := env.service.ResultByShareToken(ctx, saved.ShareToken)
	if err != nil {
		t.Fatalf("fetch by share token: %v", err)
	}
	if fetched.ID != saved.ID || fetched.Score != saved.Score {
		t.Fatalf("expected the saved result back, got %+v", fetched.Result)
	}
	// Stored results rank against the current population: no self-bump.
	if fetched.Rank != 1 || fetched.TotalParticipants != 1 {
		t.Fatalf("expected rank 1 of 1, got %d of %d", fetched.Rank, fetched.TotalParticipants)
	}

	if _, err := env.service.ResultByShareToken(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not-found for unknown share token, got %v", err)
	}
}
