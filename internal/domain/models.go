package domain

import "time"

// Category identifies the cognitive domain a question exercises.
type Category string

const (
	CategoryNumerical Category = "numerical"
	CategoryVerbal    Category = "verbal"
	CategoryReflex    Category = "reflex"
	CategorySpatial   Category = "spatial"
	CategoryPattern   Category = "pattern"
)

// CategoryOrder is the fixed presentation order of a question set. It is
// deliberately non-alphabetic: the sequence paces the test from numeric
// reasoning through pattern logic.
var CategoryOrder = []Category{
	CategoryNumerical,
	CategoryVerbal,
	CategoryReflex,
	CategorySpatial,
	CategoryPattern,
}

// NoAnswer is the sentinel a client sends for a skipped or timed-out
// question. It never matches a real option index.
const NoAnswer = -1

// Question is a single multiple-choice item. Everything except the two
// attempt counters is immutable; the counters are only ever incremented
// through the storage layer's bulk increment operations.
type Question struct {
	ID            int64    `json:"id"`
	Content       string   `json:"content"`
	Options       []string `json:"options"`    // order-significant
	Answer        int      `json:"answer"`     // index into Options
	Difficulty    int      `json:"difficulty"` // 1..3
	OrderNum      int      `json:"orderNum"`
	Category      Category `json:"category"`
	CorrectCount  int      `json:"correctCount"`
	TotalAttempts int      `json:"totalAttempts"`
	Explanation   string   `json:"explanation,omitempty"`
}

// CorrectRate reports the aggregate percentage of correct attempts with
// one decimal place, or (0, false) while the question is unattempted.
func (q Question) CorrectRate() (float64, bool) {
	if q.TotalAttempts == 0 {
		return 0, false
	}
	rate := float64(q.CorrectCount) / float64(q.TotalAttempts)
	return float64(int64(rate*1000+0.5)) / 10, true
}

// AnswerItem pairs a question with the option index the client chose.
type AnswerItem struct {
	QuestionID int64 `json:"questionId"`
	Answer     int   `json:"answer"`
}

// Result is one accepted submission. Immutable once saved.
type Result struct {
	ID           int64     `json:"id"`
	ShareToken   string    `json:"shareToken"`
	Nickname     string    `json:"nickname"`
	Score        int       `json:"score"`
	CorrectCount int       `json:"correctCount"`
	TimeSeconds  int       `json:"timeSeconds"`
	EstimatedIQ  int       `json:"estimatedIq"`
	IPAddress    string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// RankInfo is derived at query time, never stored.
type RankInfo struct {
	Rank              int     `json:"rank"`
	TotalParticipants int     `json:"totalParticipants"`
	TopPercent        float64 `json:"topPercent"`
}

// QuestionFeedback tells the client how one answer fared.
type QuestionFeedback struct {
	QuestionID    int64    `json:"questionId"`
	UserAnswer    int      `json:"userAnswer"`
	CorrectAnswer int      `json:"correctAnswer"`
	Correct       bool     `json:"isCorrect"`
	Category      Category `json:"category"`
}

// ScoredResult is the submit/share-link response: the stored result plus
// its rank and, for a fresh submission, per-question feedback.
type ScoredResult struct {
	Result
	RankInfo
	AnswerFeedback []QuestionFeedback `json:"answerFeedback,omitempty"`
}

// RankingEntry is one leaderboard row.
type RankingEntry struct {
	Rank         int    `json:"rank"`
	Nickname     string `json:"nickname"`
	Score        int    `json:"score"`
	CorrectCount int    `json:"correctCount"`
	TimeSeconds  int    `json:"timeSeconds"`
	EstimatedIQ  int    `json:"estimatedIq"`
}

// PercentileEntry is a sampled row standing in for a target percentile,
// distinct from the literal top-N block.
type PercentileEntry struct {
	TopPercent int `json:"topPercent"`
	RankingEntry
}

// Leaderboard is the deduplicated ranking view.
type Leaderboard struct {
	TopEntries        []RankingEntry    `json:"topEntries"`
	PercentileEntries []PercentileEntry `json:"percentileEntries"`
	TotalCount        int               `json:"totalCount"`
}

// QuestionView is a question as presented to a client: the answer key is
// withheld and the aggregate correct rate attached (nil while the
// question is unattempted).
type QuestionView struct {
	ID          int64    `json:"id"`
	Content     string   `json:"content"`
	Options     []string `json:"options"`
	Difficulty  int      `json:"difficulty"`
	OrderNum    int      `json:"orderNum"`
	Category    Category `json:"category"`
	CorrectRate *float64 `json:"correctRate"`
	Explanation string   `json:"explanation,omitempty"`
}

// View strips the answer key from q and attaches its correct rate.
func (q Question) View() QuestionView {
	view := QuestionView{
		ID:          q.ID,
		Content:     q.Content,
		Options:     q.Options,
		Difficulty:  q.Difficulty,
		OrderNum:    q.OrderNum,
		Category:    q.Category,
		Explanation: q.Explanation,
	}
	if rate, ok := q.CorrectRate(); ok {
		view.CorrectRate = &rate
	}
	return view
}

// QuestionSet is the response to a question fetch: the drawn questions
// plus the session token anchoring the attempt's start time.
type QuestionSet struct {
	SessionToken string         `json:"sessionToken"`
	Questions    []QuestionView `json:"questions"`
}

// Feedback is a free-text note from a visitor.
type Feedback struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	IPAddress string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}
