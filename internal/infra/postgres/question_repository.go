package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"iq-quiz-service/internal/domain"
)

const questionColumns = `id, content, options, answer, difficulty, order_num, category, correct_count, total_attempts, COALESCE(explanation, '')`

// QuestionRepository reads the question bank from Postgres and applies
// the bulk counter updates. The increments are single UPDATE statements,
// so concurrent submissions touching the same question cannot lose
// updates.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

func (r *QuestionRepository) FindAll(ctx context.Context) ([]domain.Question, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+questionColumns+` FROM questions ORDER BY order_num ASC`)
	if err != nil {
		return nil, fmt.Errorf("find all questions: %w", err)
	}
	defer rows.Close()
	return scanQuestions(rows)
}

func (r *QuestionRepository) FindByIDs(ctx context.Context, ids []int64) ([]domain.Question, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+questionColumns+` FROM questions WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("find questions by ids: %w", err)
	}
	defer rows.Close()
	return scanQuestions(rows)
}

func (r *QuestionRepository) IncrementTotalAttempts(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx, `UPDATE questions SET total_attempts = total_attempts + 1 WHERE id = ANY($1)`, ids)
	if err != nil {
		return fmt.Errorf("increment total attempts: %w", err)
	}
	return nil
}

func (r *QuestionRepository) IncrementCorrectCounts(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx, `UPDATE questions SET correct_count = correct_count + 1 WHERE id = ANY($1)`, ids)
	if err != nil {
		return fmt.Errorf("increment correct counts: %w", err)
	}
	return nil
}

func scanQuestions(rows pgx.Rows) ([]domain.Question, error) {
	var out []domain.Question
	for rows.Next() {
		var q domain.Question
		var options []byte
		if err := rows.Scan(&q.ID, &q.Content, &options, &q.Answer, &q.Difficulty, &q.OrderNum, &q.Category, &q.CorrectCount, &q.TotalAttempts, &q.Explanation); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if err := json.Unmarshal(options, &q.Options); err != nil {
			return nil, fmt.Errorf("unmarshal options for question %d: %w", q.ID, err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}
