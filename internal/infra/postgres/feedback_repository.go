package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"iq-quiz-service/internal/domain"
)

// FeedbackRepository persists free-text feedback in Postgres.
type FeedbackRepository struct {
	pool *pgxpool.Pool
}

func NewFeedbackRepository(pool *pgxpool.Pool) *FeedbackRepository {
	return &FeedbackRepository{pool: pool}
}

func (r *FeedbackRepository) Save(ctx context.Context, fb domain.Feedback) (domain.Feedback, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO feedbacks (content, ip_address, created_at) VALUES ($1, $2, $3) RETURNING id`,
		fb.Content, fb.IPAddress, fb.CreatedAt,
	).Scan(&fb.ID)
	if err != nil {
		return domain.Feedback{}, fmt.Errorf("save feedback: %w", err)
	}
	return fb, nil
}
