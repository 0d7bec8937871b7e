package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"iq-quiz-service/internal/domain"
)

const resultColumns = `id, share_token, nickname, score, correct_count, time_seconds, estimated_iq, ip_address, created_at`

// ResultRepository persists submissions in Postgres.
type ResultRepository struct {
	pool *pgxpool.Pool
}

func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

func (r *ResultRepository) CountWithHigherScore(ctx context.Context, score int) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM test_results WHERE score > $1`, score).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count higher scores: %w", err)
	}
	return count, nil
}

func (r *ResultRepository) CountAll(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM test_results`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count results: %w", err)
	}
	return count, nil
}

func (r *ResultRepository) Save(ctx context.Context, result domain.Result) (domain.Result, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO test_results (share_token, nickname, score, correct_count, time_seconds, estimated_iq, ip_address, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		result.ShareToken, result.Nickname, result.Score, result.CorrectCount,
		result.TimeSeconds, result.EstimatedIQ, result.IPAddress, result.CreatedAt,
	).Scan(&result.ID)
	if err != nil {
		return domain.Result{}, fmt.Errorf("save result: %w", err)
	}
	return result, nil
}

func (r *ResultRepository) FindByShareToken(ctx context.Context, token string) (domain.Result, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+resultColumns+` FROM test_results WHERE share_token = $1`, token)
	result, err := scanResult(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Result{}, domain.NotFoundf("result not found")
	}
	if err != nil {
		return domain.Result{}, fmt.Errorf("find result by share token: %w", err)
	}
	return result, nil
}

func (r *ResultRepository) FindAllDedupedByIP(ctx context.Context) ([]domain.Result, error) {
	// One row per IP (best score, fastest tie-break), then global order
	// for the leaderboard.
	rows, err := r.pool.Query(ctx,
		`SELECT `+resultColumns+` FROM (
			SELECT DISTINCT ON (ip_address) `+resultColumns+`
			FROM test_results
			ORDER BY ip_address, score DESC, time_seconds ASC
		 ) deduped
		 ORDER BY score DESC, time_seconds ASC`)
	if err != nil {
		return nil, fmt.Errorf("find deduped results: %w", err)
	}
	defer rows.Close()

	var out []domain.Result
	for rows.Next() {
		result, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		out = append(out, result)
	}
	return out, rows.Err()
}

func scanResult(row pgx.Row) (domain.Result, error) {
	var result domain.Result
	err := row.Scan(&result.ID, &result.ShareToken, &result.Nickname, &result.Score,
		&result.CorrectCount, &result.TimeSeconds, &result.EstimatedIQ,
		&result.IPAddress, &result.CreatedAt)
	return result, err
}
