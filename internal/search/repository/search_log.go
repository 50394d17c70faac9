package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type CreateSearchLogParams struct {
	UserID      *uuid.UUID
	Query       string
	SearchText  string
	ResultCount int
	TopScore    *int
	TookMs      int64
	CreatedAt   *time.Time // optional override (normally server-side now())
}

// SearchMissSummary aggregates frequent searches with 0 results.
type SearchMissSummary struct {
	Query       string
	SearchCount int
	UserCount   int
	LastSeenAt  time.Time
}

func (r *Repository) CreateSearchLog(ctx context.Context, params CreateSearchLogParams) error {
	if params.Query == "" {
		return fmt.Errorf("query is required")
	}
	if params.ResultCount < 0 {
		return fmt.Errorf("result_count cannot be negative")
	}

	if params.CreatedAt == nil {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO search_logs (user_id, query, search_text, result_count, top_score, took_ms)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, params.UserID, params.Query, params.SearchText, params.ResultCount, params.TopScore, params.TookMs)
		if err != nil {
			return fmt.Errorf("insert search log: %w", err)
		}
		return nil
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO search_logs (user_id, query, search_text, result_count, top_score, took_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, params.UserID, params.Query, params.SearchText, params.ResultCount, params.TopScore, params.TookMs, *params.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert search log: %w", err)
	}
	return nil
}

// ListFrequentSearchMisses returns distinct queries that repeatedly produced
// 0 results within the lookback window.
func (r *Repository) ListFrequentSearchMisses(ctx context.Context, lookbackDays int, minCount int, limit int) ([]SearchMissSummary, error) {
	if lookbackDays <= 0 {
		lookbackDays = 14
	}
	if minCount <= 0 {
		minCount = 3
	}
	if limit <= 0 {
		limit = 25
	}

	// Normalize case and whitespace; MIN(query) is kept as the representative.
	rows, err := r.pool.Query(ctx, `
		WITH misses AS (
			SELECT
				LOWER(REGEXP_REPLACE(TRIM(query), '\s+', ' ', 'g')) AS qnorm,
				query,
				user_id,
				created_at
			FROM search_logs
			WHERE result_count = 0
				AND created_at >= (NOW() - ($1::int || ' days')::interval)
		)
		SELECT
			MIN(query) AS representative_query,
			COUNT(*)::int AS cnt,
			COUNT(DISTINCT user_id)::int AS users,
			MAX(created_at) AS last_seen
		FROM misses
		GROUP BY qnorm
		HAVING COUNT(*) >= $2
		ORDER BY cnt DESC, last_seen DESC
		LIMIT $3
	`, lookbackDays, minCount, limit)
	if err != nil {
		return nil, fmt.Errorf("query search misses: %w", err)
	}
	defer rows.Close()

	items := make([]SearchMissSummary, 0)
	for rows.Next() {
		var it SearchMissSummary
		if err := rows.Scan(&it.Query, &it.SearchCount, &it.UserCount, &it.LastSeenAt); err != nil {
			return nil, fmt.Errorf("scan search miss summary: %w", err)
		}
		items = append(items, it)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate search miss summaries: %w", rows.Err())
	}

	return items, nil
}

// DeleteSearchLogsBefore removes log rows older than cutoff and returns how
// many were deleted.
func (r *Repository) DeleteSearchLogsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM search_logs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete search logs: %w", err)
	}
	return tag.RowsAffected(), nil
}
