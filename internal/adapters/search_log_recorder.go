package adapters

import (
	"context"
	"time"

	"kanvaro_backend/internal/scheduler"
	"kanvaro_backend/internal/search/service"

	"github.com/google/uuid"
)

// SearchLogRecorder adapts the scheduler client so the search service can
// record analytics without knowing about asynq.
type SearchLogRecorder struct {
	enqueuer scheduler.SearchLogEnqueuer
	now      func() time.Time
}

// NewSearchLogRecorder creates a new search log recorder adapter.
func NewSearchLogRecorder(enqueuer scheduler.SearchLogEnqueuer) *SearchLogRecorder {
	return &SearchLogRecorder{enqueuer: enqueuer, now: time.Now}
}

// RecordSearch enqueues a search.logged task.
func (a *SearchLogRecorder) RecordSearch(ctx context.Context, entry service.SearchLogEntry) error {
	payload := scheduler.SearchLoggedPayload{
		Query:       entry.Query,
		SearchText:  entry.SearchText,
		ResultCount: entry.ResultCount,
		TopScore:    entry.TopScore,
		TookMs:      entry.TookMs,
		SearchedAt:  a.now().UTC(),
	}
	if entry.UserID != uuid.Nil {
		payload.UserID = entry.UserID.String()
	}
	return a.enqueuer.EnqueueSearchLogged(ctx, payload)
}

// Compile-time check.
var _ service.SearchRecorder = (*SearchLogRecorder)(nil)
