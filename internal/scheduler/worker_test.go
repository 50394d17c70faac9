package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"kanvaro_backend/internal/search/repository"
	"kanvaro_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	params []repository.CreateSearchLogParams
	err    error
}

func (w *recordingWriter) CreateSearchLog(_ context.Context, p repository.CreateSearchLogParams) error {
	w.params = append(w.params, p)
	return w.err
}

func TestSearchLogParams(t *testing.T) {
	userID := uuid.New()
	at := time.Date(2025, 5, 1, 9, 30, 0, 0, time.UTC)

	params, err := searchLogParams(SearchLoggedPayload{
		UserID:      userID.String(),
		Query:       "deploy",
		SearchText:  "deploy",
		ResultCount: 0,
		TookMs:      4,
		SearchedAt:  at,
	})
	require.NoError(t, err)
	require.NotNil(t, params.UserID)
	assert.Equal(t, userID, *params.UserID)
	require.NotNil(t, params.CreatedAt)
	assert.Equal(t, at, *params.CreatedAt)
	assert.Nil(t, params.TopScore)

	anon, err := searchLogParams(SearchLoggedPayload{Query: "deploy"})
	require.NoError(t, err)
	assert.Nil(t, anon.UserID)
	assert.Nil(t, anon.CreatedAt)
}

func TestSearchLogParams_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		payload SearchLoggedPayload
	}{
		{"blank query", SearchLoggedPayload{Query: "  "}},
		{"negative count", SearchLoggedPayload{Query: "x", ResultCount: -1}},
		{"bad user id", SearchLoggedPayload{Query: "x", UserID: "nope"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := searchLogParams(tt.payload)
			assert.Error(t, err)
		})
	}
}

func TestHandleSearchLogged(t *testing.T) {
	writer := &recordingWriter{}
	w := &Worker{logs: writer, log: logger.Nop()}

	task, err := NewSearchLoggedTask(SearchLoggedPayload{Query: "roadmap", ResultCount: 2})
	require.NoError(t, err)

	require.NoError(t, w.handleSearchLogged(context.Background(), task))
	require.Len(t, writer.params, 1)
	assert.Equal(t, "roadmap", writer.params[0].Query)
	assert.Equal(t, 2, writer.params[0].ResultCount)
}

func TestHandleSearchLogged_MalformedPayloadSkipsRetry(t *testing.T) {
	w := &Worker{logs: &recordingWriter{}, log: logger.Nop()}

	err := w.handleSearchLogged(context.Background(), asynq.NewTask(TaskSearchLogged, []byte("not json")))
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleSearchLogged_WriterErrorIsRetried(t *testing.T) {
	writer := &recordingWriter{err: errors.New("db down")}
	w := &Worker{logs: writer, log: logger.Nop()}

	task, err := NewSearchLoggedTask(SearchLoggedPayload{Query: "roadmap"})
	require.NoError(t, err)

	err = w.handleSearchLogged(context.Background(), task)
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}
