package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"kanvaro_backend/internal/search/repository"
	"kanvaro_backend/internal/search/transport"
	"kanvaro_backend/platform/apperr"
	"kanvaro_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	mu       sync.Mutex
	byType   map[repository.EntityType][]repository.Candidate
	failures map[repository.EntityType]error
	calls    map[repository.EntityType]repository.FetchParams
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		byType:   map[repository.EntityType][]repository.Candidate{},
		failures: map[repository.EntityType]error{},
		calls:    map[repository.EntityType]repository.FetchParams{},
	}
}

func (f *fakeFetcher) add(et repository.EntityType, label string) repository.Candidate {
	c := repository.Candidate{Type: et, ID: uuid.New(), Label: label, CreatedAt: time.Now()}
	f.byType[et] = append(f.byType[et], c)
	return c
}

func (f *fakeFetcher) FetchCandidates(_ context.Context, et repository.EntityType, params repository.FetchParams) ([]repository.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[et] = params
	if err := f.failures[et]; err != nil {
		return nil, err
	}
	return f.byType[et], nil
}

func (f *fakeFetcher) called() []repository.EntityType {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]repository.EntityType, 0, len(f.calls))
	for _, et := range repository.FetchableTypes {
		if _, ok := f.calls[et]; ok {
			out = append(out, et)
		}
	}
	return out
}

type fakeHistory struct {
	mu      sync.Mutex
	pushed  []string
	items   []string
	cleared bool
	err     error
}

func (h *fakeHistory) Push(_ context.Context, _ uuid.UUID, q string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pushed = append(h.pushed, q)
	return h.err
}

func (h *fakeHistory) List(context.Context, uuid.UUID) ([]string, error) {
	return h.items, h.err
}

func (h *fakeHistory) Clear(context.Context, uuid.UUID) error {
	h.cleared = true
	return h.err
}

func (h *fakeHistory) pushedCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.pushed)
}

type fakeRecorder struct {
	mu      sync.Mutex
	entries []SearchLogEntry
}

func (r *fakeRecorder) RecordSearch(_ context.Context, e SearchLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

func (r *fakeRecorder) snapshot() []SearchLogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]SearchLogEntry(nil), r.entries...)
}

type fakeMisses struct {
	rows []repository.SearchMissSummary
	err  error
}

func (m fakeMisses) ListFrequentSearchMisses(context.Context, int, int, int) ([]repository.SearchMissSummary, error) {
	return m.rows, m.err
}

func newTestService(f CandidateFetcher, opts Options) *Service {
	return New(f, nil, opts, logger.Nop())
}

func TestSearch_ShortQueryShortCircuits(t *testing.T) {
	for _, q := range []string{"", "a", "é"} {
		f := newFakeFetcher()
		svc := newTestService(f, Options{})

		resp, err := svc.Search(context.Background(), uuid.New(), transport.SearchRequest{Query: q})
		require.NoError(t, err)

		assert.Empty(t, resp.Results)
		assert.NotNil(t, resp.Results)
		assert.Zero(t, resp.Total)
		assert.Empty(t, resp.Aggregations.Types)
		assert.Empty(t, resp.Aggregations.Statuses)
		assert.Empty(t, resp.Aggregations.Priorities)
		assert.Empty(t, resp.Aggregations.Projects)
		assert.Empty(t, resp.Suggestions)
		assert.GreaterOrEqual(t, resp.Took, int64(0))
		assert.Empty(t, f.called(), "no fetch for %q", q)
	}
}

func TestSearch_TypeFilterAndSubstringScore(t *testing.T) {
	f := newFakeFetcher()
	task := f.add(repository.EntityTask, "Login bug")
	f.add(repository.EntityProject, "bug tracker")

	svc := newTestService(f, Options{})
	resp, err := svc.Search(context.Background(), uuid.New(), transport.SearchRequest{Query: "bug type:task"})
	require.NoError(t, err)

	assert.Equal(t, []repository.EntityType{repository.EntityTask}, f.called())
	assert.Equal(t, "bug", f.calls[repository.EntityTask].Text)

	require.Len(t, resp.Results, 1)
	r := resp.Results[0]
	assert.Equal(t, task.ID.String(), r.ID)
	assert.Equal(t, ScoreSubstring, r.Score)
	assert.Equal(t, []string{"bug"}, r.Highlights)
	assert.Equal(t, "/tasks/"+task.ID.String(), r.URL)
	assert.Equal(t, "task", r.Type)
	assert.NotContains(t, resp.Suggestions, "bug type:task")
}

func TestSearch_UserFullNameFuzzyIsZero(t *testing.T) {
	f := newFakeFetcher()
	f.add(repository.EntityUser, "John Smith")

	svc := newTestService(f, Options{})
	resp, err := svc.Search(context.Background(), uuid.New(), transport.SearchRequest{Query: "jon"})
	require.NoError(t, err)

	assert.Empty(t, resp.Results)
	assert.Zero(t, resp.Total)
}

func TestSearch_ExactOutranksOthersByDefault(t *testing.T) {
	f := newFakeFetcher()
	f.add(repository.EntityProject, "Roadmap review")
	f.add(repository.EntityTask, "Review roadmap draft")
	f.add(repository.EntityEpic, "roadmap")

	svc := newTestService(f, Options{})
	resp, err := svc.Search(context.Background(), uuid.New(), transport.SearchRequest{Query: "roadmap"})
	require.NoError(t, err)

	require.Len(t, resp.Results, 3)
	assert.Equal(t, "roadmap", resp.Results[0].Title)
	assert.Equal(t, ScoreExact, resp.Results[0].Score)
	assert.Equal(t, ScorePrefix, resp.Results[1].Score)
	assert.Equal(t, ScoreSubstring, resp.Results[2].Score)
	assert.Equal(t, 3, resp.Total)
}

func TestSearch_PassesFiltersAndPaging(t *testing.T) {
	f := newFakeFetcher()
	svc := newTestService(f, Options{DefaultLimit: 20, MaxLimit: 100})

	_, err := svc.Search(context.Background(), uuid.New(), transport.SearchRequest{
		Query:           "status:done priority:high deploy",
		Offset:          10,
		IncludeArchived: true,
	})
	require.NoError(t, err)

	assert.Len(t, f.called(), len(repository.FetchableTypes))
	p := f.calls[repository.EntityTask]
	assert.Equal(t, "deploy", p.Text)
	assert.Equal(t, []string{"done"}, p.Statuses)
	assert.Equal(t, []string{"high"}, p.Priorities)
	assert.Equal(t, 20, p.Limit)
	assert.Equal(t, 10, p.Offset)
	assert.True(t, p.IncludeArchived)
}

func TestSearch_LimitClampedAndTotalPreTruncation(t *testing.T) {
	f := newFakeFetcher()
	for range 3 {
		f.add(repository.EntityTask, "deploy pipeline")
		f.add(repository.EntityStory, "deploy pipeline")
	}

	svc := newTestService(f, Options{DefaultLimit: 20, MaxLimit: 2})
	resp, err := svc.Search(context.Background(), uuid.New(), transport.SearchRequest{Query: "deploy", Limit: 50})
	require.NoError(t, err)

	assert.Equal(t, 2, f.calls[repository.EntityTask].Limit)
	assert.Len(t, resp.Results, 2)
	assert.Equal(t, 6, resp.Total)
	assert.Equal(t, map[string]int{"task": 3, "story": 3}, resp.Aggregations.Types)
}

func TestSearch_FetchFailureFailsRequest(t *testing.T) {
	f := newFakeFetcher()
	f.add(repository.EntityTask, "deploy")
	f.failures[repository.EntityUser] = errors.New("connection reset")

	svc := newTestService(f, Options{})
	resp, err := svc.Search(context.Background(), uuid.New(), transport.SearchRequest{Query: "deploy"})

	require.Error(t, err)
	assert.Nil(t, resp)
	assert.True(t, apperr.Is(err, apperr.KindInternal))

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Search failed", appErr.Message)
}

func TestSearch_PartialResultsSkipsFailedType(t *testing.T) {
	f := newFakeFetcher()
	f.add(repository.EntityTask, "deploy")
	f.failures[repository.EntityUser] = errors.New("connection reset")

	svc := newTestService(f, Options{PartialResults: true})
	resp, err := svc.Search(context.Background(), uuid.New(), transport.SearchRequest{Query: "deploy"})

	require.NoError(t, err)
	assert.Equal(t, 1, resp.Total)
}

func TestSearch_MergeOrderIsDeterministic(t *testing.T) {
	f := newFakeFetcher()
	f.add(repository.EntityUser, "alpha user")
	f.add(repository.EntityProject, "alpha project")
	f.add(repository.EntityEpic, "alpha epic")

	svc := newTestService(f, Options{})
	resp, err := svc.Search(context.Background(), uuid.New(), transport.SearchRequest{Query: "alpha", SortBy: "none"})
	require.NoError(t, err)

	got := make([]string, len(resp.Results))
	for i, r := range resp.Results {
		got[i] = r.Type
	}
	assert.Equal(t, []string{"project", "epic", "user"}, got)
}

func TestSearch_RecordsHistoryAndLog(t *testing.T) {
	f := newFakeFetcher()
	f.add(repository.EntityTask, "Login bug")
	hist := &fakeHistory{}
	rec := &fakeRecorder{}
	userID := uuid.New()

	svc := newTestService(f, Options{})
	svc.SetHistory(hist)
	svc.SetRecorder(rec)

	_, err := svc.Search(context.Background(), userID, transport.SearchRequest{Query: "bug type:task"})
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return len(rec.snapshot()) == 1 && hist.pushedCount() == 1 },
		time.Second, 10*time.Millisecond)

	entry := rec.snapshot()[0]
	assert.Equal(t, userID, entry.UserID)
	assert.Equal(t, "bug type:task", entry.Query)
	assert.Equal(t, "bug", entry.SearchText)
	assert.Equal(t, 1, entry.ResultCount)
	require.NotNil(t, entry.TopScore)
	assert.Equal(t, ScoreSubstring, *entry.TopScore)
}

func TestSearch_ShortQueryNotRecorded(t *testing.T) {
	rec := &fakeRecorder{}
	svc := newTestService(newFakeFetcher(), Options{})
	svc.SetRecorder(rec)

	_, err := svc.Search(context.Background(), uuid.New(), transport.SearchRequest{Query: "x"})
	require.NoError(t, err)

	assert.Never(t, func() bool { return len(rec.snapshot()) > 0 }, 50*time.Millisecond, 10*time.Millisecond)
}

func TestRecentSearches(t *testing.T) {
	svc := newTestService(newFakeFetcher(), Options{})

	resp, err := svc.RecentSearches(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, []string{}, resp.Items)

	hist := &fakeHistory{items: []string{"deploy", "login bug"}}
	svc.SetHistory(hist)
	resp, err = svc.RecentSearches(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, []string{"deploy", "login bug"}, resp.Items)

	require.NoError(t, svc.ClearRecentSearches(context.Background(), uuid.New()))
	assert.True(t, hist.cleared)

	hist.err = errors.New("redis down")
	_, err = svc.RecentSearches(context.Background(), uuid.New())
	assert.True(t, apperr.Is(err, apperr.KindInternal))
}

func TestListSearchMisses(t *testing.T) {
	seen := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := New(newFakeFetcher(), fakeMisses{rows: []repository.SearchMissSummary{
		{Query: "invoice", SearchCount: 7, UserCount: 3, LastSeenAt: seen},
	}}, Options{}, nil)

	resp, err := svc.ListSearchMisses(context.Background(), transport.SearchMissesRequest{})
	require.NoError(t, err)
	assert.Equal(t, []transport.SearchMiss{{Query: "invoice", SearchCount: 7, UserCount: 3, LastSeenAt: seen}}, resp.Items)

	failing := New(newFakeFetcher(), fakeMisses{err: errors.New("boom")}, Options{}, nil)
	_, err = failing.ListSearchMisses(context.Background(), transport.SearchMissesRequest{})
	assert.True(t, apperr.Is(err, apperr.KindInternal))
}

func TestSearch_DescriptionIsPlainText(t *testing.T) {
	f := newFakeFetcher()
	rich := "<p>Users can't <b>log in</b> &amp; see a 500</p>"
	blank := "<p></p>"
	f.byType[repository.EntityTask] = []repository.Candidate{
		{Type: repository.EntityTask, ID: uuid.New(), Label: "Login bug", Description: &rich, CreatedAt: time.Now()},
		{Type: repository.EntityTask, ID: uuid.New(), Label: "Login page", Description: &blank, CreatedAt: time.Now()},
	}

	svc := newTestService(f, Options{})
	resp, err := svc.Search(context.Background(), uuid.New(), transport.SearchRequest{Query: "login bug"})
	require.NoError(t, err)

	require.NotEmpty(t, resp.Results)
	require.NotNil(t, resp.Results[0].Description)
	assert.Equal(t, "Users can't log in & see a 500", *resp.Results[0].Description)
	for _, r := range resp.Results[1:] {
		assert.Nil(t, r.Description)
	}
}
