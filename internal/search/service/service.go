package service

import (
	"context"
	"fmt"
	"slices"
	"time"
	"unicode/utf8"

	"kanvaro_backend/internal/search/repository"
	"kanvaro_backend/internal/search/transport"
	"kanvaro_backend/platform/apperr"
	"kanvaro_backend/platform/logger"
	"kanvaro_backend/platform/sanitize"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	minQueryLength    = 2
	backgroundTimeout = 2 * time.Second
	msgSearchFailed   = "Search failed"
)

// CandidateFetcher loads raw candidates for one entity type.
type CandidateFetcher interface {
	FetchCandidates(ctx context.Context, entityType repository.EntityType, params repository.FetchParams) ([]repository.Candidate, error)
}

// MissLister reads aggregated zero-result searches.
type MissLister interface {
	ListFrequentSearchMisses(ctx context.Context, lookbackDays int, minCount int, limit int) ([]repository.SearchMissSummary, error)
}

// SearchLogEntry describes one completed search for analytics.
type SearchLogEntry struct {
	UserID      uuid.UUID
	Query       string
	SearchText  string
	ResultCount int
	TopScore    *int
	TookMs      int64
}

// SearchRecorder persists search analytics, usually asynchronously.
type SearchRecorder interface {
	RecordSearch(ctx context.Context, entry SearchLogEntry) error
}

// History stores the recent queries of each user.
type History interface {
	Push(ctx context.Context, userID uuid.UUID, query string) error
	List(ctx context.Context, userID uuid.UUID) ([]string, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

// Options tunes the search endpoint.
type Options struct {
	DefaultLimit int
	MaxLimit     int
	// PartialResults logs and skips entity types whose fetch fails instead
	// of failing the whole request.
	PartialResults bool
}

type Service struct {
	fetcher  CandidateFetcher
	misses   MissLister
	recorder SearchRecorder
	history  History
	opts     Options
	log      *logger.Logger
	sf       singleflight.Group
}

func New(fetcher CandidateFetcher, misses MissLister, opts Options, log *logger.Logger) *Service {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 20
	}
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = 100
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{fetcher: fetcher, misses: misses, opts: opts, log: log}
}

// SetRecorder wires the analytics recorder. A nil recorder disables logging.
func (s *Service) SetRecorder(recorder SearchRecorder) {
	s.recorder = recorder
}

// SetHistory wires the recent-search store. A nil store disables history.
func (s *Service) SetHistory(history History) {
	s.history = history
}

// Search runs a multi-entity search for userID.
func (s *Service) Search(ctx context.Context, userID uuid.UUID, req transport.SearchRequest) (*transport.SearchResponse, error) {
	start := time.Now()

	if utf8.RuneCountInString(req.Query) < minQueryLength {
		resp := emptyResponse()
		resp.Took = time.Since(start).Milliseconds()
		return resp, nil
	}

	parsed := ParseQuery(req.Query)
	params := repository.FetchParams{
		Text:            parsed.SearchText,
		Statuses:        parsed.Filters.Statuses,
		Priorities:      parsed.Filters.Priorities,
		IncludeArchived: req.IncludeArchived,
		Limit:           s.normalizeLimit(req.Limit),
		Offset:          max(req.Offset, 0),
	}

	candidates, err := s.fetchAll(ctx, selectTypes(parsed.Filters.Types), params)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, msgSearchFailed, err).WithOp("search.Search")
	}

	scored := make([]ScoredResult, 0, len(candidates))
	for _, c := range candidates {
		score := Score(parsed.SearchText, c.Label)
		if score == ScoreNone {
			continue
		}
		scored = append(scored, ScoredResult{
			Candidate:  c,
			Score:      score,
			Highlights: Highlights(parsed.SearchText, c.Label),
			URL:        buildURL(c.Type, c.ID.String()),
		})
	}
	topScore := maxScore(scored)

	sortBy := req.SortBy
	if sortBy == "" {
		sortBy = SortByScore
	}

	assembled := Assemble(scored, AssembleOptions{
		SortBy:    sortBy,
		SortOrder: req.SortOrder,
		Limit:     params.Limit,
		RawQuery:  req.Query,
	})

	resp := toResponse(assembled)
	resp.Took = time.Since(start).Milliseconds()

	s.log.WithContext(ctx).SearchPerformed(req.Query, resp.Total, resp.Took)
	s.recordAsync(ctx, userID, SearchLogEntry{
		UserID:      userID,
		Query:       req.Query,
		SearchText:  parsed.SearchText,
		ResultCount: resp.Total,
		TopScore:    topScore,
		TookMs:      resp.Took,
	})

	return resp, nil
}

// fetchAll queries every selected entity type concurrently. Results are
// joined in the order of types regardless of completion order.
func (s *Service) fetchAll(ctx context.Context, types []repository.EntityType, params repository.FetchParams) ([]repository.Candidate, error) {
	slots := make([][]repository.Candidate, len(types))

	g, gctx := errgroup.WithContext(ctx)
	for i, et := range types {
		g.Go(func() error {
			items, err := s.fetcher.FetchCandidates(gctx, et, params)
			if err != nil {
				if s.opts.PartialResults {
					s.log.WithContext(ctx).Warn("search fetch failed, skipping entity type",
						"entity_type", string(et), "error", err)
					return nil
				}
				return fmt.Errorf("fetch %s: %w", et, err)
			}
			slots[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make([]repository.Candidate, 0)
	for _, items := range slots {
		merged = append(merged, items...)
	}
	return merged, nil
}

func (s *Service) normalizeLimit(limit int) int {
	if limit <= 0 {
		return s.opts.DefaultLimit
	}
	if limit > s.opts.MaxLimit {
		return s.opts.MaxLimit
	}
	return limit
}

// recordAsync writes history and analytics off the request path. Failures
// are logged only.
func (s *Service) recordAsync(ctx context.Context, userID uuid.UUID, entry SearchLogEntry) {
	if s.history == nil && s.recorder == nil {
		return
	}

	log := s.log.WithContext(ctx)
	bgCtx := context.WithoutCancel(ctx)

	go func() {
		ctx, cancel := context.WithTimeout(bgCtx, backgroundTimeout)
		defer cancel()

		if s.history != nil && userID != uuid.Nil {
			if err := s.history.Push(ctx, userID, entry.Query); err != nil {
				log.Warn("failed to store recent search", "error", err)
			}
		}
		if s.recorder != nil {
			if err := s.recorder.RecordSearch(ctx, entry); err != nil {
				log.Warn("failed to record search log", "error", err)
			}
		}
	}()
}

// RecentSearches returns the caller's most recent queries, newest first.
func (s *Service) RecentSearches(ctx context.Context, userID uuid.UUID) (*transport.RecentSearchesResponse, error) {
	if s.history == nil {
		return &transport.RecentSearchesResponse{Items: []string{}}, nil
	}

	items, err := s.history.List(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load recent searches", err).WithOp("search.RecentSearches")
	}
	if items == nil {
		items = []string{}
	}
	return &transport.RecentSearchesResponse{Items: items}, nil
}

// ClearRecentSearches forgets the caller's recent queries.
func (s *Service) ClearRecentSearches(ctx context.Context, userID uuid.UUID) error {
	if s.history == nil {
		return nil
	}
	if err := s.history.Clear(ctx, userID); err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to clear recent searches", err).WithOp("search.ClearRecentSearches")
	}
	return nil
}

// ListSearchMisses reports queries that keep returning nothing. Concurrent
// identical requests share one database round trip.
func (s *Service) ListSearchMisses(ctx context.Context, req transport.SearchMissesRequest) (*transport.SearchMissesResponse, error) {
	if s.misses == nil {
		return &transport.SearchMissesResponse{Items: []transport.SearchMiss{}}, nil
	}

	key := fmt.Sprintf("%d:%d:%d", req.Days, req.MinCount, req.Limit)
	v, err, _ := s.sf.Do(key, func() (interface{}, error) {
		return s.misses.ListFrequentSearchMisses(ctx, req.Days, req.MinCount, req.Limit)
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list search misses", err).WithOp("search.ListSearchMisses")
	}

	rows, ok := v.([]repository.SearchMissSummary)
	if !ok {
		return nil, apperr.Internal("failed to list search misses").WithOp("search.ListSearchMisses")
	}

	items := make([]transport.SearchMiss, len(rows))
	for i, r := range rows {
		items[i] = transport.SearchMiss{
			Query:       r.Query,
			SearchCount: r.SearchCount,
			UserCount:   r.UserCount,
			LastSeenAt:  r.LastSeenAt,
		}
	}
	return &transport.SearchMissesResponse{Items: items}, nil
}

// selectTypes narrows the fetchable types to those named in filter. An
// empty filter selects all of them.
func selectTypes(filter []string) []repository.EntityType {
	if len(filter) == 0 {
		return repository.FetchableTypes
	}

	out := make([]repository.EntityType, 0, len(filter))
	for _, et := range repository.FetchableTypes {
		if slices.Contains(filter, string(et)) {
			out = append(out, et)
		}
	}
	return out
}

func maxScore(results []ScoredResult) *int {
	if len(results) == 0 {
		return nil
	}
	top := results[0].Score
	for _, r := range results[1:] {
		top = max(top, r.Score)
	}
	return &top
}

func emptyResponse() *transport.SearchResponse {
	return &transport.SearchResponse{
		Results: []transport.SearchResult{},
		Total:   0,
		Aggregations: transport.SearchAggregations{
			Types:      map[string]int{},
			Statuses:   map[string]int{},
			Priorities: map[string]int{},
			Projects:   map[string]int{},
		},
		Suggestions: []string{},
	}
}

func toResponse(a Assembled) *transport.SearchResponse {
	results := make([]transport.SearchResult, len(a.Results))
	for i, r := range a.Results {
		c := r.Candidate
		results[i] = transport.SearchResult{
			ID:          c.ID.String(),
			Title:       c.Label,
			Description: sanitize.TextPtr(c.Description),
			Type:        string(c.Type),
			URL:         r.URL,
			Score:       r.Score,
			Highlights:  r.Highlights,
			Metadata: transport.SearchResultMetadata{
				Status:    c.Status,
				Priority:  c.Priority,
				Assignee:  c.Assignee,
				Project:   c.Project,
				CreatedAt: c.CreatedAt,
				UpdatedAt: c.UpdatedAt,
			},
		}
	}

	return &transport.SearchResponse{
		Results: results,
		Total:   a.Total,
		Aggregations: transport.SearchAggregations{
			Types:      a.Aggregations.Types,
			Statuses:   a.Aggregations.Statuses,
			Priorities: a.Aggregations.Priorities,
			Projects:   a.Aggregations.Projects,
		},
		Suggestions: a.Suggestions,
	}
}
