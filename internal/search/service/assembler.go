package service

import (
	"slices"

	"kanvaro_backend/internal/search/repository"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const (
	SortByScore     = "score"
	SortByTitle     = "title"
	SortByCreatedAt = "createdAt"

	SortOrderAsc = "asc"
)

// ScoredResult is a candidate that passed scoring.
type ScoredResult struct {
	Candidate  repository.Candidate
	Score      int
	Highlights []string
	URL        string
}

// Aggregations counts results per facet over the full result list.
type Aggregations struct {
	Types      map[string]int
	Statuses   map[string]int
	Priorities map[string]int
	Projects   map[string]int
}

// AssembleOptions controls ordering and page size.
type AssembleOptions struct {
	SortBy    string
	SortOrder string
	Limit     int
	RawQuery  string
}

// Assembled is the merged, sorted and truncated result page.
type Assembled struct {
	Results      []ScoredResult
	Total        int
	Aggregations Aggregations
	Suggestions  []string
}

// Assemble sorts results in place, computes facets over all of them and
// returns the first opts.Limit entries.
func Assemble(results []ScoredResult, opts AssembleOptions) Assembled {
	sortResults(results, opts.SortBy, opts.SortOrder)

	page := results
	if opts.Limit >= 0 && len(page) > opts.Limit {
		page = page[:opts.Limit]
	}

	return Assembled{
		Results:      page,
		Total:        len(results),
		Aggregations: aggregate(results),
		Suggestions:  suggestions(opts.RawQuery),
	}
}

// sortResults orders results stably. Any order other than "asc" is
// descending; an unknown key leaves merge order untouched.
func sortResults(results []ScoredResult, sortBy, sortOrder string) {
	var cmp func(a, b ScoredResult) int

	switch sortBy {
	case SortByScore:
		cmp = func(a, b ScoredResult) int { return a.Score - b.Score }
	case SortByTitle:
		col := collate.New(language.Und, collate.IgnoreCase)
		cmp = func(a, b ScoredResult) int { return col.CompareString(a.Candidate.Label, b.Candidate.Label) }
	case SortByCreatedAt:
		cmp = func(a, b ScoredResult) int { return a.Candidate.CreatedAt.Compare(b.Candidate.CreatedAt) }
	default:
		return
	}

	if sortOrder != SortOrderAsc {
		asc := cmp
		cmp = func(a, b ScoredResult) int { return asc(b, a) }
	}

	slices.SortStableFunc(results, cmp)
}

func aggregate(results []ScoredResult) Aggregations {
	agg := Aggregations{
		Types:      map[string]int{},
		Statuses:   map[string]int{},
		Priorities: map[string]int{},
		Projects:   map[string]int{},
	}

	for _, r := range results {
		c := r.Candidate
		agg.Types[string(c.Type)]++
		countPresent(agg.Statuses, c.Status)
		countPresent(agg.Priorities, c.Priority)
		countPresent(agg.Projects, c.Project)
	}

	return agg
}

func countPresent(counts map[string]int, v *string) {
	if v != nil && *v != "" {
		counts[*v]++
	}
}

// suggestions returns the fixed query-expansion templates for q, minus any
// that would repeat q verbatim.
func suggestions(q string) []string {
	candidates := []string{
		"type:" + q,
		"status:active " + q,
		"priority:high " + q,
		"project:" + q,
	}

	out := make([]string, 0, len(candidates))
	for _, s := range candidates {
		if s != q {
			out = append(out, s)
		}
	}
	return out
}

// buildURL returns the frontend route for an entity.
func buildURL(entityType repository.EntityType, id string) string {
	switch entityType {
	case repository.EntityProject:
		return "/projects/" + id
	case repository.EntityTask:
		return "/tasks/" + id
	case repository.EntityStory:
		return "/stories/" + id
	case repository.EntityEpic:
		return "/epics/" + id
	case repository.EntitySprint:
		return "/sprints/" + id
	case repository.EntityUser:
		return "/users/" + id
	default:
		return "/"
	}
}
