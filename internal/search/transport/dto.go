package transport

import "time"

type SearchRequest struct {
	Query           string `form:"q"`
	Limit           int    `form:"limit" validate:"omitempty,min=1,max=100"`
	Offset          int    `form:"offset" validate:"min=0"`
	SortBy          string `form:"sortBy"`    // "score", "title", "createdAt"; anything else keeps merge order
	SortOrder       string `form:"sortOrder"` // "asc" or "desc"
	IncludeArchived bool   `form:"includeArchived"`
}

type SearchResultMetadata struct {
	Status    *string   `json:"status,omitempty"`
	Priority  *string   `json:"priority,omitempty"`
	Assignee  *string   `json:"assignee,omitempty"`
	Project   *string   `json:"project,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type SearchResult struct {
	ID          string               `json:"id"`
	Title       string               `json:"title"`
	Description *string              `json:"description,omitempty"`
	Type        string               `json:"type"`
	URL         string               `json:"url"`
	Score       int                  `json:"score"`
	Highlights  []string             `json:"highlights"`
	Metadata    SearchResultMetadata `json:"metadata"`
}

type SearchAggregations struct {
	Types      map[string]int `json:"types"`
	Statuses   map[string]int `json:"statuses"`
	Priorities map[string]int `json:"priorities"`
	Projects   map[string]int `json:"projects"`
}

type SearchResponse struct {
	Results      []SearchResult     `json:"results"`
	Total        int                `json:"total"`
	Aggregations SearchAggregations `json:"aggregations"`
	Suggestions  []string           `json:"suggestions"`
	Took         int64              `json:"took"`
}

type RecentSearchesResponse struct {
	Items []string `json:"items"`
}

type SearchMissesRequest struct {
	Days     int `form:"days" validate:"omitempty,min=1,max=365"`
	MinCount int `form:"minCount" validate:"omitempty,min=1"`
	Limit    int `form:"limit" validate:"omitempty,min=1,max=200"`
}

type SearchMiss struct {
	Query       string    `json:"query"`
	SearchCount int       `json:"searchCount"`
	UserCount   int       `json:"userCount"`
	LastSeenAt  time.Time `json:"lastSeenAt"`
}

type SearchMissesResponse struct {
	Items []SearchMiss `json:"items"`
}
