package repository

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFetchQuery_TaskWithFilters(t *testing.T) {
	query, args, err := buildFetchQuery(EntityTask, FetchParams{
		Text:       "login",
		Statuses:   []string{"active"},
		Priorities: []string{"high"},
		Limit:      20,
		Offset:     40,
	})
	require.NoError(t, err)

	assert.Contains(t, query, "FROM tasks t")
	assert.Contains(t, query, "(t.title ILIKE $1 OR t.description ILIKE $1)")
	assert.Contains(t, query, "t.is_archived = $2")
	assert.Contains(t, query, "t.status = ANY($3)")
	assert.Contains(t, query, "t.priority = ANY($4)")
	assert.Contains(t, query, "LIMIT $5 OFFSET $6")
	assert.Equal(t, []any{"%login%", false, []string{"active"}, []string{"high"}, 20, 40}, args)
}

func TestBuildFetchQuery_ProjectIgnoresStatusAndPriority(t *testing.T) {
	query, args, err := buildFetchQuery(EntityProject, FetchParams{
		Text:       "apollo",
		Statuses:   []string{"active"},
		Priorities: []string{"high"},
		Limit:      10,
	})
	require.NoError(t, err)

	assert.NotContains(t, query, "ANY(")
	assert.Contains(t, query, "(p.name ILIKE $1 OR p.description ILIKE $1)")
	assert.Equal(t, []any{"%apollo%", false, 10, 0}, args)
}

func TestBuildFetchQuery_UsersArchivedMeansInactive(t *testing.T) {
	query, args, err := buildFetchQuery(EntityUser, FetchParams{Text: "ann", Limit: 5})
	require.NoError(t, err)

	assert.Contains(t, query, "(u.first_name ILIKE $1 OR u.last_name ILIKE $1 OR u.email ILIKE $1)")
	assert.Contains(t, query, "u.is_active = $2")
	assert.Equal(t, true, args[1])
}

func TestBuildFetchQuery_IncludeArchivedDropsFlag(t *testing.T) {
	query, args, err := buildFetchQuery(EntityEpic, FetchParams{Text: "x", IncludeArchived: true, Limit: 5})
	require.NoError(t, err)

	assert.False(t, strings.Contains(query, "is_archived"))
	assert.Equal(t, []any{"%x%", 5, 0}, args)
}

func TestBuildFetchQuery_SprintNotSearchable(t *testing.T) {
	_, _, err := buildFetchQuery(EntitySprint, FetchParams{Text: "x", Limit: 5})
	assert.Error(t, err)
}

func TestEntitySources_CoverFetchableTypes(t *testing.T) {
	for _, et := range FetchableTypes {
		_, ok := entitySources[et]
		assert.True(t, ok, "missing source for %s", et)
	}
}
