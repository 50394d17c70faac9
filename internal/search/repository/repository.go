package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository fetches search candidates and search-log rows from Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// entitySource describes how one collection is queried. Every selectSQL
// projects the same nine columns in Candidate order.
type entitySource struct {
	selectSQL   string
	textColumns []string
	archivedCol string
	// activeWhenTrue marks sources where the archive flag is inverted
	// (users are archived when is_active = false).
	activeWhenTrue bool
	statusCol      string
	priorityCol    string
	orderBy        string
}

var entitySources = map[EntityType]entitySource{
	EntityProject: {
		selectSQL: `
			SELECT p.id, p.name, p.description, p.status, NULL::text, NULL::text, NULL::text, p.created_at, p.updated_at
			FROM projects p`,
		textColumns: []string{"p.name", "p.description"},
		archivedCol: "p.is_archived",
		orderBy:     "p.created_at DESC, p.id",
	},
	EntityTask: {
		selectSQL: `
			SELECT t.id, t.title, t.description, t.status, t.priority,
				NULLIF(TRIM(CONCAT(a.first_name, ' ', a.last_name)), ''), pr.name, t.created_at, t.updated_at
			FROM tasks t
			LEFT JOIN users a ON a.id = t.assigned_to
			LEFT JOIN projects pr ON pr.id = t.project_id`,
		textColumns: []string{"t.title", "t.description"},
		archivedCol: "t.is_archived",
		statusCol:   "t.status",
		priorityCol: "t.priority",
		orderBy:     "t.created_at DESC, t.id",
	},
	EntityStory: {
		selectSQL: `
			SELECT s.id, s.title, s.description, s.status, s.priority,
				NULLIF(TRIM(CONCAT(a.first_name, ' ', a.last_name)), ''), pr.name, s.created_at, s.updated_at
			FROM stories s
			LEFT JOIN users a ON a.id = s.assigned_to
			LEFT JOIN projects pr ON pr.id = s.project_id`,
		textColumns: []string{"s.title", "s.description"},
		archivedCol: "s.is_archived",
		statusCol:   "s.status",
		priorityCol: "s.priority",
		orderBy:     "s.created_at DESC, s.id",
	},
	EntityEpic: {
		selectSQL: `
			SELECT e.id, e.title, e.description, e.status, e.priority, NULL::text, pr.name, e.created_at, e.updated_at
			FROM epics e
			LEFT JOIN projects pr ON pr.id = e.project_id`,
		textColumns: []string{"e.title", "e.description"},
		archivedCol: "e.is_archived",
		statusCol:   "e.status",
		priorityCol: "e.priority",
		orderBy:     "e.created_at DESC, e.id",
	},
	EntityUser: {
		selectSQL: `
			SELECT u.id, CONCAT(u.first_name, ' ', u.last_name), NULL::text, NULL::text, NULL::text, NULL::text, NULL::text, u.created_at, u.updated_at
			FROM users u`,
		textColumns:    []string{"u.first_name", "u.last_name", "u.email"},
		archivedCol:    "u.is_active",
		activeWhenTrue: true,
		orderBy:        "u.created_at DESC, u.id",
	},
}

// buildPredicate composes the WHERE clauses for one entity type.
func (src entitySource) buildPredicate(params FetchParams) *Predicate {
	pred := &Predicate{}
	pred.And(TextMatch(params.Text, src.textColumns...))

	if !params.IncludeArchived {
		pred.And(BoolEquals(src.archivedCol, src.activeWhenTrue))
	}
	if src.statusCol != "" {
		pred.And(InSet(src.statusCol, params.Statuses))
	}
	if src.priorityCol != "" {
		pred.And(InSet(src.priorityCol, params.Priorities))
	}

	return pred
}

// buildFetchQuery renders the full candidate query for one entity type.
// Each type is paginated on its own with the shared limit and offset.
func buildFetchQuery(entityType EntityType, params FetchParams) (string, []any, error) {
	src, ok := entitySources[entityType]
	if !ok {
		return "", nil, fmt.Errorf("entity type %q is not searchable", entityType)
	}

	where, args, err := src.buildPredicate(params).SQL(1)
	if err != nil {
		return "", nil, err
	}

	n := len(args)
	query := fmt.Sprintf("%s\n\t\t\tWHERE %s\n\t\t\tORDER BY %s\n\t\t\tLIMIT $%d OFFSET $%d",
		src.selectSQL, where, src.orderBy, n+1, n+2)
	args = append(args, params.Limit, params.Offset)

	return query, args, nil
}

// FetchCandidates returns up to params.Limit rows of entityType whose text
// fields contain params.Text.
func (r *Repository) FetchCandidates(ctx context.Context, entityType EntityType, params FetchParams) ([]Candidate, error) {
	query, args, err := buildFetchQuery(entityType, params)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s candidates: %w", entityType, err)
	}
	defer rows.Close()

	items := make([]Candidate, 0)
	for rows.Next() {
		c, err := scanCandidate(rows, entityType)
		if err != nil {
			return nil, fmt.Errorf("scan %s candidate: %w", entityType, err)
		}
		items = append(items, c)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate %s candidates: %w", entityType, rows.Err())
	}

	return items, nil
}

func scanCandidate(rows pgx.Rows, entityType EntityType) (Candidate, error) {
	c := Candidate{Type: entityType}
	err := rows.Scan(
		&c.ID,
		&c.Label,
		&c.Description,
		&c.Status,
		&c.Priority,
		&c.Assignee,
		&c.Project,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	return c, err
}
