package seed

import (
	"context"
	"fmt"

	"kanvaro_backend/platform/sanitize"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultProjectStatus = "active"
	defaultItemStatus    = "todo"
	defaultPriority      = "medium"
)

// Summary counts the rows inserted by Load.
type Summary struct {
	Users    int
	Projects int
	Epics    int
	Stories  int
	Tasks    int
}

// queryRower is satisfied by pgx.Tx and lets tests record inserts.
type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Seeder struct {
	pool       *pgxpool.Pool
	bcryptCost int
}

func New(pool *pgxpool.Pool) *Seeder {
	return &Seeder{pool: pool, bcryptCost: bcrypt.DefaultCost}
}

// Load inserts the fixture in a single transaction.
func (s *Seeder) Load(ctx context.Context, f *Fixture) (Summary, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("begin seed transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	summary, err := insertFixture(ctx, tx, f, s.bcryptCost)
	if err != nil {
		return Summary{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Summary{}, fmt.Errorf("commit seed transaction: %w", err)
	}
	return summary, nil
}

func insertFixture(ctx context.Context, q queryRower, f *Fixture, cost int) (Summary, error) {
	var summary Summary

	userIDs := make(map[string]uuid.UUID, len(f.Users))
	for _, u := range f.Users {
		hash, err := hashPassword(u.Password, cost)
		if err != nil {
			return Summary{}, fmt.Errorf("hash password for %s: %w", u.Email, err)
		}

		var id uuid.UUID
		err = q.QueryRow(ctx, `
			INSERT INTO users (first_name, last_name, email, password_hash, is_active)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, u.FirstName, u.LastName, normalizeEmail(u.Email), hash, !u.Inactive).Scan(&id)
		if err != nil {
			return Summary{}, fmt.Errorf("insert user %s: %w", u.Email, err)
		}
		userIDs[normalizeEmail(u.Email)] = id
		summary.Users++
	}

	assignee := func(email string) *uuid.UUID {
		if email == "" {
			return nil
		}
		id, ok := userIDs[normalizeEmail(email)]
		if !ok {
			return nil
		}
		return &id
	}

	for _, p := range f.Projects {
		var projectID uuid.UUID
		err := q.QueryRow(ctx, `
			INSERT INTO projects (name, description, status, is_archived)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, p.Name, nullable(sanitize.Text(p.Description)), orDefault(p.Status, defaultProjectStatus), p.Archived).Scan(&projectID)
		if err != nil {
			return Summary{}, fmt.Errorf("insert project %s: %w", p.Name, err)
		}
		summary.Projects++

		epicIDs := make(map[string]uuid.UUID, len(p.Epics))
		for _, e := range p.Epics {
			var id uuid.UUID
			err := q.QueryRow(ctx, `
				INSERT INTO epics (project_id, title, description, status, priority, is_archived)
				VALUES ($1, $2, $3, $4, $5, $6)
				RETURNING id
			`, projectID, e.Title, nullable(sanitize.Text(e.Description)), orDefault(e.Status, defaultItemStatus),
				orDefault(e.Priority, defaultPriority), e.Archived).Scan(&id)
			if err != nil {
				return Summary{}, fmt.Errorf("insert epic %s: %w", e.Title, err)
			}
			epicIDs[e.Title] = id
			summary.Epics++
		}

		storyIDs := make(map[string]uuid.UUID, len(p.Stories))
		for _, st := range p.Stories {
			var epicID *uuid.UUID
			if id, ok := epicIDs[st.Epic]; ok {
				epicID = &id
			}

			var id uuid.UUID
			err := q.QueryRow(ctx, `
				INSERT INTO stories (project_id, epic_id, title, description, status, priority, assigned_to, is_archived)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				RETURNING id
			`, projectID, epicID, st.Title, nullable(sanitize.Text(st.Description)), orDefault(st.Status, "backlog"),
				orDefault(st.Priority, defaultPriority), assignee(st.Assignee), st.Archived).Scan(&id)
			if err != nil {
				return Summary{}, fmt.Errorf("insert story %s: %w", st.Title, err)
			}
			storyIDs[st.Title] = id
			summary.Stories++
		}

		for _, t := range p.Tasks {
			var storyID *uuid.UUID
			if id, ok := storyIDs[t.Story]; ok {
				storyID = &id
			}

			var id uuid.UUID
			err := q.QueryRow(ctx, `
				INSERT INTO tasks (project_id, story_id, title, description, status, priority, assigned_to, is_archived)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				RETURNING id
			`, projectID, storyID, t.Title, nullable(sanitize.Text(t.Description)), orDefault(t.Status, defaultItemStatus),
				orDefault(t.Priority, defaultPriority), assignee(t.Assignee), t.Archived).Scan(&id)
			if err != nil {
				return Summary{}, fmt.Errorf("insert task %s: %w", t.Title, err)
			}
			summary.Tasks++
		}
	}

	return summary, nil
}

// hashPassword bcrypts a dev password. Users without one get an empty hash
// and cannot log in.
func hashPassword(password string, cost int) (string, error) {
	if password == "" {
		return "", nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
