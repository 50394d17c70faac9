package seed

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeRow struct {
	id  uuid.UUID
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*uuid.UUID)) = r.id
	return nil
}

type insertCall struct {
	sql  string
	args []any
	id   uuid.UUID
}

type recordingQuerier struct {
	calls  []insertCall
	failOn string
}

func (q *recordingQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	id := uuid.New()
	q.calls = append(q.calls, insertCall{sql: sql, args: args, id: id})
	if q.failOn != "" && strings.Contains(sql, q.failOn) {
		return fakeRow{err: errors.New("constraint violation")}
	}
	return fakeRow{id: id}
}

func (q *recordingQuerier) find(table string) []insertCall {
	var out []insertCall
	for _, c := range q.calls {
		if strings.Contains(c.sql, "INSERT INTO "+table+" ") {
			out = append(out, c)
		}
	}
	return out
}

func TestInsertFixture_ResolvesReferences(t *testing.T) {
	f, err := Parse(strings.NewReader(validFixture))
	require.NoError(t, err)

	q := &recordingQuerier{}
	summary, err := insertFixture(context.Background(), q, f, bcrypt.MinCost)
	require.NoError(t, err)
	assert.Equal(t, Summary{Users: 1, Projects: 1, Epics: 1, Stories: 1, Tasks: 1}, summary)

	users := q.find("users")
	require.Len(t, users, 1)
	assert.Equal(t, "ann@example.com", users[0].args[2])
	hash := users[0].args[3].(string)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("secret")))
	assert.Equal(t, true, users[0].args[4])

	project := q.find("projects")[0]
	assert.Equal(t, "active", project.args[2])

	story := q.find("stories")[0]
	assert.Equal(t, project.id, story.args[0])
	assert.Equal(t, &q.find("epics")[0].id, story.args[1])
	assert.Equal(t, &users[0].id, story.args[6])

	task := q.find("tasks")[0]
	assert.Equal(t, &story.id, task.args[1])
	assert.Equal(t, "todo", task.args[4])
	assert.Equal(t, "high", task.args[5])
}

func TestInsertFixture_PropagatesErrors(t *testing.T) {
	f, err := Parse(strings.NewReader(validFixture))
	require.NoError(t, err)

	q := &recordingQuerier{failOn: "INSERT INTO epics"}
	_, err = insertFixture(context.Background(), q, f, bcrypt.MinCost)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert epic Onboarding")
}

func TestHashPassword_EmptyStaysEmpty(t *testing.T) {
	hash, err := hashPassword("", bcrypt.MinCost)
	require.NoError(t, err)
	assert.Empty(t, hash)
}
