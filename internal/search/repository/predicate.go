package repository

import (
	"fmt"
	"strings"
)

// ClauseKind discriminates the Clause union.
type ClauseKind int

const (
	// ClauseTextMatch is a case-insensitive substring match on any of several columns.
	ClauseTextMatch ClauseKind = iota + 1
	// ClauseInSet requires a column value to be one of a set.
	ClauseInSet
	// ClauseBoolEquals compares a boolean column to a constant.
	ClauseBoolEquals
)

// Clause is a single WHERE condition. Only the fields relevant to Kind are set.
type Clause struct {
	Kind    ClauseKind
	Columns []string
	Text    string
	Values  []string
	Bool    bool
}

// TextMatch matches rows where any of the columns contains text (ILIKE).
func TextMatch(text string, columns ...string) Clause {
	return Clause{Kind: ClauseTextMatch, Columns: columns, Text: text}
}

// InSet matches rows whose column is one of values.
func InSet(column string, values []string) Clause {
	return Clause{Kind: ClauseInSet, Columns: []string{column}, Values: values}
}

// BoolEquals matches rows whose boolean column equals value.
func BoolEquals(column string, value bool) Clause {
	return Clause{Kind: ClauseBoolEquals, Columns: []string{column}, Bool: value}
}

// Predicate is a conjunction of clauses.
type Predicate struct {
	clauses []Clause
}

// And appends a clause. Clauses that cannot constrain anything (empty text,
// empty set) are dropped here so rendering never sees them.
func (p *Predicate) And(c Clause) *Predicate {
	switch c.Kind {
	case ClauseTextMatch:
		if c.Text == "" || len(c.Columns) == 0 {
			return p
		}
	case ClauseInSet:
		if len(c.Values) == 0 {
			return p
		}
	}
	p.clauses = append(p.clauses, c)
	return p
}

// Clauses returns the accumulated clauses.
func (p *Predicate) Clauses() []Clause {
	return p.clauses
}

// SQL renders the predicate as a WHERE body with positional parameters
// starting at $firstArg. An empty predicate renders as TRUE.
func (p *Predicate) SQL(firstArg int) (string, []any, error) {
	if len(p.clauses) == 0 {
		return "TRUE", nil, nil
	}

	parts := make([]string, 0, len(p.clauses))
	args := make([]any, 0, len(p.clauses))
	next := firstArg

	for _, c := range p.clauses {
		switch c.Kind {
		case ClauseTextMatch:
			ors := make([]string, len(c.Columns))
			for i, col := range c.Columns {
				ors[i] = fmt.Sprintf("%s ILIKE $%d", col, next)
			}
			parts = append(parts, "("+strings.Join(ors, " OR ")+")")
			args = append(args, "%"+escapeLike(c.Text)+"%")
		case ClauseInSet:
			parts = append(parts, fmt.Sprintf("%s = ANY($%d)", c.Columns[0], next))
			args = append(args, c.Values)
		case ClauseBoolEquals:
			parts = append(parts, fmt.Sprintf("%s = $%d", c.Columns[0], next))
			args = append(args, c.Bool)
		default:
			return "", nil, fmt.Errorf("unknown clause kind %d", c.Kind)
		}
		next++
	}

	return strings.Join(parts, " AND "), args, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike neutralises LIKE wildcards so user text is matched literally.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
