package service

import (
	"regexp"
	"slices"
	"strings"
)

// filterToken matches key:value where value is a single word. The leading
// \b keeps "subtype:x" from being read as a type filter.
var filterToken = regexp.MustCompile(`\b(type|status|priority|assignee|project):(\w+)`)

// Filters holds the structured filters found in a query. Each slice keeps
// first-seen order without duplicates.
type Filters struct {
	Types      []string
	Statuses   []string
	Priorities []string
	Assignees  []string
	Projects   []string
}

// ParsedQuery is a raw query split into filters and residual free text.
type ParsedQuery struct {
	SearchText string
	Filters    Filters
}

// ParseQuery extracts filter tokens from raw and returns the remaining text
// with whitespace collapsed. It never fails; unknown keys stay in the text.
func ParseQuery(raw string) ParsedQuery {
	var f Filters

	for _, m := range filterToken.FindAllStringSubmatch(raw, -1) {
		key, value := m[1], m[2]
		switch key {
		case "type":
			f.Types = appendUnique(f.Types, value)
		case "status":
			f.Statuses = appendUnique(f.Statuses, value)
		case "priority":
			f.Priorities = appendUnique(f.Priorities, value)
		case "assignee":
			f.Assignees = appendUnique(f.Assignees, value)
		case "project":
			f.Projects = appendUnique(f.Projects, value)
		}
	}

	residual := filterToken.ReplaceAllString(raw, " ")

	return ParsedQuery{
		SearchText: strings.Join(strings.Fields(residual), " "),
		Filters:    f,
	}
}

func appendUnique(values []string, v string) []string {
	if slices.Contains(values, v) {
		return values
	}
	return append(values, v)
}
