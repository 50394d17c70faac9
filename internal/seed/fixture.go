// Package seed loads a YAML workspace fixture into the database.
package seed

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

type Fixture struct {
	Users    []UserFixture    `yaml:"users"`
	Projects []ProjectFixture `yaml:"projects"`
}

type UserFixture struct {
	FirstName string `yaml:"firstName"`
	LastName  string `yaml:"lastName"`
	Email     string `yaml:"email"`
	Password  string `yaml:"password"`
	Inactive  bool   `yaml:"inactive"`
}

type ProjectFixture struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Status      string         `yaml:"status"`
	Archived    bool           `yaml:"archived"`
	Epics       []EpicFixture  `yaml:"epics"`
	Stories     []StoryFixture `yaml:"stories"`
	Tasks       []TaskFixture  `yaml:"tasks"`
}

type EpicFixture struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Status      string `yaml:"status"`
	Priority    string `yaml:"priority"`
	Archived    bool   `yaml:"archived"`
}

// StoryFixture references its epic by title and its assignee by email.
type StoryFixture struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Status      string `yaml:"status"`
	Priority    string `yaml:"priority"`
	Epic        string `yaml:"epic"`
	Assignee    string `yaml:"assignee"`
	Archived    bool   `yaml:"archived"`
}

// TaskFixture references its story by title and its assignee by email.
type TaskFixture struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Status      string `yaml:"status"`
	Priority    string `yaml:"priority"`
	Story       string `yaml:"story"`
	Assignee    string `yaml:"assignee"`
	Archived    bool   `yaml:"archived"`
}

// Parse decodes and validates a fixture. Unknown keys are rejected.
func Parse(r io.Reader) (*Fixture, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f Fixture
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("fixture is empty")
		}
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks required fields and that every reference resolves.
func (f *Fixture) Validate() error {
	var errs []error

	emails := make(map[string]bool, len(f.Users))
	for i, u := range f.Users {
		email := normalizeEmail(u.Email)
		switch {
		case email == "":
			errs = append(errs, fmt.Errorf("users[%d]: email is required", i))
		case emails[email]:
			errs = append(errs, fmt.Errorf("users[%d]: duplicate email %q", i, u.Email))
		}
		if strings.TrimSpace(u.FirstName) == "" {
			errs = append(errs, fmt.Errorf("users[%d]: firstName is required", i))
		}
		emails[email] = true
	}

	for pi, p := range f.Projects {
		if strings.TrimSpace(p.Name) == "" {
			errs = append(errs, fmt.Errorf("projects[%d]: name is required", pi))
		}

		epics := make(map[string]bool, len(p.Epics))
		for ei, e := range p.Epics {
			if strings.TrimSpace(e.Title) == "" {
				errs = append(errs, fmt.Errorf("projects[%d].epics[%d]: title is required", pi, ei))
			}
			epics[e.Title] = true
		}

		stories := make(map[string]bool, len(p.Stories))
		for si, s := range p.Stories {
			if strings.TrimSpace(s.Title) == "" {
				errs = append(errs, fmt.Errorf("projects[%d].stories[%d]: title is required", pi, si))
			}
			if s.Epic != "" && !epics[s.Epic] {
				errs = append(errs, fmt.Errorf("projects[%d].stories[%d]: unknown epic %q", pi, si, s.Epic))
			}
			if s.Assignee != "" && !emails[normalizeEmail(s.Assignee)] {
				errs = append(errs, fmt.Errorf("projects[%d].stories[%d]: unknown assignee %q", pi, si, s.Assignee))
			}
			stories[s.Title] = true
		}

		for ti, t := range p.Tasks {
			if strings.TrimSpace(t.Title) == "" {
				errs = append(errs, fmt.Errorf("projects[%d].tasks[%d]: title is required", pi, ti))
			}
			if t.Story != "" && !stories[t.Story] {
				errs = append(errs, fmt.Errorf("projects[%d].tasks[%d]: unknown story %q", pi, ti, t.Story))
			}
			if t.Assignee != "" && !emails[normalizeEmail(t.Assignee)] {
				errs = append(errs, fmt.Errorf("projects[%d].tasks[%d]: unknown assignee %q", pi, ti, t.Assignee))
			}
		}
	}

	return errors.Join(errs...)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// orDefault returns v, or fallback when v is blank.
func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

// nullable maps a blank string to SQL NULL.
func nullable(v string) *string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return &v
}
