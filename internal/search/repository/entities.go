package repository

import (
	"time"

	"github.com/google/uuid"
)

// EntityType identifies a searchable collection.
type EntityType string

const (
	EntityProject EntityType = "project"
	EntityTask    EntityType = "task"
	EntityStory   EntityType = "story"
	EntityEpic    EntityType = "epic"
	EntitySprint  EntityType = "sprint"
	EntityUser    EntityType = "user"
)

// FetchableTypes lists the entity types that have a backing collection, in
// the order their results are merged. Sprints are addressable but not stored.
var FetchableTypes = []EntityType{
	EntityProject,
	EntityTask,
	EntityStory,
	EntityEpic,
	EntityUser,
}

// Candidate is one fetched record before scoring.
type Candidate struct {
	Type        EntityType
	ID          uuid.UUID
	Label       string
	Description *string
	Status      *string
	Priority    *string
	Assignee    *string
	Project     *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// FetchParams constrains a single per-entity fetch. Statuses and Priorities
// only apply to entity types that carry those columns.
type FetchParams struct {
	Text            string
	Statuses        []string
	Priorities      []string
	IncludeArchived bool
	Limit           int
	Offset          int
}
