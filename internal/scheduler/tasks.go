package scheduler

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const TaskSearchLogged = "search.logged"

type SearchLoggedPayload struct {
	UserID      string    `json:"userId,omitempty"`
	Query       string    `json:"query"`
	SearchText  string    `json:"searchText"`
	ResultCount int       `json:"resultCount"`
	TopScore    *int      `json:"topScore,omitempty"`
	TookMs      int64     `json:"tookMs"`
	SearchedAt  time.Time `json:"searchedAt"`
}

func NewSearchLoggedTask(payload SearchLoggedPayload) (*asynq.Task, error) {
	if payload.Query == "" {
		return nil, fmt.Errorf("search log query is required")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSearchLogged, data), nil
}

func ParseSearchLoggedPayload(task *asynq.Task) (SearchLoggedPayload, error) {
	var payload SearchLoggedPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return SearchLoggedPayload{}, err
	}
	return payload, nil
}
