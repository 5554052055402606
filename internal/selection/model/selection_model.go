// Package model defines the persisted form of a selection run.
package model

import (
	"time"

	"github.com/google/uuid"

	"fitmatch/internal/selector"
)

func NewSelection(runID string, result *selector.Result, createdAt time.Time) Selection {
	return Selection{
		ID:        uuid.New(),
		RunID:     runID,
		Choices:   result.Choices,
		CreatedAt: createdAt,
	}
}

// Selection snapshots the choices of one selector run. It is written
// once and never mutated; the matcher side only reads it.
type Selection struct {
	ID        uuid.UUID         `json:"id"`
	RunID     string            `json:"runId"`
	Choices   []selector.Choice `json:"choices"`
	CreatedAt time.Time         `json:"createdAt"`
}

func (s Selection) Result() *selector.Result {
	return &selector.Result{Choices: s.Choices}
}
