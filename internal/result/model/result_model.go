// Package model defines the persisted form of one classified test
// observation.
package model

import (
	"time"

	"github.com/google/uuid"

	"fitmatch/internal/matcher"
)

type Status uint8

const (
	StatusNew Status = iota
	StatusProcessed
)

func NewMatch(runID string, x, y float64, createdAt time.Time) Match {
	return Match{
		ID:        uuid.New(),
		RunID:     runID,
		X:         x,
		Y:         y,
		Status:    StatusNew,
		CreatedAt: createdAt,
	}
}

// Match is one test observation together with its classification
// outcome. Matched false with Status StatusProcessed means the
// observation was examined and rejected by the tolerance rule, which is
// a valid result, not a failure.
type Match struct {
	ID          uuid.UUID `json:"id"`
	RunID       string    `json:"runId"`
	X           float64   `json:"x"`
	Y           float64   `json:"y"`
	Matched     bool      `json:"matched"`
	CandidateID int       `json:"candidateId,omitempty"`
	Deviation   float64   `json:"deviation,omitempty"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (m Match) IsProcessed() bool {
	return m.Status == StatusProcessed
}

func (m Match) IsNew() bool {
	return m.Status == StatusNew
}

func (m Match) Observation() matcher.Observation {
	return matcher.Observation{X: m.X, Y: m.Y}
}

// Apply copies a classification outcome onto the record and marks it
// processed.
func (m *Match) Apply(result matcher.Result) {
	m.Matched = result.Matched
	m.CandidateID = result.CandidateID
	m.Deviation = result.Deviation
	m.Status = StatusProcessed
}
