// Package model defines a pending unmatched-observation report.
package model

import (
	"time"

	"github.com/google/uuid"

	resultModel "fitmatch/internal/result/model"
)

func NewReport(runID string, matches []resultModel.Match) Report {
	return Report{
		ID:        uuid.New(),
		RunID:     runID,
		Matches:   matches,
		CreatedAt: time.Now(),
	}
}

// Report is a batch of unmatched observations awaiting delivery to the
// configured targets. Undelivered reports survive restarts.
type Report struct {
	ID        uuid.UUID           `json:"id"`
	RunID     string              `json:"runId"`
	Matches   []resultModel.Match `json:"matches"`
	CreatedAt time.Time           `json:"createdAt"`
}
