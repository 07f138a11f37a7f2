package model

import (
	"time"

	"github.com/google/uuid"
)

type RunStatus string

const (
	RunStatusComplete  RunStatus = "COMPLETE"
	RunStatusTruncated RunStatus = "TRUNCATED"
	RunStatusPartial   RunStatus = "PARTIAL"
)

// ExportRun describes one pipeline execution.
type ExportRun struct {
	ID            uuid.UUID
	CustomerBIN   string
	FinYear       int
	Mode          ReportMode
	Status        RunStatus
	ContractCount int
	PlanCount     int
	RowCount      int
	FileName      string
	StartedAt     time.Time
	FinishedAt    time.Time
}
