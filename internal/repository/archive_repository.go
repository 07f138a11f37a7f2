package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/goszakup-contracts/internal/model"
)

const snapshotBatchSize = 500

type exportRunRow struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	CustomerBIN   string    `gorm:"column:customer_bin"`
	FinYear       int
	Mode          string
	Status        string
	ContractCount int
	PlanCount     int
	RowCount      int
	FileName      string
	StartedAt     time.Time
	FinishedAt    time.Time
}

func (exportRunRow) TableName() string { return "export_runs" }

type contractSnapshotRow struct {
	RunID      uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ContractID int64           `gorm:"primaryKey"`
	Payload    json.RawMessage `gorm:"type:jsonb"`
}

func (contractSnapshotRow) TableName() string { return "contract_snapshots" }

// Snapshot is one raw contract payload of a run.
type Snapshot struct {
	ContractID int64
	Payload    json.RawMessage
}

type ArchiveRepository struct {
	db *gorm.DB
}

func NewArchiveRepository(db *gorm.DB) *ArchiveRepository {
	return &ArchiveRepository{db: db}
}

// SaveRun stores the run together with its raw payloads in one transaction.
func (r *ArchiveRepository) SaveRun(ctx context.Context, run model.ExportRun, snapshots []Snapshot) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(toRunRow(run)).Error; err != nil {
			return err
		}
		if len(snapshots) == 0 {
			return nil
		}
		rows := make([]contractSnapshotRow, 0, len(snapshots))
		for _, s := range snapshots {
			rows = append(rows, contractSnapshotRow{RunID: run.ID, ContractID: s.ContractID, Payload: s.Payload})
		}
		return tx.CreateInBatches(rows, snapshotBatchSize).Error
	})
}

// ListRuns returns the latest runs of a customer and year, newest first.
func (r *ArchiveRepository) ListRuns(ctx context.Context, customerBIN string, finYear int, limit int) ([]model.ExportRun, error) {
	var rows []exportRunRow
	query := r.db.WithContext(ctx).
		Where("customer_bin = ? AND fin_year = ?", customerBIN, finYear).
		Order("started_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	runs := make([]model.ExportRun, 0, len(rows))
	for _, row := range rows {
		runs = append(runs, fromRunRow(row))
	}
	return runs, nil
}

func toRunRow(run model.ExportRun) *exportRunRow {
	return &exportRunRow{
		ID:            run.ID,
		CustomerBIN:   run.CustomerBIN,
		FinYear:       run.FinYear,
		Mode:          string(run.Mode),
		Status:        string(run.Status),
		ContractCount: run.ContractCount,
		PlanCount:     run.PlanCount,
		RowCount:      run.RowCount,
		FileName:      run.FileName,
		StartedAt:     run.StartedAt,
		FinishedAt:    run.FinishedAt,
	}
}

func fromRunRow(row exportRunRow) model.ExportRun {
	return model.ExportRun{
		ID:            row.ID,
		CustomerBIN:   row.CustomerBIN,
		FinYear:       row.FinYear,
		Mode:          model.ReportMode(row.Mode),
		Status:        model.RunStatus(row.Status),
		ContractCount: row.ContractCount,
		PlanCount:     row.PlanCount,
		RowCount:      row.RowCount,
		FileName:      row.FileName,
		StartedAt:     row.StartedAt,
		FinishedAt:    row.FinishedAt,
	}
}
