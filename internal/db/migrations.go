package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'export_run_status') THEN
			CREATE TYPE export_run_status AS ENUM ('COMPLETE', 'TRUNCATED', 'PARTIAL');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS export_runs (
		id UUID PRIMARY KEY,
		customer_bin VARCHAR(12) NOT NULL,
		fin_year INTEGER NOT NULL,
		mode VARCHAR(16) NOT NULL,
		status export_run_status NOT NULL,
		contract_count INTEGER NOT NULL DEFAULT 0,
		plan_count INTEGER NOT NULL DEFAULT 0,
		row_count INTEGER NOT NULL DEFAULT 0,
		file_name TEXT NOT NULL DEFAULT '',
		started_at TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_export_runs_customer_year ON export_runs (customer_bin, fin_year);`,
	`CREATE TABLE IF NOT EXISTS contract_snapshots (
		run_id UUID NOT NULL REFERENCES export_runs(id) ON DELETE CASCADE,
		contract_id BIGINT NOT NULL,
		payload JSONB NOT NULL,
		PRIMARY KEY (run_id, contract_id)
	);`,
	`CREATE INDEX IF NOT EXISTS idx_contract_snapshots_contract_id ON contract_snapshots (contract_id);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
