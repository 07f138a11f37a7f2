package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/goszakup-contracts/internal/aggregate"
	"github.com/nurpe/goszakup-contracts/internal/config"
	"github.com/nurpe/goszakup-contracts/internal/fetch"
	"github.com/nurpe/goszakup-contracts/internal/goszakup"
	"github.com/nurpe/goszakup-contracts/internal/model"
	"github.com/nurpe/goszakup-contracts/internal/repository"
	"github.com/nurpe/goszakup-contracts/internal/snapshot"
)

const (
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"
)

type Generator interface {
	Generate(report model.Report) ([]byte, error)
}

type Archive interface {
	SaveRun(ctx context.Context, run model.ExportRun, snapshots []repository.Snapshot) error
}

type ReportService struct {
	pager       *fetch.Pager
	mapper      *goszakup.Mapper
	engine      *aggregate.Engine
	generators  map[string]Generator
	archive     Archive
	cfg         *config.Config
	log         zerolog.Logger
	snapshotDir string
	now         func() time.Time
}

type ExportInput struct {
	CustomerBIN string
	FinYear     int
	Mode        model.ReportMode
	MaxPages    int
	Format      string
}

type ExportResult struct {
	Run     model.ExportRun
	Report  model.Report
	Content []byte
	// Empty is set when the source had no contracts; no report is produced.
	Empty bool
}

// NewReportService wires the pipeline. archive may be nil.
func NewReportService(pager *fetch.Pager, generators map[string]Generator, archive Archive, cfg *config.Config, log zerolog.Logger) *ReportService {
	return &ReportService{
		pager:      pager,
		mapper:     goszakup.NewMapper(log),
		engine:     aggregate.NewEngine(log),
		generators: generators,
		archive:    archive,
		cfg:        cfg,
		log:        log,
		now:        time.Now,
	}
}

// WithSnapshotDir makes every export keep its raw contracts in dir.
func (s *ReportService) WithSnapshotDir(dir string) *ReportService {
	s.snapshotDir = dir
	return s
}

// Export runs fetch, plan resolution, aggregation and rendering for one
// customer and year.
func (s *ReportService) Export(ctx context.Context, input ExportInput) (*ExportResult, error) {
	if err := s.validate(&input); err != nil {
		return nil, err
	}

	run := model.ExportRun{
		ID:          uuid.New(),
		CustomerBIN: input.CustomerBIN,
		FinYear:     input.FinYear,
		Mode:        input.Mode,
		Status:      model.RunStatusComplete,
		StartedAt:   s.now(),
	}
	log := s.log.With().Str("run_id", run.ID.String()).Logger()
	log.Info().
		Str("customer_bin", input.CustomerBIN).
		Int("fin_year", input.FinYear).
		Int("max_pages", input.MaxPages).
		Str("mode", string(input.Mode)).
		Msg("export started")

	contracts, err := goszakup.FetchContracts(ctx, s.pager, input.CustomerBIN, input.FinYear, fetch.PageOptions{
		PageSize: s.cfg.Fetch.PageSize,
		MaxPages: input.MaxPages,
		Delay:    s.cfg.Fetch.PageDelay,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch contracts: %w", err)
	}
	run.Status = runStatus(contracts.Status)
	run.ContractCount = len(contracts.Items)
	log.Info().Int("contracts", len(contracts.Items)).Int("pages", contracts.Pages).Str("status", string(contracts.Status)).
		Msg("contracts fetched")

	if s.snapshotDir != "" {
		path, err := snapshot.Write(s.snapshotDir, input.FinYear, contracts.Items)
		if err != nil {
			return nil, fmt.Errorf("write snapshot: %w", err)
		}
		log.Info().Str("path", path).Msg("snapshot saved")
	}

	if len(contracts.Items) == 0 {
		log.Warn().Msg("no contracts found, report skipped")
		run.FinishedAt = s.now()
		s.saveRun(ctx, log, run, nil)
		return &ExportResult{Run: run, Empty: true}, nil
	}

	records := s.mapper.Contracts(contracts.Items)
	ids := model.PlanPointIDs(records)
	log.Info().Int("plan_ids", len(ids)).Msg("plan references collected")

	lookup := model.LookupTable{}
	if len(ids) > 0 {
		var batches fetch.BatchReport
		lookup, batches, err = goszakup.ResolvePlans(ctx, s.pager, s.mapper, ids, fetch.BatchOptions{
			BatchSize: s.cfg.Plans.BatchSize,
			Delay:     s.cfg.Plans.BatchDelay,
			Page: fetch.PageOptions{
				PageSize:        s.cfg.Plans.PageSize,
				Delay:           s.cfg.Plans.PageDelay,
				StopOnShortPage: s.cfg.Plans.ShortPageStop,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("resolve plans: %w", err)
		}
		if batches.Partial > 0 {
			run.Status = model.RunStatusPartial
		}
		log.Info().Int("plans", len(lookup)).Int("batches", batches.Batches).Int("partial_batches", batches.Partial).
			Msg("plans resolved")
	} else {
		log.Warn().Msg("contracts reference no plan lines")
	}
	run.PlanCount = len(lookup)

	report, err := s.engine.Build(input.Mode, records, lookup)
	if err != nil {
		return nil, err
	}
	report.CustomerBIN = input.CustomerBIN
	report.FinYear = input.FinYear

	content, err := s.generators[input.Format].Generate(report)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", input.Format, err)
	}

	run.RowCount = len(report.Rows)
	run.FileName = FileName(input.FinYear, input.Mode, input.Format, run.StartedAt)
	run.FinishedAt = s.now()
	s.saveRun(ctx, log, run, contracts.Items)

	log.Info().
		Str("mode", string(input.Mode)).
		Int("contracts", run.ContractCount).
		Int("rows", run.RowCount).
		Str("file", run.FileName).
		Str("status", string(run.Status)).
		Msg("export finished")

	return &ExportResult{Run: run, Report: report, Content: content}, nil
}

// WriteFile stores the rendered report in dir and returns its path.
func (s *ReportService) WriteFile(dir string, result *ExportResult) (string, error) {
	if result == nil || result.Empty {
		return "", nil
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(dir, result.Run.FileName)
	if err := os.WriteFile(path, result.Content, 0o644); err != nil {
		if isLocked(err) {
			return "", fmt.Errorf("%w: %s", ErrOutputLocked, path)
		}
		return "", fmt.Errorf("write report: %w", err)
	}
	s.log.Info().Str("path", path).Msg("report saved")
	return path, nil
}

// FileName builds contracts_{year}_{mode}_{YYYYMMDD_HHMMSS}.{format}.
func FileName(finYear int, mode model.ReportMode, format string, at time.Time) string {
	return fmt.Sprintf("contracts_%d_%s_%s.%s", finYear, mode, at.Format("20060102_150405"), format)
}

func (s *ReportService) validate(input *ExportInput) error {
	if input.CustomerBIN == "" {
		input.CustomerBIN = s.cfg.Export.CustomerBIN
	}
	if input.FinYear == 0 {
		input.FinYear = s.cfg.Export.FinYear
	}
	if input.Format == "" {
		input.Format = FormatXLSX
	}

	if input.CustomerBIN == "" {
		return fmt.Errorf("%w: customer_bin is required", ErrInvalidInput)
	}
	if input.FinYear <= 0 {
		return fmt.Errorf("%w: fin_year must be positive", ErrInvalidInput)
	}
	if input.MaxPages < 0 {
		return fmt.Errorf("%w: max_pages must not be negative", ErrInvalidInput)
	}
	mode, err := model.ParseReportMode(string(input.Mode))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	input.Mode = mode
	if _, ok := s.generators[input.Format]; !ok {
		return fmt.Errorf("%w: unsupported format %q", ErrInvalidInput, input.Format)
	}
	return nil
}

func (s *ReportService) saveRun(ctx context.Context, log zerolog.Logger, run model.ExportRun, contracts []goszakup.Contract) {
	if s.archive == nil {
		return
	}
	snapshots := make([]repository.Snapshot, 0, len(contracts))
	seen := make(map[int64]struct{}, len(contracts))
	for _, c := range contracts {
		if _, dup := seen[c.ID]; dup {
			continue
		}
		seen[c.ID] = struct{}{}
		payload, err := json.Marshal(c)
		if err != nil {
			log.Warn().Err(err).Int64("contract_id", c.ID).Msg("skip contract snapshot")
			continue
		}
		snapshots = append(snapshots, repository.Snapshot{ContractID: c.ID, Payload: payload})
	}
	if err := s.archive.SaveRun(ctx, run, snapshots); err != nil {
		log.Error().Err(err).Msg("archive run failed")
	}
}

func runStatus(status fetch.Status) model.RunStatus {
	switch status {
	case fetch.StatusTruncated:
		return model.RunStatusTruncated
	case fetch.StatusPartial:
		return model.RunStatusPartial
	default:
		return model.RunStatusComplete
	}
}
