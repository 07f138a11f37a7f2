package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/goszakup-contracts/internal/config"
	"github.com/nurpe/goszakup-contracts/internal/fetch"
	"github.com/nurpe/goszakup-contracts/internal/model"
	"github.com/nurpe/goszakup-contracts/internal/repository"
	"github.com/nurpe/goszakup-contracts/internal/snapshot"
)

// portal answers contract and plan queries from fixed pages.
type portal struct {
	mu             sync.Mutex
	contractPages  []string
	plans          map[int64]string
	planStatus     int
	contractCalls  int
	requestedPlans [][]int64
}

func (p *portal) Execute(_ context.Context, req fetch.Request) (*fetch.Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if ids, ok := req.Variables["ids"].([]int64); ok {
		p.requestedPlans = append(p.requestedPlans, ids)
		if p.planStatus != 0 {
			return &fetch.Response{StatusCode: p.planStatus}, nil
		}
		if req.Variables["after"] != nil {
			return page("Plans", "[]"), nil
		}
		items := make([]string, 0, len(ids))
		for _, id := range ids {
			if body, ok := p.plans[id]; ok {
				items = append(items, body)
			}
		}
		return page("Plans", "["+strings.Join(items, ",")+"]"), nil
	}

	p.contractCalls++
	if p.contractCalls > len(p.contractPages) {
		return page("Contract", "[]"), nil
	}
	return page("Contract", p.contractPages[p.contractCalls-1]), nil
}

func page(field, items string) *fetch.Response {
	return &fetch.Response{StatusCode: http.StatusOK, Data: map[string]json.RawMessage{field: json.RawMessage(items)}}
}

type fakeGenerator struct {
	reports []model.Report
	err     error
}

func (g *fakeGenerator) Generate(report model.Report) ([]byte, error) {
	g.reports = append(g.reports, report)
	if g.err != nil {
		return nil, g.err
	}
	return []byte(fmt.Sprintf("%s:%d", report.Mode, len(report.Rows))), nil
}

type fakeArchive struct {
	runs      []model.ExportRun
	snapshots [][]repository.Snapshot
	err       error
}

func (a *fakeArchive) SaveRun(_ context.Context, run model.ExportRun, snapshots []repository.Snapshot) error {
	a.runs = append(a.runs, run)
	a.snapshots = append(a.snapshots, snapshots)
	return a.err
}

func testConfig() *config.Config {
	return &config.Config{
		Fetch: config.FetchConfig{PageSize: 2},
		Plans: config.PlansConfig{BatchSize: 100, PageSize: 200, ShortPageStop: true},
		Export: config.ExportConfig{
			CustomerBIN: "020240003361",
			FinYear:     2025,
		},
	}
}

func newService(src *portal, gen *fakeGenerator, archive Archive) *ReportService {
	pager := fetch.NewPager(src, fetch.DefaultRetryPolicy(), zerolog.Nop()).
		WithSleeper(func(context.Context, time.Duration) error { return nil })
	svc := NewReportService(pager, map[string]Generator{FormatXLSX: gen, FormatPDF: gen}, archive, testConfig(), zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2025, 3, 1, 14, 5, 9, 0, time.UTC) }
	return svc
}

func samplePortal() *portal {
	return &portal{
		contractPages: []string{
			`[{"id":1,"contractNumberSys":"Д-1","contractSum":"1500.00","ContractUnits":[{"plnPointId":10,"totalSum":"500"},{"plnPointId":11,"totalSum":1000}]},
			  {"id":2,"contractNumberSys":"Д-2","contractSum":"","ContractUnits":[{"plnPointId":null,"totalSum":"40"}]}]`,
			`[{"id":3,"contractNumberSys":"Д-3","contractSum":250,"ContractUnits":[{"plnPointId":10,"totalSum":"250"}]}]`,
		},
		plans: map[int64]string{
			10: `{"id":10,"nameRu":"Бумага А4","amount":"600"}`,
			11: `{"id":11,"nameRu":"Картриджи","amount":1000}`,
		},
	}
}

func TestExportSummary(t *testing.T) {
	src := samplePortal()
	gen := &fakeGenerator{}
	archive := &fakeArchive{}
	svc := newService(src, gen, archive)

	result, err := svc.Export(context.Background(), ExportInput{Mode: model.ReportModeSummary})
	require.NoError(t, err)

	assert.False(t, result.Empty)
	assert.Equal(t, []byte("summary:3"), result.Content)
	assert.Equal(t, "contracts_2025_summary_20250301_140509.xlsx", result.Run.FileName)
	assert.Equal(t, model.RunStatusComplete, result.Run.Status)
	assert.Equal(t, 3, result.Run.ContractCount)
	assert.Equal(t, 2, result.Run.PlanCount)
	assert.Equal(t, 3, result.Run.RowCount)

	require.Len(t, src.requestedPlans, 1)
	assert.Equal(t, []int64{10, 11}, src.requestedPlans[0])

	require.Len(t, gen.reports, 1)
	first, ok := gen.reports[0].Rows[0].(model.SummaryRow)
	require.True(t, ok)
	assert.Equal(t, "1600", first.PlannedSum.String())
	assert.Equal(t, "100", first.Variance.String())
	assert.Equal(t, "020240003361", gen.reports[0].CustomerBIN)

	require.Len(t, archive.runs, 1)
	assert.Equal(t, result.Run, archive.runs[0])
	assert.Len(t, archive.snapshots[0], 3)
}

func TestExportDetailAcceptsAlias(t *testing.T) {
	gen := &fakeGenerator{}
	svc := newService(samplePortal(), gen, nil)

	result, err := svc.Export(context.Background(), ExportInput{Mode: "detailed", Format: FormatPDF})
	require.NoError(t, err)

	assert.Equal(t, model.ReportModeDetail, result.Run.Mode)
	assert.Equal(t, []byte("detail:7"), result.Content)
	assert.Equal(t, "contracts_2025_detail_20250301_140509.pdf", result.Run.FileName)
}

func TestExportEmptyContractList(t *testing.T) {
	gen := &fakeGenerator{}
	archive := &fakeArchive{}
	svc := newService(&portal{}, gen, archive)

	result, err := svc.Export(context.Background(), ExportInput{Mode: model.ReportModeSummary})
	require.NoError(t, err)

	assert.True(t, result.Empty)
	assert.Empty(t, gen.reports)
	require.Len(t, archive.runs, 1)
	assert.Zero(t, archive.runs[0].ContractCount)

	path, err := svc.WriteFile(t.TempDir(), result)
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestExportTruncatedAndPartial(t *testing.T) {
	svc := newService(samplePortal(), &fakeGenerator{}, nil)
	result, err := svc.Export(context.Background(), ExportInput{Mode: model.ReportModeSummary, MaxPages: 1})
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusTruncated, result.Run.Status)
	assert.Equal(t, 2, result.Run.ContractCount)

	src := samplePortal()
	src.planStatus = http.StatusInternalServerError
	svc = newService(src, &fakeGenerator{}, nil)
	result, err = svc.Export(context.Background(), ExportInput{Mode: model.ReportModeSummary})
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusPartial, result.Run.Status)
	assert.Zero(t, result.Run.PlanCount)
}

func TestExportWritesSnapshot(t *testing.T) {
	dir := t.TempDir()
	svc := newService(samplePortal(), &fakeGenerator{}, nil).WithSnapshotDir(dir)

	_, err := svc.Export(context.Background(), ExportInput{Mode: model.ReportModeSummary})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, snapshot.FileName(2025)))
	require.NoError(t, err)
	var raw []map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Len(t, raw, 3)
	assert.Equal(t, "", raw[1]["contractSum"])
}

func TestExportValidation(t *testing.T) {
	svc := newService(samplePortal(), &fakeGenerator{}, nil)
	tests := []ExportInput{
		{Mode: "pivot"},
		{Mode: model.ReportModeSummary, FinYear: -1},
		{Mode: model.ReportModeSummary, MaxPages: -1},
		{Mode: model.ReportModeSummary, Format: "csv"},
	}
	for _, input := range tests {
		_, err := svc.Export(context.Background(), input)
		assert.ErrorIs(t, err, ErrInvalidInput, "%+v", input)
	}
}

func TestExportCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc := newService(samplePortal(), &fakeGenerator{}, nil)

	_, err := svc.Export(ctx, ExportInput{Mode: model.ReportModeSummary})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExportGeneratorFailure(t *testing.T) {
	svc := newService(samplePortal(), &fakeGenerator{err: errors.New("boom")}, nil)
	_, err := svc.Export(context.Background(), ExportInput{Mode: model.ReportModeSummary})
	assert.ErrorContains(t, err, "boom")
}

func TestWriteFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	svc := newService(samplePortal(), &fakeGenerator{}, nil)
	result := &ExportResult{Run: model.ExportRun{FileName: "contracts_2025_summary_20250301_140509.xlsx"}, Content: []byte("x")}

	path, err := svc.WriteFile(dir, result)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))
}

func TestWriteFileLocked(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permissions are not enforced for root")
	}
	dir := t.TempDir()
	require.NoError(t, os.Chmod(dir, 0o500))
	t.Cleanup(func() { _ = os.Chmod(dir, 0o700) })

	svc := newService(samplePortal(), &fakeGenerator{}, nil)
	_, err := svc.WriteFile(dir, &ExportResult{Run: model.ExportRun{FileName: "report.xlsx"}})
	assert.ErrorIs(t, err, ErrOutputLocked)
}

func TestFileName(t *testing.T) {
	at := time.Date(2024, 12, 31, 23, 59, 1, 0, time.UTC)
	assert.Equal(t, "contracts_2024_detail_20241231_235901.xlsx", FileName(2024, model.ReportModeDetail, FormatXLSX, at))
}
