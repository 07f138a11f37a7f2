package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/goszakup-contracts/internal/http/middleware"
	"github.com/nurpe/goszakup-contracts/internal/model"
	"github.com/nurpe/goszakup-contracts/internal/service"
)

type staticParser struct{}

func (staticParser) Parse(token string) (model.Principal, error) {
	if token != "good" {
		return model.Principal{}, errors.New("bad token")
	}
	return model.Principal{UserID: uuid.New()}, nil
}

type fakeExporter struct {
	inputs []service.ExportInput
	result *service.ExportResult
	err    error
}

func (f *fakeExporter) Export(_ context.Context, input service.ExportInput) (*service.ExportResult, error) {
	f.inputs = append(f.inputs, input)
	return f.result, f.err
}

func newTestRouter(exporter Exporter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(NewHandler(exporter, zerolog.Nop()), middleware.Auth(staticParser{}), "test")
}

func post(router *gin.Engine, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/reports/export", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestExportReturnsWorkbook(t *testing.T) {
	exporter := &fakeExporter{result: &service.ExportResult{
		Run:     model.ExportRun{FileName: "contracts_2025_summary_20250301_140509.xlsx", Status: model.RunStatusComplete},
		Content: []byte("xlsx-bytes"),
	}}
	rec := post(newTestRouter(exporter), "good", `{"customer_bin":" 020240003361 ","fin_year":2025,"mode":"summary","max_pages":3}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, contentTypeXLSX, rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="contracts_2025_summary_20250301_140509.xlsx"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "COMPLETE", rec.Header().Get("X-Export-Status"))
	assert.Equal(t, "xlsx-bytes", rec.Body.String())

	require.Len(t, exporter.inputs, 1)
	assert.Equal(t, service.ExportInput{
		CustomerBIN: "020240003361",
		FinYear:     2025,
		Mode:        model.ReportModeSummary,
		MaxPages:    3,
	}, exporter.inputs[0])
}

func TestExportReturnsPDF(t *testing.T) {
	exporter := &fakeExporter{result: &service.ExportResult{
		Run:     model.ExportRun{FileName: "contracts_2025_detail_20250301_140509.pdf"},
		Content: []byte("%PDF"),
	}}
	rec := post(newTestRouter(exporter), "good", `{"mode":"detailed","format":"PDF"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, contentTypePDF, rec.Header().Get("Content-Type"))
	assert.Equal(t, model.ReportModeDetail, exporter.inputs[0].Mode)
	assert.Equal(t, "pdf", exporter.inputs[0].Format)
}

func TestExportEmptyReport(t *testing.T) {
	exporter := &fakeExporter{result: &service.ExportResult{Empty: true}}
	rec := post(newTestRouter(exporter), "good", `{"mode":"summary"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestExportErrors(t *testing.T) {
	tests := []struct {
		name  string
		token string
		body  string
		err   error
		want  int
	}{
		{"no token", "", `{"mode":"summary"}`, nil, http.StatusUnauthorized},
		{"bad token", "bad", `{"mode":"summary"}`, nil, http.StatusUnauthorized},
		{"missing mode", "good", `{}`, nil, http.StatusBadRequest},
		{"unknown mode", "good", `{"mode":"pivot"}`, nil, http.StatusBadRequest},
		{"invalid input", "good", `{"mode":"summary"}`, fmt.Errorf("%w: fin_year", service.ErrInvalidInput), http.StatusBadRequest},
		{"upstream failure", "good", `{"mode":"summary"}`, errors.New("retries exhausted"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exporter := &fakeExporter{err: tt.err, result: &service.ExportResult{}}
			rec := post(newTestRouter(exporter), tt.token, tt.body)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(&fakeExporter{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
