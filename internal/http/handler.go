package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/nurpe/goszakup-contracts/internal/http/middleware"
	"github.com/nurpe/goszakup-contracts/internal/model"
	"github.com/nurpe/goszakup-contracts/internal/service"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypePDF  = "application/pdf"
)

type Exporter interface {
	Export(ctx context.Context, input service.ExportInput) (*service.ExportResult, error)
}

type Handler struct {
	reports Exporter
	log     zerolog.Logger
}

func NewHandler(reports Exporter, log zerolog.Logger) *Handler {
	return &Handler{reports: reports, log: log}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	protected := router.Group("/")
	protected.Use(authMiddleware)
	protected.POST("/reports/export", h.exportReport)
}

type exportReportRequest struct {
	CustomerBIN string `json:"customer_bin"`
	FinYear     int    `json:"fin_year"`
	Mode        string `json:"mode" binding:"required"`
	MaxPages    int    `json:"max_pages"`
	Format      string `json:"format"`
}

func (h *Handler) exportReport(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req exportReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	mode, err := model.ParseReportMode(req.Mode)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid mode"})
		return
	}

	result, err := h.reports.Export(c.Request.Context(), service.ExportInput{
		CustomerBIN: strings.TrimSpace(req.CustomerBIN),
		FinYear:     req.FinYear,
		Mode:        mode,
		MaxPages:    req.MaxPages,
		Format:      strings.ToLower(strings.TrimSpace(req.Format)),
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	h.log.Info().
		Str("user_id", principal.UserID.String()).
		Str("run_id", result.Run.ID.String()).
		Str("status", string(result.Run.Status)).
		Msg("report exported")

	if result.Empty {
		c.Status(http.StatusNoContent)
		return
	}

	contentType := contentTypeXLSX
	if strings.HasSuffix(result.Run.FileName, "."+service.FormatPDF) {
		contentType = contentTypePDF
	}
	c.Header("Content-Disposition", "attachment; filename=\""+result.Run.FileName+"\"")
	c.Header("X-Export-Status", string(result.Run.Status))
	c.Data(http.StatusOK, contentType, result.Content)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, context.Canceled):
		c.Status(499)
	default:
		h.log.Error().Err(err).Msg("export report failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
