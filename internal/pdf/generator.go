package pdf

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"github.com/nurpe/goszakup-contracts/internal/model"
)

const (
	pageMargin = 10.0
	fontSize   = 6.0
	lineHeight = 3.5
)

// Generator renders a report as a landscape A4 table. Cyrillic text needs a
// UTF-8 TrueType font; without one the core Helvetica font is used and
// characters outside cp1252 are printed as dots.
type Generator struct {
	fontName string
	fontData []byte
}

func NewGenerator(fontPath string) (*Generator, error) {
	if strings.TrimSpace(fontPath) == "" {
		return &Generator{fontName: "Helvetica"}, nil
	}
	data, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("read font: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("font data is empty")
	}
	return &Generator{fontName: "ReportSans", fontData: data}, nil
}

func (g *Generator) Generate(report model.Report) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)

	tr := func(s string) string { return s }
	if g.fontData != nil {
		pdf.AddUTF8FontFromBytes(g.fontName, "", g.fontData)
		pdf.AddUTF8FontFromBytes(g.fontName, "B", g.fontData)
	} else {
		tr = pdf.UnicodeTranslatorFromDescriptor("")
	}
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("load font: %w", err)
	}

	pdf.AddPage()
	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, tr(title(report)), "", 1, "C", false, 0, "")
	pdf.Ln(2)

	widths := columnWidths(pdf, report.Columns)
	headers := make([]string, len(report.Columns))
	for i, column := range report.Columns {
		headers[i] = tr(column.Title)
	}
	drawTableRow(pdf, g.fontName, g.fontData != nil, headers, widths, report.Columns, true, false)

	for _, row := range report.Rows {
		cells := row.Cells()
		values := make([]string, len(report.Columns))
		for i := range report.Columns {
			if i < len(cells) {
				values[i] = tr(formatCell(cells[i]))
			}
		}
		shaded := row.Kind() == model.RowKindHeader
		drawTableRow(pdf, g.fontName, g.fontData != nil, values, widths, report.Columns, shaded, shaded)
	}

	pdf.Ln(2)
	pdf.SetFont(g.fontName, "", 8)
	pdf.CellFormat(0, 5, tr(footer(report)), "", 1, "L", false, 0, "")

	if err := pdf.Error(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func title(report model.Report) string {
	kind := "сводный"
	if report.Mode == model.ReportModeDetail {
		kind = "детальный"
	}
	parts := []string{fmt.Sprintf("Договоры (%s отчёт)", kind)}
	if report.CustomerBIN != "" {
		parts = append(parts, "БИН "+report.CustomerBIN)
	}
	if report.FinYear > 0 {
		parts = append(parts, fmt.Sprintf("%d год", report.FinYear))
	}
	return strings.Join(parts, ", ")
}

func footer(report model.Report) string {
	if report.Mode == model.ReportModeDetail {
		return fmt.Sprintf("Договоров: %d, позиций: %d, без позиций: %d",
			report.Stats.Contracts, report.Stats.Items, report.Stats.ContractsWithoutItems)
	}
	return fmt.Sprintf("Договоров: %d, с планом: %d, без плана: %d",
		report.Stats.Contracts, report.Stats.WithPlan, report.Stats.WithoutPlan)
}

// columnWidths splits the printable width giving text columns twice the
// share of numeric ones.
func columnWidths(pdf *gofpdf.Fpdf, columns []model.Column) []float64 {
	pageWidth, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	available := pageWidth - left - right

	var units float64
	for _, column := range columns {
		units += columnUnits(column)
	}
	widths := make([]float64, len(columns))
	if units == 0 {
		return widths
	}
	for i, column := range columns {
		widths[i] = available * columnUnits(column) / units
	}
	return widths
}

func columnUnits(column model.Column) float64 {
	switch column.Kind {
	case model.ColumnInteger:
		return 0.6
	case model.ColumnAmount, model.ColumnVariance:
		return 1
	default:
		return 2
	}
}

func drawTableRow(pdf *gofpdf.Fpdf, fontName string, utf8 bool, cols []string, widths []float64, columns []model.Column, bold, fill bool) {
	style := ""
	if bold {
		style = "B"
	}
	pdf.SetFont(fontName, style, fontSize)
	rectStyle := "D"
	if fill {
		pdf.SetFillColor(245, 245, 245)
		rectStyle = "FD"
	}

	lines := 1
	for i, col := range cols {
		if n := lineCount(pdf, utf8, col, widths[i]); n > lines {
			lines = n
		}
	}
	height := float64(lines) * lineHeight

	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	if pdf.GetY()+height > pageHeight-bottom {
		pdf.AddPage()
		pdf.SetFont(fontName, style, fontSize)
	}

	x, y := pdf.GetXY()
	for i, col := range cols {
		align := "L"
		if columns[i].Kind != model.ColumnText {
			align = "R"
		}
		pdf.Rect(x, y, widths[i], height, rectStyle)
		pdf.SetXY(x, y)
		pdf.MultiCell(widths[i], lineHeight, col, "", align, false)
		x += widths[i]
	}
	pdf.SetXY(pageMargin, y+height)
}

// lineCount reports how many lines MultiCell will need. Core fonts hold
// cp1252 bytes, so they are measured byte-wise.
func lineCount(pdf *gofpdf.Fpdf, utf8 bool, text string, width float64) int {
	if utf8 {
		return len(pdf.SplitText(text, width))
	}
	return len(pdf.SplitLines([]byte(text), width))
}

func formatCell(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case decimal.Decimal:
		return v.StringFixed(2)
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
