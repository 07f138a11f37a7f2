package excel

import (
	"fmt"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/nurpe/goszakup-contracts/internal/model"
)

const (
	SheetName = "Договоры"

	fontFamily   = "Times New Roman"
	fontSize     = 12
	amountFormat = "#,##0.00"
	maxColWidth  = 60
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// styles holds the style ids registered on one workbook.
type styles struct {
	header       int
	plain        int
	plainAmount  int
	shaded       int
	shadedAmount int
	positive     int
	negative     int
}

func (g *Generator) Generate(report model.Report) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, err
	}

	st, err := registerStyles(file)
	if err != nil {
		return nil, fmt.Errorf("register styles: %w", err)
	}

	widths := make([]int, len(report.Columns))
	for i, column := range report.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := file.SetCellValue(SheetName, cell, column.Title); err != nil {
			return nil, err
		}
		widths[i] = utf8.RuneCountInString(column.Title)
	}
	if len(report.Columns) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(report.Columns), 1)
		if err := file.SetCellStyle(SheetName, "A1", last, st.header); err != nil {
			return nil, err
		}
	}

	for i, row := range report.Rows {
		rowNum := i + 2
		for col, value := range row.Cells() {
			if col >= len(report.Columns) {
				break
			}
			cell, _ := excelize.CoordinatesToCellName(col+1, rowNum)
			if value != nil {
				if err := file.SetCellValue(SheetName, cell, cellValue(value)); err != nil {
					return nil, err
				}
			}
			if err := file.SetCellStyle(SheetName, cell, cell, st.pick(report.Mode, row.Kind(), rowNum, report.Columns[col], value)); err != nil {
				return nil, err
			}
			if n := displayWidth(value); n > widths[col] {
				widths[col] = n
			}
		}
	}

	for i, width := range widths {
		name, _ := excelize.ColumnNumberToName(i + 1)
		if err := file.SetColWidth(SheetName, name, name, float64(min(width+2, maxColWidth))); err != nil {
			return nil, err
		}
	}

	if err := file.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, err
	}

	if len(report.Columns) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(report.Columns), len(report.Rows)+1)
		if err := file.AutoFilter(SheetName, "A1:"+last, nil); err != nil {
			return nil, err
		}
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func registerStyles(file *excelize.File) (styles, error) {
	var st styles
	numFmt := amountFormat
	border := []excelize.Border{
		{Type: "left", Color: "CCCCCC", Style: 1},
		{Type: "right", Color: "CCCCCC", Style: 1},
		{Type: "top", Color: "CCCCCC", Style: 1},
		{Type: "bottom", Color: "CCCCCC", Style: 1},
	}
	body := func(fill string, amount bool, font *excelize.Font) *excelize.Style {
		style := &excelize.Style{
			Border:    border,
			Fill:      excelize.Fill{Type: "pattern", Color: []string{fill}, Pattern: 1},
			Font:      &excelize.Font{Family: fontFamily, Size: fontSize},
			Alignment: &excelize.Alignment{Vertical: "center", WrapText: true},
		}
		if font != nil {
			style.Font = font
		}
		if amount {
			style.CustomNumFmt = &numFmt
		}
		return style
	}

	defs := []struct {
		target *int
		style  *excelize.Style
	}{
		{&st.header, &excelize.Style{
			Border:    border,
			Fill:      excelize.Fill{Type: "pattern", Color: []string{"366092"}, Pattern: 1},
			Font:      &excelize.Font{Family: fontFamily, Size: fontSize, Bold: true, Color: "FFFFFF"},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		}},
		{&st.plain, body("FFFFFF", false, nil)},
		{&st.plainAmount, body("FFFFFF", true, nil)},
		{&st.shaded, body("F5F5F5", false, nil)},
		{&st.shadedAmount, body("F5F5F5", true, nil)},
		{&st.positive, body("E8F5E9", true, &excelize.Font{Family: fontFamily, Size: fontSize, Bold: true, Color: "2E7D32"})},
		{&st.negative, body("FFEBEE", true, &excelize.Font{Family: fontFamily, Size: fontSize, Bold: true, Color: "C62828"})},
	}
	for _, def := range defs {
		id, err := file.NewStyle(def.style)
		if err != nil {
			return st, err
		}
		*def.target = id
	}
	return st, nil
}

// pick chooses the style of one data cell. Summary rows alternate fills,
// detail header rows are gray and item rows white. Variances are colored:
// both signs in summary mode, only negative ones in detail mode.
func (st styles) pick(mode model.ReportMode, kind model.RowKind, rowNum int, column model.Column, value any) int {
	numeric := column.Kind == model.ColumnAmount || column.Kind == model.ColumnVariance

	if column.Kind == model.ColumnVariance {
		if d, ok := value.(decimal.Decimal); ok {
			switch {
			case d.Sign() < 0:
				return st.negative
			case d.Sign() > 0 && mode == model.ReportModeSummary:
				return st.positive
			}
		}
	}

	var shaded bool
	if mode == model.ReportModeSummary {
		shaded = rowNum%2 == 0
	} else {
		shaded = kind == model.RowKindHeader
	}

	switch {
	case shaded && numeric:
		return st.shadedAmount
	case shaded:
		return st.shaded
	case numeric:
		return st.plainAmount
	default:
		return st.plain
	}
}

func cellValue(value any) any {
	switch v := value.(type) {
	case decimal.Decimal:
		return v.InexactFloat64()
	default:
		return v
	}
}

func displayWidth(value any) int {
	switch v := value.(type) {
	case nil:
		return 0
	case string:
		return utf8.RuneCountInString(v)
	case decimal.Decimal:
		return len(v.StringFixed(2))
	default:
		return len(fmt.Sprint(v))
	}
}
