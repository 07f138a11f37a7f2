package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type ReportMode string

const (
	ReportModeSummary ReportMode = "summary"
	ReportModeDetail  ReportMode = "detail"
)

// ParseReportMode accepts the mode names used in configuration and requests.
func ParseReportMode(raw string) (ReportMode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "summary":
		return ReportModeSummary, nil
	case "detail", "detailed":
		return ReportModeDetail, nil
	default:
		return "", fmt.Errorf("unknown report mode %q", raw)
	}
}

type RowKind string

const (
	RowKindSummary RowKind = "summary"
	RowKindHeader  RowKind = "header"
	RowKindItem    RowKind = "item"
)

type ColumnKind int

const (
	ColumnText ColumnKind = iota
	ColumnInteger
	ColumnAmount
	ColumnVariance
)

type Column struct {
	Title string
	Kind  ColumnKind
}

// Row is one rendered line of a report; Cells follow the report's column
// order and use nil for "no data".
type Row interface {
	Kind() RowKind
	Cells() []any
}

type SummaryRow struct {
	Number                int
	RegistryNumber        string
	PurchaseNumber        string
	Description           string
	ContractTypeName      string
	ContractStatusName    string
	ProcurementMethodName string
	FinancialYear         int
	PlannedSum            *decimal.Decimal
	ActualSum             *decimal.Decimal
	Variance              *decimal.Decimal
	SupplierName          string
	SignDate              string
}

func (r SummaryRow) Kind() RowKind { return RowKindSummary }

func (r SummaryRow) Cells() []any {
	return []any{
		r.Number,
		r.RegistryNumber,
		r.PurchaseNumber,
		r.Description,
		r.ContractTypeName,
		r.ContractStatusName,
		r.ProcurementMethodName,
		yearCell(r.FinancialYear),
		decimalCell(r.PlannedSum),
		decimalCell(r.ActualSum),
		decimalCell(r.Variance),
		r.SupplierName,
		r.SignDate,
	}
}

// DetailRow is either a contract header (contract fields set, item fields
// empty) or an item line (item fields set, contract fields empty).
type DetailRow struct {
	RowKind               RowKind
	Number                int
	RegistryNumber        string
	PurchaseNumber        string
	Description           string
	SupplierName          string
	SignDate              string
	ContractTypeName      string
	ContractStatusName    string
	ProcurementMethodName string
	FinancialYear         int
	ContractSum           *decimal.Decimal
	ItemName              string
	Quantity              *decimal.Decimal
	UnitPrice             *decimal.Decimal
	PlannedSum            *decimal.Decimal
	ActualSum             *decimal.Decimal
	Variance              *decimal.Decimal
}

func (r DetailRow) Kind() RowKind { return r.RowKind }

func (r DetailRow) Cells() []any {
	var number any
	if r.Number > 0 {
		number = r.Number
	}
	return []any{
		number,
		r.RegistryNumber,
		r.PurchaseNumber,
		r.Description,
		r.SupplierName,
		r.SignDate,
		r.ContractTypeName,
		r.ContractStatusName,
		r.ProcurementMethodName,
		yearCell(r.FinancialYear),
		decimalCell(r.ContractSum),
		r.ItemName,
		decimalCell(r.Quantity),
		decimalCell(r.UnitPrice),
		decimalCell(r.PlannedSum),
		decimalCell(r.ActualSum),
		decimalCell(r.Variance),
	}
}

var SummaryColumns = []Column{
	{Title: "№", Kind: ColumnInteger},
	{Title: "Номер договора в реестре договоров", Kind: ColumnText},
	{Title: "Номер закупки", Kind: ColumnText},
	{Title: "Описание договора", Kind: ColumnText},
	{Title: "Тип договора", Kind: ColumnText},
	{Title: "Статус договора", Kind: ColumnText},
	{Title: "Способ закупки", Kind: ColumnText},
	{Title: "Финансовый год", Kind: ColumnInteger},
	{Title: "Плановая сумма без НДС", Kind: ColumnAmount},
	{Title: "Сумма без НДС", Kind: ColumnAmount},
	{Title: "Сумма экономии без НДС", Kind: ColumnVariance},
	{Title: "Поставщик", Kind: ColumnText},
	{Title: "Дата заключения", Kind: ColumnText},
}

var DetailColumns = []Column{
	{Title: "№", Kind: ColumnInteger},
	{Title: "Номер договора", Kind: ColumnText},
	{Title: "Номер закупки", Kind: ColumnText},
	{Title: "Описание договора", Kind: ColumnText},
	{Title: "Поставщик", Kind: ColumnText},
	{Title: "Дата заключения", Kind: ColumnText},
	{Title: "Тип договора", Kind: ColumnText},
	{Title: "Статус договора", Kind: ColumnText},
	{Title: "Способ закупки", Kind: ColumnText},
	{Title: "Финансовый год", Kind: ColumnInteger},
	{Title: "Общая сумма договора", Kind: ColumnAmount},
	{Title: "Наименование позиции", Kind: ColumnText},
	{Title: "Количество", Kind: ColumnAmount},
	{Title: "Плановая цена за единицу", Kind: ColumnAmount},
	{Title: "Плановая сумма", Kind: ColumnAmount},
	{Title: "Сумма по договору", Kind: ColumnAmount},
	{Title: "Экономия", Kind: ColumnVariance},
}

// Stats are the counters gathered while aggregating. Summary mode fills
// WithPlan/WithoutPlan, detail mode fills the item counters.
type Stats struct {
	Contracts             int
	WithPlan              int
	WithoutPlan           int
	Items                 int
	ContractsWithoutItems int
}

// AverageItems is the mean number of line items per contract.
func (s Stats) AverageItems() float64 {
	if s.Contracts == 0 {
		return 0
	}
	return float64(s.Items) / float64(s.Contracts)
}

type Report struct {
	Mode        ReportMode
	CustomerBIN string
	FinYear     int
	Columns     []Column
	Rows        []Row
	Stats       Stats
}

func decimalCell(value *decimal.Decimal) any {
	if value == nil {
		return nil
	}
	return *value
}

func yearCell(year int) any {
	if year <= 0 {
		return nil
	}
	return year
}
