// Package aggregate joins contracts with their plan lines and produces the
// report rows for the summary and detail modes.
package aggregate

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/nurpe/goszakup-contracts/internal/amount"
	"github.com/nurpe/goszakup-contracts/internal/model"
)

// unresolvedPlanName is shown for units without a resolvable plan line.
const unresolvedPlanName = "-"

type Engine struct {
	log zerolog.Logger
}

func NewEngine(log zerolog.Logger) *Engine {
	return &Engine{log: log}
}

// Build produces the report for mode. The lookup table is only read.
func (e *Engine) Build(mode model.ReportMode, contracts []model.ContractRecord, lookup model.LookupTable) (model.Report, error) {
	report := model.Report{Mode: mode}

	switch mode {
	case model.ReportModeSummary:
		report.Columns = model.SummaryColumns
		report.Rows, report.Stats = Summary(contracts, lookup)
		e.log.Info().
			Int("contracts", report.Stats.Contracts).
			Int("with_plan", report.Stats.WithPlan).
			Int("without_plan", report.Stats.WithoutPlan).
			Msg("summary built")
	case model.ReportModeDetail:
		report.Columns = model.DetailColumns
		report.Rows, report.Stats = Detail(contracts, lookup)
		e.log.Info().
			Int("contracts", report.Stats.Contracts).
			Int("items", report.Stats.Items).
			Int("contracts_without_items", report.Stats.ContractsWithoutItems).
			Str("average_items", fmt.Sprintf("%.1f", report.Stats.AverageItems())).
			Msg("detail built")
	default:
		return model.Report{}, fmt.Errorf("unsupported report mode %q", mode)
	}

	e.log.Info().Int("rows", len(report.Rows)).Msg("rows transformed")
	return report, nil
}

// PlannedSum adds up the plan amounts of every unit that resolves in lookup.
func PlannedSum(contract model.ContractRecord, lookup model.LookupTable) decimal.Decimal {
	total := decimal.Zero
	for _, item := range contract.LineItems {
		if plan, ok := lookup.Resolve(item); ok {
			total = total.Add(plan.Amount)
		}
	}
	return total
}

// Summary emits one row per contract.
func Summary(contracts []model.ContractRecord, lookup model.LookupTable) ([]model.Row, model.Stats) {
	rows := make([]model.Row, 0, len(contracts))
	stats := model.Stats{Contracts: len(contracts)}

	for i, contract := range contracts {
		planned := PlannedSum(contract, lookup)
		actual := contract.ContractSum

		if amount.Positive(planned) {
			stats.WithPlan++
		} else {
			stats.WithoutPlan++
		}

		rows = append(rows, model.SummaryRow{
			Number:                i + 1,
			RegistryNumber:        contract.RegistryNumber,
			PurchaseNumber:        contract.PurchaseNumber,
			Description:           contract.Description,
			ContractTypeName:      contract.ContractTypeName,
			ContractStatusName:    contract.ContractStatusName,
			ProcurementMethodName: contract.ProcurementMethodName,
			FinancialYear:         contract.FinancialYear,
			PlannedSum:            amount.PositiveOnly(planned),
			ActualSum:             amount.PositiveOnly(actual),
			Variance:              amount.Variance(planned, actual),
			SupplierName:          contract.SupplierName,
			SignDate:              contract.SignDate,
		})
	}
	return rows, stats
}

// Detail emits a header row per contract followed by one row per unit.
func Detail(contracts []model.ContractRecord, lookup model.LookupTable) ([]model.Row, model.Stats) {
	rows := make([]model.Row, 0, len(contracts))
	stats := model.Stats{Contracts: len(contracts)}

	for i, contract := range contracts {
		rows = append(rows, model.DetailRow{
			RowKind:               model.RowKindHeader,
			Number:                i + 1,
			RegistryNumber:        contract.RegistryNumber,
			PurchaseNumber:        contract.PurchaseNumber,
			Description:           contract.Description,
			SupplierName:          contract.SupplierName,
			SignDate:              contract.SignDate,
			ContractTypeName:      contract.ContractTypeName,
			ContractStatusName:    contract.ContractStatusName,
			ProcurementMethodName: contract.ProcurementMethodName,
			FinancialYear:         contract.FinancialYear,
			ContractSum:           amount.PositiveOnly(contract.ContractSum),
		})

		if len(contract.LineItems) == 0 {
			stats.ContractsWithoutItems++
			continue
		}

		for _, item := range contract.LineItems {
			stats.Items++
			rows = append(rows, itemRow(item, lookup))
		}
	}
	return rows, stats
}

func itemRow(item model.LineItem, lookup model.LookupTable) model.DetailRow {
	name := unresolvedPlanName
	planned := decimal.Zero
	if plan, ok := lookup.Resolve(item); ok {
		planned = plan.Amount
		name = plan.Name
	}

	return model.DetailRow{
		RowKind:    model.RowKindItem,
		ItemName:   name,
		Quantity:   amount.PositiveOnly(item.Quantity),
		UnitPrice:  amount.PositiveOnly(item.UnitPrice),
		PlannedSum: amount.PositiveOnly(planned),
		ActualSum:  amount.PositiveOnly(item.TotalSum),
		Variance:   amount.Variance(planned, item.TotalSum),
	}
}
