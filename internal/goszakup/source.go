package goszakup

import (
	"context"

	"github.com/nurpe/goszakup-contracts/internal/fetch"
	"github.com/nurpe/goszakup-contracts/internal/model"
)

// ContractsQuery selects the customer's contracts for one financial year.
func ContractsQuery(customerBIN string, finYear int) fetch.Query[Contract] {
	return fetch.Query[Contract]{
		Name:  "contracts",
		Text:  contractsQuery,
		Field: "Contract",
		Filter: map[string]any{
			"customerBin": customerBIN,
			"finYear":     finYear,
		},
		Cursor: func(c Contract) int64 { return c.ID },
	}
}

// PlansQuery selects the plan lines with the given ids.
func PlansQuery(ids []int64) fetch.Query[Plan] {
	return fetch.Query[Plan]{
		Name:   "plans",
		Text:   plansQuery,
		Field:  "Plans",
		Filter: map[string]any{"ids": ids},
		Cursor: func(p Plan) int64 { return p.ID },
	}
}

// FetchContracts pages through every contract of the customer.
func FetchContracts(ctx context.Context, pager *fetch.Pager, customerBIN string, finYear int, opts fetch.PageOptions) (fetch.Result[Contract], error) {
	return fetch.Fetch(ctx, pager, ContractsQuery(customerBIN, finYear), opts)
}

// ResolvePlans builds the plan lookup table for the referenced plan ids.
func ResolvePlans(ctx context.Context, pager *fetch.Pager, mapper *Mapper, ids []int64, opts fetch.BatchOptions) (model.LookupTable, fetch.BatchReport, error) {
	plans, report, err := fetch.ResolveBatches(ctx, pager, ids, opts, PlansQuery, func(p Plan) int64 { return p.ID })
	return mapper.LookupTable(plans), report, err
}
