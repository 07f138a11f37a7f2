package model

import "github.com/shopspring/decimal"

// ContractRecord is one procurement contract of the customer.
type ContractRecord struct {
	ID                    int64
	RegistryNumber        string
	PurchaseNumber        string
	Description           string
	FinancialYear         int
	ContractSum           decimal.Decimal
	SignDate              string
	SupplierName          string
	ContractTypeName      string
	ContractStatusName    string
	ProcurementMethodName string
	LineItems             []LineItem
}

// LineItem is one contract unit. PlanPointID is nil when the unit is not
// linked to a budget plan line.
type LineItem struct {
	PlanPointID *int64
	UnitPrice   decimal.Decimal
	Quantity    decimal.Decimal
	TotalSum    decimal.Decimal
}

// PlanEntry is one line of the customer's annual procurement plan.
type PlanEntry struct {
	ID               int64
	Name             string
	Count            decimal.Decimal
	UnitPrice        decimal.Decimal
	Amount           decimal.Decimal
	ExtraDescription string
}

// LookupTable maps plan line ids to plan lines. It is built once per run and
// only read afterwards.
type LookupTable map[int64]PlanEntry

// Resolve returns the plan line a unit points at, if any.
func (t LookupTable) Resolve(item LineItem) (PlanEntry, bool) {
	if item.PlanPointID == nil {
		return PlanEntry{}, false
	}
	plan, ok := t[*item.PlanPointID]
	return plan, ok
}

// PlanPointIDs collects the distinct plan line ids referenced by the
// contracts, in first-seen order.
func PlanPointIDs(contracts []ContractRecord) []int64 {
	seen := make(map[int64]struct{})
	ids := make([]int64, 0)
	for _, contract := range contracts {
		for _, item := range contract.LineItems {
			if item.PlanPointID == nil {
				continue
			}
			id := *item.PlanPointID
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}
