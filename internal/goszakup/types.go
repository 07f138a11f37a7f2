package goszakup

import (
	"encoding/json"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/nurpe/goszakup-contracts/internal/amount"
	"github.com/nurpe/goszakup-contracts/internal/model"
)

// Contract is a contract exactly as the API returns it. Amounts stay raw
// because the portal sends numbers, numeric strings and blanks alike.
type Contract struct {
	ID                int64           `json:"id"`
	ContractNumberSys string          `json:"contractNumberSys"`
	TrdBuyNumberAnno  string          `json:"trdBuyNumberAnno"`
	TrdBuyNameRu      string          `json:"trdBuyNameRu"`
	DescriptionRu     string          `json:"descriptionRu"`
	FinYear           int             `json:"finYear"`
	ContractSum       json.RawMessage `json:"contractSum"`
	SignDate          string          `json:"signDate"`
	Supplier          *NamedRef       `json:"Supplier"`
	RefContractType   *NamedRef       `json:"RefContractType"`
	RefContractStatus *NamedRef       `json:"RefContractStatus"`
	FaktTradeMethods  *NamedRef       `json:"FaktTradeMethods"`
	ContractUnits     []ContractUnit  `json:"ContractUnits"`
}

type NamedRef struct {
	NameRu string `json:"nameRu"`
}

type ContractUnit struct {
	PlnPointID *int64          `json:"plnPointId"`
	ItemPrice  json.RawMessage `json:"itemPrice"`
	Quantity   json.RawMessage `json:"quantity"`
	TotalSum   json.RawMessage `json:"totalSum"`
}

type Plan struct {
	ID          int64           `json:"id"`
	NameRu      string          `json:"nameRu"`
	Count       json.RawMessage `json:"count"`
	Price       json.RawMessage `json:"price"`
	Amount      json.RawMessage `json:"amount"`
	ExtraDescRu string          `json:"extraDescRu"`
}

// Mapper converts wire records into model records. Every optional field gets
// its fallback here so aggregation never deals with absent values.
type Mapper struct {
	log zerolog.Logger
}

func NewMapper(log zerolog.Logger) *Mapper {
	return &Mapper{log: log}
}

func (m *Mapper) Contracts(contracts []Contract) []model.ContractRecord {
	records := make([]model.ContractRecord, 0, len(contracts))
	for _, c := range contracts {
		records = append(records, m.Contract(c))
	}
	return records
}

func (m *Mapper) Contract(c Contract) model.ContractRecord {
	record := model.ContractRecord{
		ID:                    c.ID,
		RegistryNumber:        c.ContractNumberSys,
		PurchaseNumber:        c.TrdBuyNumberAnno,
		Description:           firstNonBlank(c.DescriptionRu, c.TrdBuyNameRu),
		FinancialYear:         c.FinYear,
		ContractSum:           m.amount(c.ContractSum, "contractSum", c.ID),
		SignDate:              c.SignDate,
		SupplierName:          refName(c.Supplier),
		ContractTypeName:      refName(c.RefContractType),
		ContractStatusName:    refName(c.RefContractStatus),
		ProcurementMethodName: refName(c.FaktTradeMethods),
		LineItems:             make([]model.LineItem, 0, len(c.ContractUnits)),
	}

	for _, unit := range c.ContractUnits {
		item := model.LineItem{
			UnitPrice: m.amount(unit.ItemPrice, "itemPrice", c.ID),
			Quantity:  m.amount(unit.Quantity, "quantity", c.ID),
			TotalSum:  m.amount(unit.TotalSum, "totalSum", c.ID),
		}
		if unit.PlnPointID != nil && *unit.PlnPointID != 0 {
			id := *unit.PlnPointID
			item.PlanPointID = &id
		}
		record.LineItems = append(record.LineItems, item)
	}
	return record
}

func (m *Mapper) Plan(p Plan) model.PlanEntry {
	return model.PlanEntry{
		ID:               p.ID,
		Name:             p.NameRu,
		Count:            m.amount(p.Count, "count", p.ID),
		UnitPrice:        m.amount(p.Price, "price", p.ID),
		Amount:           m.amount(p.Amount, "amount", p.ID),
		ExtraDescription: p.ExtraDescRu,
	}
}

func (m *Mapper) LookupTable(plans map[int64]Plan) model.LookupTable {
	table := make(model.LookupTable, len(plans))
	for id, plan := range plans {
		table[id] = m.Plan(plan)
	}
	return table
}

func (m *Mapper) amount(raw json.RawMessage, field string, id int64) decimal.Decimal {
	value, ok := amount.Parse(raw)
	if !ok {
		m.log.Debug().Str("field", field).Int64("id", id).Str("raw", string(raw)).Msg("unparsable amount, using 0")
	}
	return value
}

func refName(ref *NamedRef) string {
	if ref == nil {
		return ""
	}
	return ref.NameRu
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
