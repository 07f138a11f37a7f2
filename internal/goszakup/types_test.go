package goszakup

import (
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleContract = `{
  "id": 512,
  "contractNumberSys": "Д-2025-0001",
  "trdBuyNumberAnno": "1234567-1",
  "trdBuyNameRu": "Закупка бумаги",
  "descriptionRu": null,
  "finYear": 2025,
  "contractSum": " 1500.00 ",
  "signDate": "2025-03-01 00:00:00",
  "Supplier": {"nameRu": "ТОО Поставщик"},
  "RefContractType": null,
  "RefContractStatus": {"nameRu": "Действует"},
  "FaktTradeMethods": {"nameRu": "Запрос ценовых предложений"},
  "ContractUnits": [
    {"plnPointId": 70, "itemPrice": 100, "quantity": "6", "totalSum": "600"},
    {"plnPointId": 0, "itemPrice": "abc", "quantity": null, "totalSum": ""},
    {"itemPrice": 1, "quantity": 1, "totalSum": 1}
  ]
}`

func TestMapperContract(t *testing.T) {
	var wire Contract
	require.NoError(t, json.Unmarshal([]byte(sampleContract), &wire))

	record := NewMapper(zerolog.Nop()).Contract(wire)

	assert.Equal(t, int64(512), record.ID)
	assert.Equal(t, "Д-2025-0001", record.RegistryNumber)
	assert.Equal(t, "Закупка бумаги", record.Description, "falls back to the purchase title")
	assert.Equal(t, 2025, record.FinancialYear)
	assert.True(t, decimal.NewFromInt(1500).Equal(record.ContractSum))
	assert.Equal(t, "ТОО Поставщик", record.SupplierName)
	assert.Empty(t, record.ContractTypeName)
	assert.Equal(t, "Действует", record.ContractStatusName)

	require.Len(t, record.LineItems, 3)
	require.NotNil(t, record.LineItems[0].PlanPointID)
	assert.Equal(t, int64(70), *record.LineItems[0].PlanPointID)
	assert.True(t, decimal.NewFromInt(600).Equal(record.LineItems[0].TotalSum))
	assert.True(t, decimal.NewFromInt(6).Equal(record.LineItems[0].Quantity))

	assert.Nil(t, record.LineItems[1].PlanPointID, "zero plan id means unlinked")
	assert.True(t, record.LineItems[1].UnitPrice.IsZero())
	assert.True(t, record.LineItems[1].TotalSum.IsZero())
	assert.Nil(t, record.LineItems[2].PlanPointID)
}

func TestMapperDescriptionPrefersDetailed(t *testing.T) {
	record := NewMapper(zerolog.Nop()).Contract(Contract{DescriptionRu: "Подробно", TrdBuyNameRu: "Кратко"})
	assert.Equal(t, "Подробно", record.Description)
	assert.NotNil(t, record.LineItems)

	record = NewMapper(zerolog.Nop()).Contract(Contract{})
	assert.Empty(t, record.Description)
}

func TestMapperLookupTable(t *testing.T) {
	table := NewMapper(zerolog.Nop()).LookupTable(map[int64]Plan{
		70: {ID: 70, NameRu: "Бумага А4", Count: json.RawMessage(`"6"`), Price: json.RawMessage(`100`), Amount: json.RawMessage(`"600.50"`)},
		71: {ID: 71, Amount: json.RawMessage(`null`)},
	})

	require.Len(t, table, 2)
	assert.Equal(t, "Бумага А4", table[70].Name)
	assert.True(t, decimal.RequireFromString("600.5").Equal(table[70].Amount))
	assert.True(t, table[71].Amount.IsZero())
}

func TestContractRoundTripKeepsRawAmounts(t *testing.T) {
	var wire Contract
	require.NoError(t, json.Unmarshal([]byte(sampleContract), &wire))

	out, err := json.Marshal(wire)
	require.NoError(t, err)

	var again Contract
	require.NoError(t, json.Unmarshal(out, &again))
	assert.Equal(t, `" 1500.00 "`, string(again.ContractSum))
}
