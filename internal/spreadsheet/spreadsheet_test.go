package spreadsheet

import (
	"bytes"
	"testing"
	"time"

	"github.com/ikkim/configurator-backend/internal/app/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/datatypes"
)

func TestWriteRFQs(t *testing.T) {
	rfq := model.RFQ{
		ID:          3,
		ProductName: "Jersey",
		Size:        "M",
		Quantity:    4,
		Status:      model.RFQStatusQuoted,
		Version:     3,
		Customer:    model.CustomerInfo{Name: "Ada", Email: "ada@example.com"},
		Selections: datatypes.NewJSONType(model.Selection{
			3: {Name: "White", Value: "#ffffff"},
			2: {Name: "Red", Value: "#ff0000"},
		}),
		CreatedAt: time.Date(2026, 1, 2, 15, 4, 0, 0, time.UTC),
	}
	rfq.Pricing.UnitPrice = decimal.RequireFromString("20")
	rfq.Pricing.LineTotal = decimal.RequireFromString("80")
	rfq.Pricing.AdditionalCostsTotal = decimal.RequireFromString("15")
	rfq.Pricing.GrandTotal = decimal.RequireFromString("95")

	var buf bytes.Buffer
	require.NoError(t, WriteRFQs(&buf, []model.RFQ{rfq}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(RFQSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "ID", rows[0][0])
	assert.Equal(t, "Grand Total", rows[0][13])

	assert.Equal(t, "3", rows[1][0])
	assert.Equal(t, "2026-01-02 15:04", rows[1][1])
	assert.Equal(t, "quoted", rows[1][2])
	assert.Equal(t, "Red (#ff0000), White (#ffffff)", rows[1][9])
	assert.Equal(t, "95.00", rows[1][13])
}

func TestWriteRFQs_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRFQs(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(RFQSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func catalogWorkbook(t *testing.T, products, layers [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetName(f.GetSheetName(0), ProductsSheet))
	_, err := f.NewSheet(LayersSheet)
	require.NoError(t, err)

	for i, row := range products {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, f.SetSheetRow(ProductsSheet, cell, &row))
	}
	for i, row := range layers {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, f.SetSheetRow(LayersSheet, cell, &row))
	}

	var buf bytes.Buffer
	_, err = f.WriteTo(&buf)
	require.NoError(t, err)
	return &buf
}

var (
	productHeader = []interface{}{"name", "base_price", "min_quantity", "lead_time_days", "description"}
	layerHeader   = []interface{}{"product", "layer", "type", "position", "option_name", "option_value", "option_fee"}
)

func TestReadCatalog(t *testing.T) {
	buf := catalogWorkbook(t,
		[][]interface{}{
			productHeader,
			{"Jersey", "20.00", "4", "10", "Sublimated"},
			{"Cap", "9.5", "", "", ""},
		},
		[][]interface{}{
			layerHeader,
			{"Jersey", "Base", "base", "0"},
			{"Jersey", "Lycra", "color", "1", "Red", "#ff0000"},
			{"Jersey", "Lycra", "color", "1", "Blue", "#0000ff", "2.50"},
			{"Cap", "Crown", "Pattern", "0", "Camo", "patterns/camo.png"},
		},
	)

	entries, err := ReadCatalog(buf)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	jersey := entries[0]
	assert.Equal(t, "Jersey", jersey.Product.Name)
	assert.True(t, jersey.Product.BasePrice.Equal(decimal.NewFromInt(20)))
	require.NotNil(t, jersey.Product.MinQuantity)
	assert.Equal(t, 4, *jersey.Product.MinQuantity)
	require.Len(t, jersey.Layers, 2)
	assert.Equal(t, model.LayerTypeBase, jersey.Layers[0].Type)
	assert.Empty(t, jersey.Layers[0].Options)
	require.Len(t, jersey.Layers[1].Options, 2)
	assert.Nil(t, jersey.Layers[1].Options[0].Fee)
	assert.True(t, jersey.Layers[1].Options[1].Fee.Equal(decimal.RequireFromString("2.5")))

	hat := entries[1]
	assert.Nil(t, hat.Product.MinQuantity)
	require.Len(t, hat.Layers, 1)
	assert.Equal(t, model.LayerTypePattern, hat.Layers[0].Type)
}

func TestReadCatalog_Errors(t *testing.T) {
	tests := []struct {
		name     string
		products [][]interface{}
		layers   [][]interface{}
	}{
		{
			name:     "bad price",
			products: [][]interface{}{productHeader, {"Jersey", "twenty"}},
			layers:   [][]interface{}{layerHeader},
		},
		{
			name:     "duplicate product",
			products: [][]interface{}{productHeader, {"Jersey", "20"}, {"Jersey", "21"}},
			layers:   [][]interface{}{layerHeader},
		},
		{
			name:     "layer for unknown product",
			products: [][]interface{}{productHeader, {"Jersey", "20"}},
			layers:   [][]interface{}{layerHeader, {"Hoodie", "Base", "base", "0"}},
		},
		{
			name:     "bad position",
			products: [][]interface{}{productHeader, {"Jersey", "20"}},
			layers:   [][]interface{}{layerHeader, {"Jersey", "Base", "base", "first"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCatalog(catalogWorkbook(t, tt.products, tt.layers))
			assert.ErrorIs(t, err, ErrInvalidWorkbook)
		})
	}
}
