package spreadsheet

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ikkim/configurator-backend/internal/app/model"
	"github.com/ikkim/configurator-backend/internal/app/service"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	ProductsSheet = "Products"
	LayersSheet   = "Layers"
)

var ErrInvalidWorkbook = errors.New("invalid catalog workbook")

// CatalogEntry is one product read from a catalog workbook.
type CatalogEntry struct {
	Product service.ProductInput
	Layers  []service.LayerInput
}

// ReadCatalog parses a workbook with a Products sheet
// (name, base_price, min_quantity, lead_time_days, description) and a Layers
// sheet (product, layer, type, position, option_name, option_value,
// option_fee) holding one row per option. The first row of each sheet is a
// header.
func ReadCatalog(r io.Reader) ([]CatalogEntry, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	productRows, err := f.GetRows(ProductsSheet)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}
	layerRows, err := f.GetRows(LayersSheet)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}

	var entries []CatalogEntry
	index := make(map[string]int)
	for i, row := range productRows {
		if i == 0 || isBlank(row) {
			continue
		}
		entry, err := parseProductRow(row)
		if err != nil {
			return nil, fmt.Errorf("%w: %s row %d: %v", ErrInvalidWorkbook, ProductsSheet, i+1, err)
		}
		if _, dup := index[entry.Product.Name]; dup {
			return nil, fmt.Errorf("%w: %s row %d: duplicate product %q", ErrInvalidWorkbook, ProductsSheet, i+1, entry.Product.Name)
		}
		index[entry.Product.Name] = len(entries)
		entries = append(entries, entry)
	}

	// layer rows are grouped by (product, layer name)
	layerIndex := make(map[string]int)
	for i, row := range layerRows {
		if i == 0 || isBlank(row) {
			continue
		}
		productName := cell(row, 0)
		pos, ok := index[productName]
		if !ok {
			return nil, fmt.Errorf("%w: %s row %d: unknown product %q", ErrInvalidWorkbook, LayersSheet, i+1, productName)
		}

		layerName := cell(row, 1)
		key := productName + "\x00" + layerName
		li, seen := layerIndex[key]
		if !seen {
			position, err := strconv.Atoi(cell(row, 3))
			if err != nil {
				return nil, fmt.Errorf("%w: %s row %d: position %q", ErrInvalidWorkbook, LayersSheet, i+1, cell(row, 3))
			}
			entries[pos].Layers = append(entries[pos].Layers, service.LayerInput{
				Name:     layerName,
				Type:     model.LayerType(strings.ToLower(cell(row, 2))),
				Position: position,
			})
			li = len(entries[pos].Layers) - 1
			layerIndex[key] = li
		}

		optName := cell(row, 4)
		if optName == "" {
			continue
		}
		opt := model.Option{Name: optName, Value: cell(row, 5)}
		if raw := cell(row, 6); raw != "" {
			fee, err := decimal.NewFromString(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: %s row %d: fee %q", ErrInvalidWorkbook, LayersSheet, i+1, raw)
			}
			opt.Fee = &fee
		}
		entries[pos].Layers[li].Options = append(entries[pos].Layers[li].Options, opt)
	}

	return entries, nil
}

func parseProductRow(row []string) (CatalogEntry, error) {
	name := cell(row, 0)
	if name == "" {
		return CatalogEntry{}, errors.New("name is required")
	}

	price, err := decimal.NewFromString(cell(row, 1))
	if err != nil {
		return CatalogEntry{}, fmt.Errorf("base price %q", cell(row, 1))
	}

	input := service.ProductInput{
		Name:        name,
		BasePrice:   price,
		Description: cell(row, 4),
	}
	if raw := cell(row, 2); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return CatalogEntry{}, fmt.Errorf("min quantity %q", raw)
		}
		input.MinQuantity = &n
	}
	if raw := cell(row, 3); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return CatalogEntry{}, fmt.Errorf("lead time %q", raw)
		}
		input.LeadTimeDays = &n
	}
	return CatalogEntry{Product: input}, nil
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
