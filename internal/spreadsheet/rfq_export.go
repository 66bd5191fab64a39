// Package spreadsheet reads and writes the xlsx workbooks staff exchange
// with the back office: RFQ exports and catalog imports.
package spreadsheet

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/ikkim/configurator-backend/internal/app/model"
	"github.com/xuri/excelize/v2"
)

const RFQSheet = "RFQs"

var rfqHeaders = []string{
	"ID", "Created", "Status", "Product", "Size", "Quantity",
	"Customer", "Email", "Phone", "Selections",
	"Unit Price", "Line Total", "Additional Costs", "Grand Total", "Version",
}

// moneyColumns are the 1-based columns holding currency amounts.
var moneyColumns = []int{11, 12, 13, 14}

// WriteRFQs renders rfqs as a single-sheet workbook.
func WriteRFQs(w io.Writer, rfqs []model.RFQ) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), RFQSheet); err != nil {
		return err
	}

	header := make([]interface{}, len(rfqHeaders))
	for i, h := range rfqHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(RFQSheet, "A1", &header); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(rfqHeaders))
	if err := f.SetCellStyle(RFQSheet, "A1", lastCol+"1", bold); err != nil {
		return err
	}

	for i, rfq := range rfqs {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []interface{}{
			rfq.ID,
			rfq.CreatedAt.Format("2006-01-02 15:04"),
			string(rfq.Status),
			rfq.ProductName,
			rfq.Size,
			rfq.Quantity,
			rfq.Customer.Name,
			rfq.Customer.Email,
			rfq.Customer.Phone,
			describeSelections(rfq.Selections.Data()),
			rfq.Pricing.UnitPrice.Round(2).InexactFloat64(),
			rfq.Pricing.LineTotal.Round(2).InexactFloat64(),
			rfq.Pricing.AdditionalCostsTotal.Round(2).InexactFloat64(),
			rfq.Pricing.GrandTotal.Round(2).InexactFloat64(),
			rfq.Version,
		}
		if err := f.SetSheetRow(RFQSheet, cell, &row); err != nil {
			return err
		}
	}

	if len(rfqs) > 0 {
		money, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
		if err != nil {
			return err
		}
		for _, col := range moneyColumns {
			name, _ := excelize.ColumnNumberToName(col)
			if err := f.SetCellStyle(RFQSheet, fmt.Sprintf("%s2", name), fmt.Sprintf("%s%d", name, len(rfqs)+1), money); err != nil {
				return err
			}
		}
	}

	if err := f.SetColWidth(RFQSheet, "J", "J", 40); err != nil {
		return err
	}

	_, err = f.WriteTo(w)
	return err
}

// describeSelections flattens a frozen selection as "Red (#ff0000), ..."
// in layer id order.
func describeSelections(sel model.Selection) string {
	ids := make([]uint, 0, len(sel))
	for id := range sel {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("%s (%s)", sel[id].Name, sel[id].Value))
	}
	return strings.Join(parts, ", ")
}
