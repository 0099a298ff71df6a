// Package export renders stored orders as an XLSX workbook: one summary row
// per order plus a sheet with every line item.
package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"potracker/internal/domain"
	"potracker/internal/pricing"
)

const (
	OrdersSheet    = "Orders"
	LineItemsSheet = "Line Items"
	ContentType    = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var (
	orderHeaders = []string{
		"PO Number",
		"Party",
		"Currency",
		"Total Amount",
		"Status",
		"Items",
		"Top Item",
		"Created At",
		"Updated At",
	}
	lineItemHeaders = []string{
		"PO Number",
		"Item",
		"Quantity",
		"Unit Price",
		"Line Value",
	}
)

type Service struct {
	logger *zap.Logger
}

func NewService(logger *zap.Logger) *Service {
	return &Service{logger: logger}
}

// OrdersXLSX returns the workbook bytes for the given orders, in the order given.
func (s *Service) OrdersXLSX(orders []domain.Order) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer f.Close()

	// the default sheet becomes the summary
	if err := f.SetSheetName("Sheet1", OrdersSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(LineItemsSheet); err != nil {
		return nil, fmt.Errorf("new sheet: %w", err)
	}
	index, _ := f.GetSheetIndex(OrdersSheet)
	f.SetActiveSheet(index)

	if err := writeRow(f, OrdersSheet, 1, toAny(orderHeaders)); err != nil {
		return nil, err
	}
	if err := writeRow(f, LineItemsSheet, 1, toAny(lineItemHeaders)); err != nil {
		return nil, err
	}

	itemRow := 2
	for i, o := range orders {
		err := writeRow(f, OrdersSheet, i+2, []any{
			o.PONumber,
			o.PartyName,
			o.Currency,
			o.TotalAmount,
			string(o.Status),
			len(o.LineItems),
			pricing.HighestValueItem(o.LineItems),
			formatTime(o.CreatedAt),
			formatTime(o.UpdatedAt),
		})
		if err != nil {
			return nil, err
		}

		for _, item := range o.LineItems {
			err := writeRow(f, LineItemsSheet, itemRow, []any{
				o.PONumber,
				item.Name,
				pricing.Normalize(item.Quantity),
				pricing.Normalize(item.UnitPrice),
				pricing.LineValue(item),
			})
			if err != nil {
				return nil, err
			}
			itemRow++
		}
	}

	_ = f.SetColWidth(OrdersSheet, "A", "B", 24)
	_ = f.SetColWidth(OrdersSheet, "C", "F", 14)
	_ = f.SetColWidth(OrdersSheet, "G", "G", 28)
	_ = f.SetColWidth(OrdersSheet, "H", "I", 22)
	_ = f.SetColWidth(LineItemsSheet, "A", "B", 28)
	_ = f.SetColWidth(LineItemsSheet, "C", "E", 14)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("orders exported",
		zap.Int("orders", len(orders)),
		zap.Int("lineItems", itemRow-2),
		zap.Int("bytes", buf.Len()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
