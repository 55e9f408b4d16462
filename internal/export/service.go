package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/receipt-processor/internal/entity"
)

const SheetName = "Receipts"

// Headers are the column titles of the export sheet, in order.
var Headers = []string{
	"ID",
	"Retailer",
	"Purchase Date",
	"Purchase Time",
	"Items",
	"Total",
	"Points",
	"Accepted At",
}

// ReceiptLister is the slice of the receipt service the export needs.
type ReceiptLister interface {
	List(ctx context.Context) ([]*entity.ScoredReceipt, error)
}

// Service produces XLSX bytes for exports.
type Service struct {
	receipts ReceiptLister
	logger   *slog.Logger
}

func NewService(receipts ReceiptLister, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{receipts: receipts, logger: logger}
}

// ExportXLSX returns a workbook with one row per stored receipt, in
// acceptance order.
func (s *Service) ExportXLSX(ctx context.Context) ([]byte, error) {
	start := time.Now()

	recs, err := s.receipts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}
	if err := f.SetSheetRow(SheetName, "A1", &Headers); err != nil {
		return nil, fmt.Errorf("xlsx header: %w", err)
	}

	for i, r := range recs {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []any{
			r.ID.String(),
			r.Receipt.Retailer,
			r.Receipt.PurchaseDate,
			r.Receipt.PurchaseTime,
			truncate(describeItems(r.Receipt.Items), 140),
			r.Receipt.Total,
			r.Points,
			r.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("xlsx row %d: %w", i+2, err)
		}
	}

	_ = f.SetColWidth(SheetName, "A", "A", 38) // id
	_ = f.SetColWidth(SheetName, "B", "B", 24) // retailer
	_ = f.SetColWidth(SheetName, "C", "D", 14)
	_ = f.SetColWidth(SheetName, "E", "E", 60) // items
	_ = f.SetColWidth(SheetName, "F", "G", 10)
	_ = f.SetColWidth(SheetName, "H", "H", 22)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(recs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func describeItems(items []entity.Item) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, fmt.Sprintf("%s (%s)", strings.TrimSpace(it.ShortDescription), it.Price))
	}
	return strings.Join(parts, "; ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
