// Package export renders merchant listings for back-office download.
package export

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/merchant-onboarding/internal/application/port"
	"github.com/garyjia/merchant-onboarding/internal/domain/entity"
)

const (
	// SummarySheet holds one row per merchant
	SummarySheet = "Merchants"
	// FieldsSheet holds one row per stored field
	FieldsSheet = "Fields"

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var summaryHeader = []interface{}{
	"ID", "Status", "Entity Type", "Legal Name", "Brand Name", "Contact Name",
	"Contact Email", "Contact Mobile", "GSTIN", "IFSC", "VPA", "Created At", "Updated At",
}

var fieldsHeader = []interface{}{"Merchant ID", "Section", "Field", "Value"}

// XLSXExporter writes merchants into a two-sheet workbook
type XLSXExporter struct {
	logger *zap.Logger
}

// NewXLSXExporter creates a new workbook exporter
func NewXLSXExporter(logger *zap.Logger) *XLSXExporter {
	return &XLSXExporter{logger: logger}
}

// ContentType implements port.MerchantExporter
func (e *XLSXExporter) ContentType() string { return xlsxContentType }

// FileExtension implements port.MerchantExporter
func (e *XLSXExporter) FileExtension() string { return ".xlsx" }

// Export implements port.MerchantExporter
func (e *XLSXExporter) Export(ctx context.Context, merchants []*entity.Merchant, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(FieldsSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	if err := e.setRow(f, SummarySheet, 1, summaryHeader); err != nil {
		return err
	}
	if err := e.setRow(f, FieldsSheet, 1, fieldsHeader); err != nil {
		return err
	}

	fieldRow := 2
	for i, m := range merchants {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.setRow(f, SummarySheet, i+2, summaryRow(m)); err != nil {
			return err
		}
		for _, row := range fieldRows(m) {
			if err := e.setRow(f, FieldsSheet, fieldRow, row); err != nil {
				return err
			}
			fieldRow++
		}
	}

	if err := f.SetPanes(SummarySheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		e.logger.Warn("Failed to freeze header row", zap.Error(err))
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	e.logger.Info("Merchant workbook exported",
		zap.Int("merchants", len(merchants)),
		zap.Int("field_rows", fieldRow-2))
	return nil
}

func (e *XLSXExporter) setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("failed to address row %d: %w", row, err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func summaryRow(m *entity.Merchant) []interface{} {
	return []interface{}{
		m.ID,
		string(m.Status),
		m.BusinessEntityType,
		m.Business["legalName"],
		m.Business["brandName"],
		m.Personal["name"],
		m.Personal["email"],
		m.Personal["mobile"],
		m.Business["gstin"],
		m.Bank["ifsc"],
		m.VPA["handle"],
		formatTime(m.CreatedAt),
		formatTime(m.UpdatedAt),
	}
}

// fieldRows flattens every non-blank field in section order, keys sorted
func fieldRows(m *entity.Merchant) [][]interface{} {
	var rows [][]interface{}
	for _, s := range entity.Sections {
		fields := m.Section(s)
		keys := make([]string, 0, len(fields))
		for k := range fields {
			if fields.Present(k) {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		for _, k := range keys {
			rows = append(rows, []interface{}{m.ID, string(s), k, fields[k]})
		}
	}
	return rows
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// Verify interface compliance
var _ port.MerchantExporter = (*XLSXExporter)(nil)
