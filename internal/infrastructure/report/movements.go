package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"fueldesk/internal/core/types"
	"fueldesk/internal/domain/inventory"
)

const movementsSheet = "movements"

var movementHeader = []string{
	"ID", "Date", "Holder", "Holder ID", "Kind", "Before", "Delta", "After",
	"Theoretical", "Measured", "Difference", "Ticket", "Load", "Group", "User", "Notes",
}

// MovementsXLSX writes the movement ledger rows to a workbook. Dates use loc.
func MovementsXLSX(items []inventory.Movement, loc *time.Location) ([]byte, error) {
	if loc == nil {
		loc = time.UTC
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", movementsSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]any, len(movementHeader))
	for i, h := range movementHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(movementsSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, m := range items {
		row := []any{
			m.ID,
			m.CreatedAt.In(loc).Format(timeLayout),
			string(m.OwnerKind),
			m.OwnerID,
			string(m.Kind),
			m.Before.Float64(),
			m.Delta.Float64(),
			m.After.Float64(),
			optionalQuantity(m.Theoretical),
			optionalQuantity(m.Measured),
			optionalQuantity(m.Difference),
			optionalID(m.TicketID),
			optionalID(m.LoadID),
			optionalString(m.GroupID),
			m.UserID,
			m.Notes,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(movementsSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func optionalQuantity(q *types.Quantity) any {
	if q == nil {
		return ""
	}
	return q.Float64()
}

func optionalID(id *int64) any {
	if id == nil {
		return ""
	}
	return *id
}

func optionalString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
