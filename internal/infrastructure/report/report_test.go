package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"fueldesk/internal/core/types"
	"fueldesk/internal/domain/inventory"
	"fueldesk/internal/domain/ticket"
)

func TestVoucherPDF(t *testing.T) {
	printed := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	tk := &ticket.Ticket{
		ID: 12, Code: "R001000012", Status: ticket.StatusPrinted,
		SupplyType: ticket.SupplyPump, RequestType: ticket.RequestSale,
		Plate: "AB123CD", Brand: "Toyota", Model: "Hilux",
		Requested:    types.Liters(40),
		UnitPrice:    decimal.NewNullDecimal(decimal.RequireFromString("0.50")),
		Amount:       decimal.NewNullDecimal(decimal.RequireFromString("20.00")),
		CurrencyCode: "USD",
		CreatedAt:    printed.Add(-time.Hour),
		PrintedAt:    &printed,
		PrintCount:   1,
	}

	out, err := VoucherPDF(tk, nil)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestMovementsXLSX(t *testing.T) {
	ticketID := int64(5)
	items := []inventory.Movement{
		{ID: 1, OwnerKind: inventory.OwnerTank, OwnerID: 2, Kind: inventory.MovementLoad,
			Before: 0, Delta: types.Liters(100), After: types.Liters(100), CreatedAt: time.Now()},
		{ID: 2, OwnerKind: inventory.OwnerPoint, OwnerID: 3, Kind: inventory.MovementDispatch,
			Before: types.Liters(50), Delta: -types.Liters(20), After: types.Liters(30),
			TicketID: &ticketID, Notes: "pump 1", CreatedAt: time.Now()},
	}

	out, err := MovementsXLSX(items, time.UTC)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(movementsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Kind", rows[0][4])
	assert.Equal(t, "LOAD", rows[1][4])
	assert.Equal(t, "DISPATCH", rows[2][4])
	assert.Equal(t, "5", rows[2][11])
	assert.Equal(t, "pump 1", rows[2][15])
}
