// Package report renders printable and downloadable artefacts: the ticket
// voucher handed to the receiver and the movement ledger export.
package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"fueldesk/internal/domain/ticket"
)

const timeLayout = "2006-01-02 15:04"

// VoucherPDF renders a one-page voucher for t. Times are shown in loc.
func VoucherPDF(t *ticket.Ticket, loc *time.Location) ([]byte, error) {
	if loc == nil {
		loc = time.UTC
	}

	pdf := gofpdf.New("P", "mm", "A5", "")
	pdf.SetTitle("Fuel ticket "+t.Code, false)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 8, "Fuel Dispatch Ticket")
	pdf.Ln(10)

	pdf.SetFont("Courier", "B", 16)
	pdf.CellFormat(0, 10, t.Code, "1", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "", 10)
	rows := [][2]string{
		{"Status", string(t.Status)},
		{"Supply", string(t.SupplyType)},
		{"Request", string(t.RequestType)},
		{"Plate", t.Plate},
		{"Vehicle", fmt.Sprintf("%s %s", t.Brand, t.Model)},
		{"Dispensing point", fmt.Sprintf("%d", t.PointID)},
		{"Requested (L)", t.Requested.String()},
	}
	if t.IsSale() && t.Amount.Valid {
		rows = append(rows,
			[2]string{"Unit price", t.UnitPrice.Decimal.StringFixed(2) + " " + t.CurrencyCode},
			[2]string{"Amount", t.Amount.Decimal.StringFixed(2) + " " + t.CurrencyCode},
		)
	}
	rows = append(rows, [2]string{"Created", t.CreatedAt.In(loc).Format(timeLayout)})
	if t.PrintedAt != nil {
		rows = append(rows, [2]string{"Printed", t.PrintedAt.In(loc).Format(timeLayout)})
	}
	rows = append(rows, [2]string{"Copy", fmt.Sprintf("%d", t.PrintCount)})

	for _, r := range rows {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(45, 7, r[0], "1", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 7, r[1], "1", 1, "L", false, 0, "")
	}

	if t.Notes != "" {
		pdf.Ln(3)
		pdf.MultiCell(0, 5, "Notes: "+t.Notes, "", "L", false)
	}

	pdf.Ln(14)
	pdf.CellFormat(60, 6, "Issuer", "T", 0, "C", false, 0, "")
	pdf.CellFormat(10, 6, "", "", 0, "C", false, 0, "")
	pdf.CellFormat(60, 6, "Receiver", "T", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render voucher: %w", err)
	}
	return buf.Bytes(), nil
}
