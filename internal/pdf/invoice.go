// Package pdf renders invoices as downloadable PDF documents.
package pdf

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"

	"github.com/ahmedhesham6/invoice/internal/models"
)

// RenderInvoice writes an A4 PDF of the invoice to w. Client and profile may
// be nil; their sections are skipped.
func RenderInvoice(w io.Writer, inv *models.Invoice, client *models.Client, profile *models.Profile) error {
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.AddPage()

	doc.SetFont("Arial", "B", 18)
	doc.Cell(100, 10, fmt.Sprintf("Invoice %s", inv.Number))
	doc.SetFont("Arial", "", 10)
	doc.CellFormat(90, 10, statusLabel(inv.Status), "", 1, "R", false, 0, "")
	doc.Ln(4)

	// Issuer on the left, billing target on the right.
	colY := doc.GetY()
	doc.SetFont("Arial", "B", 11)
	if profile != nil {
		doc.Cell(95, 6, "From:")
		doc.Ln(6)
		doc.SetFont("Arial", "", 10)
		writeLines(doc, 95, profile.DisplayName, profile.Email, profile.Phone, profile.Website,
			profile.Address, cityLine(profile.PostalCode, profile.City), profile.Country, taxLine(profile.TaxID))
	}
	if client != nil {
		doc.SetXY(105, colY)
		doc.SetFont("Arial", "B", 11)
		doc.Cell(85, 6, "Bill To:")
		doc.SetXY(105, colY+6)
		doc.SetFont("Arial", "", 10)
		for _, line := range nonEmpty(client.Name, client.Email, client.Phone,
			client.Address, cityLine(client.PostalCode, client.City), client.Country, taxLine(client.TaxID)) {
			doc.Cell(85, 6, line)
			doc.SetXY(105, doc.GetY()+6)
		}
	}
	doc.SetX(10)
	doc.Ln(10)

	doc.SetFont("Arial", "", 10)
	doc.Cell(95, 6, fmt.Sprintf("Issue Date: %s", inv.IssueDate.Format("2006-01-02")))
	doc.CellFormat(95, 6, fmt.Sprintf("Due Date: %s", inv.DueDate.Format("2006-01-02")), "", 1, "R", false, 0, "")
	doc.Ln(6)

	// Line item table, 190mm wide.
	doc.SetFont("Arial", "B", 9)
	doc.CellFormat(88, 8, "Description", "1", 0, "L", false, 0, "")
	doc.CellFormat(24, 8, "Qty", "1", 0, "C", false, 0, "")
	doc.CellFormat(18, 8, "Unit", "1", 0, "C", false, 0, "")
	doc.CellFormat(30, 8, "Unit Price", "1", 0, "R", false, 0, "")
	doc.CellFormat(30, 8, "Amount", "1", 1, "R", false, 0, "")

	doc.SetFont("Arial", "", 9)
	for _, item := range inv.Items {
		doc.CellFormat(88, 7, item.Description, "1", 0, "L", false, 0, "")
		doc.CellFormat(24, 7, item.Quantity.String(), "1", 0, "C", false, 0, "")
		doc.CellFormat(18, 7, item.Unit, "1", 0, "C", false, 0, "")
		doc.CellFormat(30, 7, formatAmount(item.UnitPrice, inv.Currency), "1", 0, "R", false, 0, "")
		doc.CellFormat(30, 7, formatAmount(item.Total, inv.Currency), "1", 1, "R", false, 0, "")
	}

	doc.Ln(4)
	doc.SetFont("Arial", "", 10)
	doc.Cell(160, 7, "Subtotal:")
	doc.CellFormat(30, 7, formatAmount(inv.Subtotal, inv.Currency), "", 1, "R", false, 0, "")
	if !inv.TaxRate.IsZero() {
		doc.Cell(160, 7, fmt.Sprintf("Tax (%s%%):", inv.TaxRate.String()))
		doc.CellFormat(30, 7, formatAmount(inv.TaxAmount, inv.Currency), "", 1, "R", false, 0, "")
	}
	if inv.DiscountAmount != 0 {
		doc.Cell(160, 7, "Discount:")
		doc.CellFormat(30, 7, "-"+formatAmount(inv.DiscountAmount, inv.Currency), "", 1, "R", false, 0, "")
	}
	doc.SetFont("Arial", "B", 12)
	doc.Cell(160, 9, "Total:")
	doc.CellFormat(30, 9, formatAmount(inv.Total, inv.Currency), "", 1, "R", false, 0, "")

	if inv.Notes != "" {
		doc.Ln(6)
		doc.SetFont("Arial", "B", 11)
		doc.Cell(40, 7, "Notes")
		doc.Ln(7)
		doc.SetFont("Arial", "", 10)
		doc.MultiCell(190, 5, inv.Notes, "", "L", false)
	}

	paymentDetails := inv.PaymentDetails
	if paymentDetails == "" && profile != nil {
		paymentDetails = profile.PaymentDetails
	}
	if paymentDetails != "" {
		doc.Ln(6)
		doc.SetFont("Arial", "B", 11)
		doc.Cell(40, 7, "Payment Details")
		doc.Ln(7)
		doc.SetFont("Arial", "", 10)
		doc.MultiCell(190, 5, paymentDetails, "", "L", false)
	}

	return doc.Output(w)
}

func statusLabel(status models.InvoiceStatus) string {
	switch status {
	case models.InvoiceStatusDraft:
		return "DRAFT"
	case models.InvoiceStatusSent:
		return "SENT"
	case models.InvoiceStatusPaid:
		return "PAID"
	case models.InvoiceStatusOverdue:
		return "OVERDUE"
	default:
		return string(status)
	}
}

// formatAmount renders minor units as "USD 540.00". Negative amounts keep
// their sign in front of the currency code.
func formatAmount(minor int64, currency string) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%s %d.%02d", sign, currency, minor/100, minor%100)
}

func cityLine(postalCode, city string) string {
	switch {
	case postalCode != "" && city != "":
		return postalCode + " " + city
	case city != "":
		return city
	default:
		return postalCode
	}
}

func taxLine(taxID string) string {
	if taxID == "" {
		return ""
	}
	return "Tax ID: " + taxID
}

func nonEmpty(lines ...string) []string {
	out := lines[:0]
	for _, l := range lines {
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}

func writeLines(doc *gofpdf.Fpdf, width float64, lines ...string) {
	for _, line := range nonEmpty(lines...) {
		doc.Cell(width, 6, line)
		doc.Ln(6)
	}
}
