package invoices

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/wholesalehub-backend/pkg/db/models"
	"github.com/angelmondragon/wholesalehub-backend/pkg/enums"
	"github.com/angelmondragon/wholesalehub-backend/pkg/money"
)

// DocumentParty is a billing party as printed on the invoice.
type DocumentParty struct {
	Name  string
	Email string
}

// DocumentLine is one printed item row.
type DocumentLine struct {
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

// InvoiceDocument is the read-only projection handed to a Renderer.
type InvoiceDocument struct {
	InvoiceNumber string
	OrderID       string
	IssuedAt      time.Time
	Status        enums.InvoiceStatus
	Currency      enums.Currency
	From          DocumentParty
	To            DocumentParty
	Lines         []DocumentLine
	Total         decimal.Decimal
}

// Renderer writes an invoice document in some output format.
type Renderer interface {
	Render(w io.Writer, doc InvoiceDocument) error
}

// NewDocument projects a fully loaded invoice.
func NewDocument(inv models.Invoice) InvoiceDocument {
	doc := InvoiceDocument{
		InvoiceNumber: inv.InvoiceNumber,
		OrderID:       inv.OrderID.String(),
		IssuedAt:      inv.CreatedAt,
		Status:        inv.Status,
		Currency:      enums.Currency(inv.Currency),
		From:          documentParty(inv.IssuedBy),
		To:            documentParty(inv.IssuedTo),
		Total:         inv.Amount,
	}
	if inv.Order != nil {
		for _, item := range inv.Order.Items {
			name := item.ProductID.String()
			if item.Product != nil {
				name = item.Product.Name
			}
			doc.Lines = append(doc.Lines, DocumentLine{
				Name:      name,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
				LineTotal: item.LineTotal(),
			})
		}
	}
	return doc
}

func documentParty(u *models.User) DocumentParty {
	if u == nil {
		return DocumentParty{}
	}
	name := u.Name
	if u.Company != nil && strings.TrimSpace(*u.Company) != "" {
		name = *u.Company
	}
	return DocumentParty{Name: name, Email: u.Email}
}

// PDFRenderer lays invoices out on A4 with the core Helvetica font.
type PDFRenderer struct{}

func (PDFRenderer) Render(w io.Writer, doc InvoiceDocument) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(18, 18, 18)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 12, "INVOICE", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(87, 6, "From:", "", 0, "L", false, 0, "")
	pdf.CellFormat(87, 6, "To:", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(87, 6, tr(doc.From.Name), "", 0, "L", false, 0, "")
	pdf.CellFormat(87, 6, tr(doc.To.Name), "", 1, "L", false, 0, "")
	pdf.CellFormat(87, 6, tr(doc.From.Email), "", 0, "L", false, 0, "")
	pdf.CellFormat(87, 6, tr(doc.To.Email), "", 1, "L", false, 0, "")
	pdf.Ln(6)

	details := [][2]string{
		{"Invoice Number:", doc.InvoiceNumber},
		{"Order ID:", doc.OrderID},
		{"Date Issued:", doc.IssuedAt.UTC().Format("Mon Jan 02 2006")},
		{"Status:", strings.ToUpper(doc.Status.String())},
	}
	for _, row := range details {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(40, 6, row[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(0, 6, row[1], "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(84, 7, "Item", "B", 0, "L", false, 0, "")
	pdf.CellFormat(26, 7, "Quantity", "B", 0, "R", false, 0, "")
	pdf.CellFormat(32, 7, "Price", "B", 0, "R", false, 0, "")
	pdf.CellFormat(32, 7, "Total", "B", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	for _, line := range doc.Lines {
		pdf.CellFormat(84, 7, tr(line.Name), "", 0, "L", false, 0, "")
		pdf.CellFormat(26, 7, fmt.Sprintf("%d", line.Quantity), "", 0, "R", false, 0, "")
		pdf.CellFormat(32, 7, money.Format(line.UnitPrice, doc.Currency), "", 0, "R", false, 0, "")
		pdf.CellFormat(32, 7, money.Format(line.LineTotal, doc.Currency), "", 1, "R", false, 0, "")
	}
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, "Total Amount: "+money.Format(doc.Total, doc.Currency), "", 1, "R", false, 0, "")

	return pdf.Output(w)
}
