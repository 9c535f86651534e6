package services

import (
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"github.com/gststore/storefront-backend/models"
	"github.com/jung-kurt/gofpdf"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// reconcileEpsilon is the drift allowed between the re-derived invoice
// components and the stored order total before the subtotal is repaired.
const reconcileEpsilon = 0.01

// maxInvoiceNumberLen is the longest stored invoice number reused as-is at
// render time; anything longer (or missing) gets a fresh short one.
const maxInvoiceNumberLen = 15

type InvoiceLine struct {
	Name      string
	Quantity  int
	UnitPrice float64
	GSTAmount float64
	LineTotal float64
}

type Invoice struct {
	Number   string
	Lines    []InvoiceLine
	Subtotal float64
	TotalGST float64
	Shipping float64
	Total    float64
}

// BuildInvoice derives the printable invoice from a delivered order. The
// derivation is read-only and deterministic over the order snapshot, so
// repeated calls yield identical totals.
//
// Lines carrying a positive stored gstAmount are treated as GST-inclusive
// and the base price is backed out; lines without one are treated as
// GST-exclusive. Whenever the re-derived components drift from the stored
// totalPrice by more than a cent, the subtotal is overwritten so the
// document always foots to the authoritative total.
func BuildInvoice(o *models.Order, requester primitive.ObjectID, isAdmin bool, now time.Time) (*Invoice, error) {
	if o.OrderStatus != models.OrderStatusDelivered {
		return nil, &InvalidStateError{Status: o.OrderStatus, Op: "invoice"}
	}
	if !isAdmin && requester != o.User {
		return nil, &ForbiddenError{Reason: "not authorized to download this invoice"}
	}

	number := o.GSTSummary.InvoiceNumber
	if number == "" || len(number) > maxInvoiceNumberLen {
		number = fmt.Sprintf("INV-%d", now.Unix())
	}

	inv := &Invoice{
		Number:   number,
		Shipping: o.ShippingPrice,
		Total:    o.TotalPrice,
	}

	for _, item := range o.OrderItems {
		line := InvoiceLine{Name: item.Name, Quantity: item.Quantity}
		gross := item.Price * float64(item.Quantity)
		if item.GSTAmount > 0 {
			line.GSTAmount = item.GSTAmount
			line.LineTotal = gross - item.GSTAmount
			line.UnitPrice = line.LineTotal / float64(item.Quantity)
		} else {
			line.GSTAmount = gross * DefaultGSTRate
			line.LineTotal = gross
			line.UnitPrice = item.Price
		}
		inv.Subtotal += line.LineTotal
		inv.TotalGST += line.GSTAmount
		inv.Lines = append(inv.Lines, line)
	}

	if math.Abs(inv.Subtotal+inv.TotalGST+inv.Shipping-inv.Total) > reconcileEpsilon {
		inv.Subtotal = inv.Total - inv.TotalGST - inv.Shipping
	}

	return inv, nil
}

// RenderInvoicePDF writes the invoice as a PDF document. Section order:
// header, invoice metadata, bill-to, order details, itemized table, totals,
// footer, then the category-wise GST breakdown when any category carries a
// positive amount.
func RenderInvoicePDF(o *models.Order, inv *Invoice, w io.Writer) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	// Header
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, "TAX INVOICE", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	// Invoice metadata
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, "Invoice No: "+inv.Number, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Order ID: "+o.ID.Hex(), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Order Date: "+o.CreatedAt.Format("02 Jan 2006"), "", 1, "L", false, 0, "")
	if o.DeliveredAt != nil {
		pdf.CellFormat(0, 6, "Delivered: "+o.DeliveredAt.Format("02 Jan 2006"), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	// Bill-to block
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 6, "Bill To", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	ship := o.ShippingInfo
	pdf.CellFormat(0, 5, ship.Address, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, fmt.Sprintf("%s, %s %s", ship.City, ship.State, ship.PostalCode), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, ship.Country, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, "Phone: "+ship.PhoneNo, "", 1, "L", false, 0, "")
	pdf.Ln(4)

	// Order details block
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 6, "Order Details", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 5, "Payment Method: "+string(o.PaymentMethod), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, "Status: "+string(o.OrderStatus), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	// Itemized table
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(80, 7, "Item", "1", 0, "L", false, 0, "")
	pdf.CellFormat(20, 7, "Qty", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 7, "Unit Price", "1", 0, "R", false, 0, "")
	pdf.CellFormat(30, 7, "GST", "1", 0, "R", false, 0, "")
	pdf.CellFormat(30, 7, "Total", "1", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, line := range inv.Lines {
		pdf.CellFormat(80, 7, line.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 7, fmt.Sprintf("%d", line.Quantity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 7, fmt.Sprintf("%.2f", line.UnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 7, fmt.Sprintf("%.2f", line.GSTAmount), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 7, fmt.Sprintf("%.2f", line.LineTotal), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	// Totals block
	writeTotal := func(label string, amount float64, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 10)
		pdf.CellFormat(130, 6, "", "", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, label, "", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.2f", amount), "", 1, "R", false, 0, "")
	}
	writeTotal("Subtotal", inv.Subtotal, false)
	writeTotal("GST", inv.TotalGST, false)
	writeTotal("Shipping", inv.Shipping, false)
	writeTotal("Total", inv.Total, true)
	pdf.Ln(6)

	// Category-wise GST breakdown, only when something positive exists
	categories := make([]string, 0, len(o.GSTSummary.CategoryWiseGst))
	for category, amount := range o.GSTSummary.CategoryWiseGst {
		if amount > 0 {
			categories = append(categories, category)
		}
	}
	if len(categories) > 0 {
		sort.Strings(categories)
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(0, 6, "GST Breakdown by Category", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		for _, category := range categories {
			pdf.CellFormat(80, 6, category, "1", 0, "L", false, 0, "")
			pdf.CellFormat(30, 6, fmt.Sprintf("%.2f", o.GSTSummary.CategoryWiseGst[category]), "1", 1, "R", false, 0, "")
		}
		pdf.Ln(4)
	}

	// Footer
	pdf.SetFont("Helvetica", "I", 9)
	pdf.CellFormat(0, 6, "Thank you for shopping with us. This is a computer-generated invoice.", "", 1, "C", false, 0, "")

	return pdf.Output(w)
}
