package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gststore/storefront-backend/models"
)

// DefaultGSTRate is the flat rate applied to every line at order-creation
// time. Per-product gstRate only drives the admin GST settings and
// analytics paths; changing the collected rate retroactively would
// desynchronize totals on historical orders.
const DefaultGSTRate = 0.18

// ItemGST returns the GST collected on one line at order-creation time.
func ItemGST(price float64, quantity int) float64 {
	return price * float64(quantity) * DefaultGSTRate
}

// NewInvoiceNumber generates the short human-facing invoice token stored
// in the order's GST summary. It is generated exactly once per order.
func NewInvoiceNumber(now time.Time) string {
	suffix := strings.ToUpper(uuid.NewString()[:4])
	return fmt.Sprintf("INV-%s-%s", now.Format("060102"), suffix)
}

// GSTLine pairs an order line with the product category it was bought
// under, looked up at creation time.
type GSTLine struct {
	Category string
	Price    float64
	Quantity int
}

// BuildGSTSummary computes the per-order GST rollup stored alongside the
// order. Lines without a category contribute to the total but are left
// out of the category map.
func BuildGSTSummary(lines []GSTLine, now time.Time) models.GSTSummary {
	summary := models.GSTSummary{
		CategoryWiseGst: map[string]float64{},
		InvoiceNumber:   NewInvoiceNumber(now),
	}

	for _, line := range lines {
		gst := ItemGST(line.Price, line.Quantity)
		summary.TotalGstAmount += gst
		if line.Category != "" {
			summary.CategoryWiseGst[line.Category] += gst
		}
	}

	return summary
}
