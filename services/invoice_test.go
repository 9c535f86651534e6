package services

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/gststore/storefront-backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func deliveredOrder() *models.Order {
	deliveredAt := time.Now()
	return &models.Order{
		ID:   primitive.NewObjectID(),
		User: primitive.NewObjectID(),
		OrderItems: []models.OrderItem{
			{Name: "Kettle", Quantity: 2, Price: 100, GSTAmount: 36, Product: primitive.NewObjectID()},
		},
		ShippingInfo: models.ShippingInfo{
			Address: "12 MG Road", City: "Bengaluru", State: "KA",
			PostalCode: "560001", Country: "India", PhoneNo: "9876543210",
		},
		PaymentMethod: models.PaymentMethodCOD,
		ShippingPrice: 10,
		TotalPrice:    210,
		GSTSummary: models.GSTSummary{
			TotalGstAmount:  36,
			CategoryWiseGst: map[string]float64{"Appliances": 36},
			InvoiceNumber:   "INV-260831-AB12",
		},
		OrderStatus: models.OrderStatusDelivered,
		DeliveredAt: &deliveredAt,
		CreatedAt:   time.Now().Add(-48 * time.Hour),
	}
}

func TestBuildInvoiceRequiresDelivered(t *testing.T) {
	order := deliveredOrder()
	order.OrderStatus = models.OrderStatusProcessing

	_, err := BuildInvoice(order, order.User, false, time.Now())
	var stateErr *InvalidStateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, models.OrderStatusProcessing, stateErr.Status)
}

func TestBuildInvoiceOwnership(t *testing.T) {
	order := deliveredOrder()

	_, err := BuildInvoice(order, primitive.NewObjectID(), false, time.Now())
	var forbiddenErr *ForbiddenError
	require.ErrorAs(t, err, &forbiddenErr)

	// Admins can pull any order's invoice
	_, err = BuildInvoice(order, primitive.NewObjectID(), true, time.Now())
	require.NoError(t, err)

	_, err = BuildInvoice(order, order.User, false, time.Now())
	require.NoError(t, err)
}

func TestBuildInvoiceInclusiveLine(t *testing.T) {
	order := deliveredOrder()
	inv, err := BuildInvoice(order, order.User, false, time.Now())
	require.NoError(t, err)

	// gstAmount > 0: price*qty is GST-inclusive, base backed out
	require.Len(t, inv.Lines, 1)
	assert.InDelta(t, 164, inv.Lines[0].LineTotal, 1e-9)
	assert.InDelta(t, 82, inv.Lines[0].UnitPrice, 1e-9)
	assert.InDelta(t, 36, inv.Lines[0].GSTAmount, 1e-9)

	assert.InDelta(t, 164, inv.Subtotal, 1e-9)
	assert.InDelta(t, 36, inv.TotalGST, 1e-9)
	assert.InDelta(t, 210, inv.Total, 1e-9)
}

func TestBuildInvoiceExclusiveLine(t *testing.T) {
	order := deliveredOrder()
	order.OrderItems[0].GSTAmount = 0
	order.TotalPrice = 246 // 200 + 36 + 10

	inv, err := BuildInvoice(order, order.User, false, time.Now())
	require.NoError(t, err)

	assert.InDelta(t, 200, inv.Lines[0].LineTotal, 1e-9)
	assert.InDelta(t, 100, inv.Lines[0].UnitPrice, 1e-9)
	assert.InDelta(t, 36, inv.Lines[0].GSTAmount, 1e-9)
	assert.InDelta(t, 200, inv.Subtotal, 1e-9)
}

func TestBuildInvoiceReconciliation(t *testing.T) {
	order := deliveredOrder()
	// Stored total drifts from derived 164+36+10=210 by more than a cent
	order.TotalPrice = 215

	inv, err := BuildInvoice(order, order.User, false, time.Now())
	require.NoError(t, err)

	// Subtotal is repaired so the document foots to the stored total
	assert.InDelta(t, 169, inv.Subtotal, 1e-9)
	assert.InDelta(t, inv.Total, inv.Subtotal+inv.TotalGST+inv.Shipping, 1e-9)
}

func TestBuildInvoiceNumberRepair(t *testing.T) {
	now := time.Now()

	order := deliveredOrder()
	inv, err := BuildInvoice(order, order.User, false, now)
	require.NoError(t, err)
	assert.Equal(t, "INV-260831-AB12", inv.Number)

	order.GSTSummary.InvoiceNumber = ""
	inv, err = BuildInvoice(order, order.User, false, now)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(inv.Number, "INV-"))
	assert.LessOrEqual(t, len(inv.Number), 15)

	order.GSTSummary.InvoiceNumber = "INV-THIS-ONE-IS-FAR-TOO-LONG"
	inv, err = BuildInvoice(order, order.User, false, now)
	require.NoError(t, err)
	assert.NotEqual(t, order.GSTSummary.InvoiceNumber, inv.Number)
	assert.LessOrEqual(t, len(inv.Number), 15)
}

func TestBuildInvoiceIdempotent(t *testing.T) {
	order := deliveredOrder()

	first, err := BuildInvoice(order, order.User, false, time.Now())
	require.NoError(t, err)
	second, err := BuildInvoice(order, order.User, false, time.Now().Add(time.Hour))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRenderInvoicePDF(t *testing.T) {
	order := deliveredOrder()
	inv, err := BuildInvoice(order, order.User, false, time.Now())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, RenderInvoicePDF(order, inv, &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}
