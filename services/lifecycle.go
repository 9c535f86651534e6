package services

import (
	"regexp"
	"strings"
	"time"

	"github.com/gststore/storefront-backend/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	// PlacementNote is the fixed history note written when an order is placed.
	PlacementNote = "Order placed"
	// CODCollectionNote is the fixed history note written by COD collection.
	CODCollectionNote = "COD payment collected"
)

// LineInput is one order line as submitted by the checkout flow, joined
// with the product fields read at creation time.
type LineInput struct {
	Name     string
	Quantity int
	Price    float64
	Image    string
	Product  primitive.ObjectID
	Category string
}

type PlaceOrderInput struct {
	User          primitive.ObjectID
	Items         []LineInput
	Shipping      models.ShippingInfo
	PaymentMethod models.PaymentMethod
	PaymentInfo   *models.PaymentInfo
	ShippingPrice float64
}

// PlaceOrder builds a new order from checkout input: it prices every line,
// computes the GST summary and assigns the initial status from the payment
// method. COD orders start in COD_Pending with codAmount pinned to the
// total; card orders require payment info and start in Processing with
// paidAt set.
func PlaceOrder(in PlaceOrderInput, now time.Time) (*models.Order, error) {
	if len(in.Items) == 0 {
		return nil, &ValidationError{Field: "orderItems", Reason: "order must contain at least one item"}
	}
	for _, item := range in.Items {
		if item.Quantity < 1 {
			return nil, &ValidationError{Field: "orderItems", Reason: "quantity must be at least 1"}
		}
	}
	if in.Shipping.Address == "" || in.Shipping.City == "" || in.Shipping.PhoneNo == "" {
		return nil, &ValidationError{Field: "shippingInfo", Reason: "address, city and phoneNo are required"}
	}

	order := &models.Order{
		User:          in.User,
		ShippingInfo:  in.Shipping,
		PaymentMethod: in.PaymentMethod,
		ShippingPrice: in.ShippingPrice,
		CreatedAt:     now,
	}

	lines := make([]GSTLine, 0, len(in.Items))
	for _, item := range in.Items {
		gst := ItemGST(item.Price, item.Quantity)
		order.OrderItems = append(order.OrderItems, models.OrderItem{
			Name:      item.Name,
			Quantity:  item.Quantity,
			Price:     item.Price,
			GSTAmount: gst,
			Image:     item.Image,
			Product:   item.Product,
		})
		order.ItemsPrice += item.Price * float64(item.Quantity)
		order.TaxPrice += gst
		lines = append(lines, GSTLine{Category: item.Category, Price: item.Price, Quantity: item.Quantity})
	}

	order.TotalPrice = order.ItemsPrice + order.TaxPrice + order.ShippingPrice
	order.GSTSummary = BuildGSTSummary(lines, now)

	switch in.PaymentMethod {
	case models.PaymentMethodCOD:
		order.OrderStatus = models.OrderStatusCODPending
		order.CODAmount = order.TotalPrice
	case models.PaymentMethodCard:
		if in.PaymentInfo == nil || in.PaymentInfo.ID == "" || in.PaymentInfo.Status == "" {
			return nil, &ValidationError{Field: "paymentInfo", Reason: "id and status are required for card payments"}
		}
		order.PaymentInfo = in.PaymentInfo
		order.OrderStatus = models.OrderStatusProcessing
		paidAt := now
		order.PaidAt = &paidAt
	default:
		return nil, &ValidationError{Field: "paymentMethod", Reason: "must be card or cod"}
	}

	order.StatusHistory = []models.StatusHistoryEntry{{
		Status:    order.OrderStatus,
		Note:      PlacementNote,
		Timestamp: now,
		UpdatedBy: in.User,
	}}

	return order, nil
}

type NotificationKind int

const (
	NotifyStatusUpdate NotificationKind = iota
	NotifyShipping
)

// TransitionEffects describes the best-effort side work a committed
// transition asks the caller to perform. None of it may fail the
// transition itself.
type TransitionEffects struct {
	Kind           NotificationKind
	Tracking       TrackingInfo
	DecrementStock bool
}

// ApplyTransition moves the order to newStatus in memory and appends
// exactly one status-history entry. Only Delivered and Cancelled are
// terminal; any other edge is allowed so admins can correct mistakes,
// but the status value itself must be a known one.
func ApplyTransition(o *models.Order, newStatus models.OrderStatus, note string, actor primitive.ObjectID, now time.Time) (TransitionEffects, error) {
	var effects TransitionEffects

	if newStatus == "" {
		return effects, &ValidationError{Field: "status", Reason: "status is required"}
	}
	if !newStatus.IsValid() {
		return effects, &ValidationError{Field: "status", Reason: "unknown status " + string(newStatus)}
	}
	if note == "" {
		return effects, &ValidationError{Field: "note", Reason: "note is required"}
	}
	if o.OrderStatus.IsTerminal() {
		return effects, &InvalidStateError{Status: o.OrderStatus, Op: "update"}
	}

	if newStatus == models.OrderStatusCODCollected {
		if o.PaymentMethod != models.PaymentMethodCOD {
			return effects, &InvalidOperationError{Reason: "payment for this order was not cash on delivery"}
		}
		if o.OrderStatus == models.OrderStatusCODCollected {
			return effects, &InvalidOperationError{Reason: "COD payment already collected"}
		}
	}

	o.OrderStatus = newStatus
	o.StatusHistory = append(o.StatusHistory, models.StatusHistoryEntry{
		Status:    newStatus,
		Note:      note,
		Timestamp: now,
		UpdatedBy: actor,
	})

	switch newStatus {
	case models.OrderStatusDelivered:
		deliveredAt := now
		o.DeliveredAt = &deliveredAt
		effects.DecrementStock = true
	case models.OrderStatusCODCollected:
		collectedAt := now
		o.CODCollectedAt = &collectedAt
		if o.PaymentInfo == nil {
			o.PaymentInfo = &models.PaymentInfo{}
		}
		o.PaymentInfo.Status = "succeeded"
	}

	if newStatus == models.OrderStatusShipped || newStatus == models.OrderStatusOutForDelivery {
		effects.Kind = NotifyShipping
		effects.Tracking = ParseTracking(note, now)
	}

	return effects, nil
}

// CollectCOD is the dedicated collection entry point: a transition to
// COD_Collected with a fixed note.
func CollectCOD(o *models.Order, actor primitive.ObjectID, now time.Time) (TransitionEffects, error) {
	return ApplyTransition(o, models.OrderStatusCODCollected, CODCollectionNote, actor, now)
}

var trackingURLPattern = regexp.MustCompile(`https?://[^\s]+`)

// TrackingInfo is what gets pulled out of a shipping transition's note.
type TrackingInfo struct {
	Number            string
	URL               string
	EstimatedDelivery time.Time
}

// ParseTracking extracts the tracking number (everything after the literal
// "tracking:" token, trimmed) and the first URL from a transition note.
// Estimated delivery is pinned at three days out.
func ParseTracking(note string, now time.Time) TrackingInfo {
	info := TrackingInfo{
		Number:            "N/A",
		EstimatedDelivery: now.Add(72 * time.Hour),
	}
	if _, after, found := strings.Cut(note, "tracking:"); found {
		info.Number = strings.TrimSpace(after)
	}
	info.URL = trackingURLPattern.FindString(note)
	return info
}
