package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "Pending"
	OrderStatusProcessing     OrderStatus = "Processing"
	OrderStatusOutForDelivery OrderStatus = "Out_For_Delivery"
	OrderStatusShipped        OrderStatus = "Shipped"
	OrderStatusDelivered      OrderStatus = "Delivered"
	OrderStatusCancelled      OrderStatus = "Cancelled"
	OrderStatusCODPending     OrderStatus = "COD_Pending"
	OrderStatusCODCollected   OrderStatus = "COD_Collected"
)

// IsValid reports whether s is one of the known order statuses.
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusOutForDelivery,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled,
		OrderStatusCODPending, OrderStatusCODCollected:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed from s.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

type PaymentMethod string

const (
	PaymentMethodCard PaymentMethod = "card"
	PaymentMethodCOD  PaymentMethod = "cod"
)

type OrderItem struct {
	Name      string             `bson:"name" json:"name"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	Price     float64            `bson:"price" json:"price"`
	GSTAmount float64            `bson:"gstAmount" json:"gstAmount"`
	Image     string             `bson:"image,omitempty" json:"image,omitempty"`
	Product   primitive.ObjectID `bson:"product" json:"product"`
}

type ShippingInfo struct {
	Address    string `bson:"address" json:"address"`
	City       string `bson:"city" json:"city"`
	State      string `bson:"state" json:"state"`
	PostalCode string `bson:"postalCode" json:"postalCode"`
	Country    string `bson:"country" json:"country"`
	PhoneNo    string `bson:"phoneNo" json:"phoneNo"`
}

type PaymentInfo struct {
	ID     string `bson:"id" json:"id"`
	Status string `bson:"status" json:"status"`
}

type GSTSummary struct {
	TotalGstAmount  float64            `bson:"totalGstAmount" json:"totalGstAmount"`
	CategoryWiseGst map[string]float64 `bson:"categoryWiseGst" json:"categoryWiseGst"`
	InvoiceNumber   string             `bson:"invoiceNumber" json:"invoiceNumber"`
}

// StatusHistoryEntry is one append-only audit record. Entries are never
// mutated or removed once a transition writes them.
type StatusHistoryEntry struct {
	Status    OrderStatus        `bson:"status" json:"status"`
	Note      string             `bson:"note" json:"note"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
	UpdatedBy primitive.ObjectID `bson:"updatedBy" json:"updatedBy"`
}

type Order struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	User           primitive.ObjectID   `bson:"user" json:"user"`
	OrderItems     []OrderItem          `bson:"orderItems" json:"orderItems"`
	ShippingInfo   ShippingInfo         `bson:"shippingInfo" json:"shippingInfo"`
	PaymentMethod  PaymentMethod        `bson:"paymentMethod" json:"paymentMethod"`
	PaymentInfo    *PaymentInfo         `bson:"paymentInfo,omitempty" json:"paymentInfo,omitempty"`
	CODAmount      float64              `bson:"codAmount,omitempty" json:"codAmount,omitempty"`
	ItemsPrice     float64              `bson:"itemsPrice" json:"itemsPrice"`
	TaxPrice       float64              `bson:"taxPrice" json:"taxPrice"`
	ShippingPrice  float64              `bson:"shippingPrice" json:"shippingPrice"`
	TotalPrice     float64              `bson:"totalPrice" json:"totalPrice"`
	GSTSummary     GSTSummary           `bson:"gstSummary" json:"gstSummary"`
	OrderStatus    OrderStatus          `bson:"orderStatus" json:"orderStatus"`
	StatusHistory  []StatusHistoryEntry `bson:"statusHistory" json:"statusHistory"`
	PaidAt         *time.Time           `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
	DeliveredAt    *time.Time           `bson:"deliveredAt,omitempty" json:"deliveredAt,omitempty"`
	CODCollectedAt *time.Time           `bson:"codCollectedAt,omitempty" json:"codCollectedAt,omitempty"`
	CreatedAt      time.Time            `bson:"createdAt" json:"createdAt"`
}
