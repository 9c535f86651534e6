package services

import (
	"fmt"
	"strings"

	"github.com/gststore/storefront-backend/models"
	"gopkg.in/gomail.v2"
)

type ShippingNotification struct {
	To           string
	OrderID      string
	CustomerName string
	Tracking     TrackingInfo
}

type StatusNotification struct {
	To           string
	OrderID      string
	CustomerName string
	Status       models.OrderStatus
	Note         string
}

// Notifier sends customer-facing order mail. Every send is best-effort:
// a failure must never propagate as an error to the order operation that
// triggered it.
type Notifier interface {
	SendShippingConfirmation(n ShippingNotification) error
	SendOrderStatusUpdate(n StatusNotification) error
	SendOrderConfirmation(to string, customerName string, order *models.Order) error
}

// SMTPNotifier delivers notifications over plain SMTP.
type SMTPNotifier struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPNotifier(host string, port int, username, password, from string) *SMTPNotifier {
	return &SMTPNotifier{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (s *SMTPNotifier) send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)
	return s.dialer.DialAndSend(m)
}

func (s *SMTPNotifier) SendShippingConfirmation(n ShippingNotification) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\nYour order %s is on its way.\n", n.CustomerName, n.OrderID)
	fmt.Fprintf(&b, "Tracking number: %s\n", n.Tracking.Number)
	if n.Tracking.URL != "" {
		fmt.Fprintf(&b, "Track it here: %s\n", n.Tracking.URL)
	}
	fmt.Fprintf(&b, "Estimated delivery: %s\n", n.Tracking.EstimatedDelivery.Format("02 Jan 2006"))
	return s.send(n.To, "Your order has shipped", b.String())
}

func (s *SMTPNotifier) SendOrderStatusUpdate(n StatusNotification) error {
	body := fmt.Sprintf("Hi %s,\n\nYour order %s is now %s.\n%s\n",
		n.CustomerName, n.OrderID, n.Status, n.Note)
	return s.send(n.To, "Order status update", body)
}

func (s *SMTPNotifier) SendOrderConfirmation(to string, customerName string, order *models.Order) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\nThanks for your order %s.\n\n", customerName, order.ID.Hex())
	for _, item := range order.OrderItems {
		fmt.Fprintf(&b, "  %s x%d  %.2f\n", item.Name, item.Quantity, item.Price)
	}
	fmt.Fprintf(&b, "\nTotal: %.2f (%s)\n", order.TotalPrice, order.PaymentMethod)
	return s.send(to, "Order confirmation", b.String())
}

// NopNotifier drops every notification. Used when SMTP is not configured
// and as the default in tests.
type NopNotifier struct{}

func (NopNotifier) SendShippingConfirmation(ShippingNotification) error { return nil }
func (NopNotifier) SendOrderStatusUpdate(StatusNotification) error      { return nil }
func (NopNotifier) SendOrderConfirmation(string, string, *models.Order) error {
	return nil
}
