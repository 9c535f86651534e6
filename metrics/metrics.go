package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders placed, by payment method.",
	}, []string{"payment_method"})

	OrderTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_transitions_total",
		Help: "Order status transitions, by target status.",
	}, []string{"status"})

	InvoicesRendered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "invoices_rendered_total",
		Help: "Invoice PDFs rendered.",
	})

	NotificationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notification_failures_total",
		Help: "Best-effort notification sends that failed.",
	})
)
