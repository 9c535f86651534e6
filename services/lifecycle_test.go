package services

import (
	"testing"
	"time"

	"github.com/gststore/storefront-backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func placeInput(method models.PaymentMethod, info *models.PaymentInfo) PlaceOrderInput {
	return PlaceOrderInput{
		User: primitive.NewObjectID(),
		Items: []LineInput{
			{Name: "Kettle", Quantity: 2, Price: 100, Product: primitive.NewObjectID(), Category: "Appliances"},
			{Name: "Mug", Quantity: 1, Price: 50, Product: primitive.NewObjectID(), Category: "Kitchen"},
		},
		Shipping: models.ShippingInfo{
			Address: "12 MG Road", City: "Bengaluru", State: "KA",
			PostalCode: "560001", Country: "India", PhoneNo: "9876543210",
		},
		PaymentMethod: method,
		PaymentInfo:   info,
		ShippingPrice: 40,
	}
}

func TestPlaceOrderCOD(t *testing.T) {
	now := time.Now()
	order, err := PlaceOrder(placeInput(models.PaymentMethodCOD, nil), now)
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusCODPending, order.OrderStatus)
	assert.Equal(t, order.TotalPrice, order.CODAmount)
	assert.Nil(t, order.PaidAt)
	assert.Nil(t, order.PaymentInfo)

	require.Len(t, order.StatusHistory, 1)
	assert.Equal(t, models.OrderStatusCODPending, order.StatusHistory[0].Status)
	assert.Equal(t, PlacementNote, order.StatusHistory[0].Note)
}

func TestPlaceOrderCard(t *testing.T) {
	now := time.Now()
	order, err := PlaceOrder(placeInput(models.PaymentMethodCard, &models.PaymentInfo{ID: "pi_123", Status: "succeeded"}), now)
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusProcessing, order.OrderStatus)
	require.NotNil(t, order.PaidAt)
	assert.Equal(t, now, *order.PaidAt)
	assert.Zero(t, order.CODAmount)
	require.Len(t, order.StatusHistory, 1)
}

func TestPlaceOrderCardMissingPaymentInfo(t *testing.T) {
	tests := []struct {
		name string
		info *models.PaymentInfo
	}{
		{"nil info", nil},
		{"missing id", &models.PaymentInfo{Status: "succeeded"}},
		{"missing status", &models.PaymentInfo{ID: "pi_123"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PlaceOrder(placeInput(models.PaymentMethodCard, tt.info), time.Now())
			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, "paymentInfo", validationErr.Field)
		})
	}
}

func TestPlaceOrderPricing(t *testing.T) {
	order, err := PlaceOrder(placeInput(models.PaymentMethodCOD, nil), time.Now())
	require.NoError(t, err)

	// 2x100 + 1x50 = 250 items, 18% GST = 45, shipping 40
	assert.InDelta(t, 250, order.ItemsPrice, 1e-9)
	assert.InDelta(t, 45, order.TaxPrice, 1e-9)
	assert.InDelta(t, 335, order.TotalPrice, 1e-9)
	assert.InDelta(t, 36, order.OrderItems[0].GSTAmount, 1e-9)
	assert.InDelta(t, 9, order.OrderItems[1].GSTAmount, 1e-9)
}

func TestPlaceOrderValidation(t *testing.T) {
	now := time.Now()

	in := placeInput(models.PaymentMethodCOD, nil)
	in.Items = nil
	_, err := PlaceOrder(in, now)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)

	in = placeInput(models.PaymentMethodCOD, nil)
	in.Items[0].Quantity = 0
	_, err = PlaceOrder(in, now)
	require.ErrorAs(t, err, &validationErr)

	in = placeInput(models.PaymentMethodCOD, nil)
	in.Shipping.City = ""
	_, err = PlaceOrder(in, now)
	require.ErrorAs(t, err, &validationErr)

	in = placeInput("wallet", nil)
	_, err = PlaceOrder(in, now)
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "paymentMethod", validationErr.Field)
}

func TestTransitionTerminalStates(t *testing.T) {
	for _, terminal := range []models.OrderStatus{models.OrderStatusDelivered, models.OrderStatusCancelled} {
		for _, target := range []models.OrderStatus{
			models.OrderStatusProcessing, models.OrderStatusShipped,
			models.OrderStatusCancelled, models.OrderStatusDelivered,
		} {
			order, err := PlaceOrder(placeInput(models.PaymentMethodCOD, nil), time.Now())
			require.NoError(t, err)
			order.OrderStatus = terminal

			_, err = ApplyTransition(order, target, "note", primitive.NewObjectID(), time.Now())
			var stateErr *InvalidStateError
			require.ErrorAs(t, err, &stateErr, "from %s to %s", terminal, target)
			assert.Equal(t, terminal, stateErr.Status)
		}
	}
}

func TestTransitionAppendsExactlyOneHistoryEntry(t *testing.T) {
	order, err := PlaceOrder(placeInput(models.PaymentMethodCard, &models.PaymentInfo{ID: "pi_1", Status: "succeeded"}), time.Now())
	require.NoError(t, err)
	first := order.StatusHistory[0]

	actor := primitive.NewObjectID()
	now := time.Now()
	_, err = ApplyTransition(order, models.OrderStatusShipped, "handed to courier", actor, now)
	require.NoError(t, err)

	require.Len(t, order.StatusHistory, 2)
	assert.Equal(t, first, order.StatusHistory[0])
	entry := order.StatusHistory[1]
	assert.Equal(t, models.OrderStatusShipped, entry.Status)
	assert.Equal(t, "handed to courier", entry.Note)
	assert.Equal(t, actor, entry.UpdatedBy)
	assert.Equal(t, now, entry.Timestamp)
}

func TestTransitionValidation(t *testing.T) {
	order, err := PlaceOrder(placeInput(models.PaymentMethodCOD, nil), time.Now())
	require.NoError(t, err)

	var validationErr *ValidationError
	_, err = ApplyTransition(order, "", "note", primitive.NewObjectID(), time.Now())
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "status", validationErr.Field)

	_, err = ApplyTransition(order, "Teleported", "note", primitive.NewObjectID(), time.Now())
	require.ErrorAs(t, err, &validationErr)

	_, err = ApplyTransition(order, models.OrderStatusShipped, "", primitive.NewObjectID(), time.Now())
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "note", validationErr.Field)

	// Nothing was mutated by the failed attempts
	assert.Equal(t, models.OrderStatusCODPending, order.OrderStatus)
	assert.Len(t, order.StatusHistory, 1)
}

func TestTransitionDelivered(t *testing.T) {
	order, err := PlaceOrder(placeInput(models.PaymentMethodCard, &models.PaymentInfo{ID: "pi_1", Status: "succeeded"}), time.Now())
	require.NoError(t, err)

	now := time.Now()
	effects, err := ApplyTransition(order, models.OrderStatusDelivered, "left at door", primitive.NewObjectID(), now)
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusDelivered, order.OrderStatus)
	require.NotNil(t, order.DeliveredAt)
	assert.Equal(t, now, *order.DeliveredAt)
	assert.True(t, effects.DecrementStock)
	assert.Equal(t, NotifyStatusUpdate, effects.Kind)
}

func TestTransitionShippingNotification(t *testing.T) {
	for _, status := range []models.OrderStatus{models.OrderStatusShipped, models.OrderStatusOutForDelivery} {
		order, err := PlaceOrder(placeInput(models.PaymentMethodCOD, nil), time.Now())
		require.NoError(t, err)

		now := time.Now()
		effects, err := ApplyTransition(order, status, "tracking: AWB123 https://track.example.com/AWB123", primitive.NewObjectID(), now)
		require.NoError(t, err)

		assert.Equal(t, NotifyShipping, effects.Kind)
		assert.Equal(t, "AWB123 https://track.example.com/AWB123", effects.Tracking.Number)
		assert.Equal(t, "https://track.example.com/AWB123", effects.Tracking.URL)
		assert.Equal(t, now.Add(72*time.Hour), effects.Tracking.EstimatedDelivery)
	}
}

func TestCollectCOD(t *testing.T) {
	now := time.Now()

	t.Run("card order rejected", func(t *testing.T) {
		order, err := PlaceOrder(placeInput(models.PaymentMethodCard, &models.PaymentInfo{ID: "pi_1", Status: "succeeded"}), now)
		require.NoError(t, err)

		_, err = CollectCOD(order, primitive.NewObjectID(), now)
		var operationErr *InvalidOperationError
		require.ErrorAs(t, err, &operationErr)
	})

	t.Run("double collection rejected", func(t *testing.T) {
		order, err := PlaceOrder(placeInput(models.PaymentMethodCOD, nil), now)
		require.NoError(t, err)
		_, err = CollectCOD(order, primitive.NewObjectID(), now)
		require.NoError(t, err)

		_, err = CollectCOD(order, primitive.NewObjectID(), now)
		var operationErr *InvalidOperationError
		require.ErrorAs(t, err, &operationErr)
		assert.Contains(t, operationErr.Reason, "already collected")
	})

	t.Run("valid collection", func(t *testing.T) {
		order, err := PlaceOrder(placeInput(models.PaymentMethodCOD, nil), now)
		require.NoError(t, err)

		effects, err := CollectCOD(order, primitive.NewObjectID(), now)
		require.NoError(t, err)

		assert.Equal(t, models.OrderStatusCODCollected, order.OrderStatus)
		require.NotNil(t, order.CODCollectedAt)
		assert.Equal(t, now, *order.CODCollectedAt)
		require.NotNil(t, order.PaymentInfo)
		assert.Equal(t, "succeeded", order.PaymentInfo.Status)
		assert.False(t, effects.DecrementStock)

		last := order.StatusHistory[len(order.StatusHistory)-1]
		assert.Equal(t, CODCollectionNote, last.Note)
	})
}

func TestParseTracking(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name       string
		note       string
		wantNumber string
		wantURL    string
	}{
		{"number and url", "shipped, tracking: AWB42", "AWB42", ""},
		{"url only", "see https://courier.example/x for updates", "N/A", "https://courier.example/x"},
		{"neither", "handed to courier", "N/A", ""},
		{"http url", "tracking: 99 http://t.co/99", "99 http://t.co/99", "http://t.co/99"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := ParseTracking(tt.note, now)
			assert.Equal(t, tt.wantNumber, info.Number)
			assert.Equal(t, tt.wantURL, info.URL)
			assert.Equal(t, now.Add(72*time.Hour), info.EstimatedDelivery)
		})
	}
}
