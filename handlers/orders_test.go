package handlers

import (
	"testing"

	"github.com/gststore/storefront-backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestTransitionGuardFilter(t *testing.T) {
	orderID := primitive.NewObjectID()

	t.Run("generic transition re-checks terminal guard only", func(t *testing.T) {
		filter := transitionGuardFilter(orderID, models.OrderStatusShipped)

		assert.Equal(t, orderID, filter["_id"])
		assert.Equal(t, bson.M{"$nin": bson.A{
			models.OrderStatusDelivered, models.OrderStatusCancelled,
		}}, filter["orderStatus"])
		_, hasPaymentMethod := filter["paymentMethod"]
		assert.False(t, hasPaymentMethod)
	})

	t.Run("COD collection re-checks its own preconditions", func(t *testing.T) {
		filter := transitionGuardFilter(orderID, models.OrderStatusCODCollected)

		assert.Equal(t, orderID, filter["_id"])
		assert.Equal(t, models.PaymentMethodCOD, filter["paymentMethod"])

		// Two racing collections cannot both match: the first writer flips
		// orderStatus to COD_Collected, which this guard excludes.
		guard, ok := filter["orderStatus"].(bson.M)
		require.True(t, ok)
		assert.Contains(t, guard["$nin"], models.OrderStatusCODCollected)
		assert.Contains(t, guard["$nin"], models.OrderStatusDelivered)
		assert.Contains(t, guard["$nin"], models.OrderStatusCancelled)
	})
}

func TestCanViewOrder(t *testing.T) {
	owner := primitive.NewObjectID()
	order := &models.Order{User: owner}

	assert.True(t, canViewOrder(order, owner, models.RoleUser))
	assert.True(t, canViewOrder(order, primitive.NewObjectID(), models.RoleAdmin))
	assert.False(t, canViewOrder(order, primitive.NewObjectID(), models.RoleUser))
	assert.False(t, canViewOrder(order, primitive.NewObjectID(), ""))
}
