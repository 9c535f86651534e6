package handlers

import (
	"testing"

	"github.com/gststore/storefront-backend/models"
	"github.com/stretchr/testify/assert"
)

func TestCartQuantityError(t *testing.T) {
	product := &models.Product{Name: "Kettle", Stock: 3}

	assert.Empty(t, cartQuantityError(product, 1))
	assert.Empty(t, cartQuantityError(product, 3))

	assert.Equal(t, "Quantity must be at least 1", cartQuantityError(product, 0))
	assert.Equal(t, "Quantity must be at least 1", cartQuantityError(product, -2))
	assert.Equal(t, "Only 3 of Kettle in stock", cartQuantityError(product, 4))
}
