package services

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestItemGST(t *testing.T) {
	assert.InDelta(t, 36, ItemGST(100, 2), 1e-9)
	assert.InDelta(t, 18, ItemGST(100, 1), 1e-9)
	assert.InDelta(t, 0, ItemGST(0, 5), 1e-9)
}

func TestBuildGSTSummary(t *testing.T) {
	lines := []GSTLine{
		{Category: "Electronics", Price: 100, Quantity: 2},
		{Category: "Electronics", Price: 50, Quantity: 1},
		{Category: "Books", Price: 200, Quantity: 1},
		{Category: "", Price: 10, Quantity: 3},
	}

	summary := BuildGSTSummary(lines, time.Now())

	// 36 + 9 + 36 + 5.4
	assert.InDelta(t, 86.4, summary.TotalGstAmount, 1e-9)
	assert.InDelta(t, 45, summary.CategoryWiseGst["Electronics"], 1e-9)
	assert.InDelta(t, 36, summary.CategoryWiseGst["Books"], 1e-9)

	// Uncategorized lines feed the total but never the map
	assert.Len(t, summary.CategoryWiseGst, 2)
}

func TestNewInvoiceNumber(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	number := NewInvoiceNumber(now)

	assert.True(t, strings.HasPrefix(number, "INV-260831-"))
	assert.LessOrEqual(t, len(number), 15)

	// Random suffix keeps consecutive numbers distinct
	assert.NotEqual(t, number, NewInvoiceNumber(now))
}
