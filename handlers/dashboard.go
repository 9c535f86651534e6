package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gststore/storefront-backend/database"
	"github.com/gststore/storefront-backend/models"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
)

// GetDashboard aggregates order counts, revenue and collected GST for the
// admin overview.
func GetDashboard(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ordersCollection := database.DB.Collection("orders")

	cursor, err := ordersCollection.Aggregate(ctx, bson.A{
		bson.M{"$group": bson.M{
			"_id":      "$orderStatus",
			"count":    bson.M{"$sum": 1},
			"total":    bson.M{"$sum": "$totalPrice"},
			"totalGst": bson.M{"$sum": "$gstSummary.totalGstAmount"},
		}},
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to aggregate orders"})
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status   models.OrderStatus `bson:"_id"`
		Count    int64              `bson:"count"`
		Total    float64            `bson:"total"`
		TotalGst float64            `bson:"totalGst"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to decode aggregation"})
	}

	statusCounts := map[models.OrderStatus]int64{}
	var totalOrders int64
	var revenue, gstCollected float64
	for _, row := range rows {
		statusCounts[row.Status] = row.Count
		totalOrders += row.Count
		// Revenue counts only orders whose payment has landed.
		if row.Status == models.OrderStatusDelivered || row.Status == models.OrderStatusCODCollected {
			revenue += row.Total
			gstCollected += row.TotalGst
		}
	}

	productCount, err := database.DB.Collection("products").CountDocuments(ctx, bson.M{})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to count products"})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"ordersByStatus": statusCounts,
		"totalOrders":    totalOrders,
		"revenue":        revenue,
		"gstCollected":   gstCollected,
		"productCount":   productCount,
	})
}

// UpdateProductGSTRates bulk-updates the configurable per-product GST rate,
// optionally scoped to one category. This drives the GST settings and
// analytics paths only; order creation applies the flat default rate.
func UpdateProductGSTRates(c echo.Context) error {
	var req struct {
		Category string  `json:"category"`
		GSTRate  float64 `json:"gstRate"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request format"})
	}
	if req.GSTRate < 0 || req.GSTRate > 28 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "gstRate must be between 0 and 28"})
	}

	filter := bson.M{}
	if req.Category != "" {
		filter["category"] = req.Category
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := database.DB.Collection("products").UpdateMany(
		ctx,
		filter,
		bson.M{"$set": bson.M{"gstRate": req.GSTRate, "updatedAt": time.Now()}},
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to update GST rates"})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"matched":  result.MatchedCount,
		"modified": result.ModifiedCount,
	})
}
