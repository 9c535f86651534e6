package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gststore/storefront-backend/database"
	"github.com/gststore/storefront-backend/metrics"
	"github.com/gststore/storefront-backend/models"
	"github.com/gststore/storefront-backend/services"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Logger and Notify are wired from main at startup. The defaults keep
// handler unit tests free of setup.
var (
	Logger *zap.Logger       = zap.NewNop()
	Notify services.Notifier = services.NopNotifier{}
)

func writeServiceError(c echo.Context, err error) error {
	var (
		validationErr *services.ValidationError
		stateErr      *services.InvalidStateError
		operationErr  *services.InvalidOperationError
		forbiddenErr  *services.ForbiddenError
		notFoundErr   *services.NotFoundError
	)
	switch {
	case errors.As(err, &validationErr), errors.As(err, &stateErr), errors.As(err, &operationErr):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.As(err, &forbiddenErr):
		return c.JSON(http.StatusForbidden, map[string]string{"error": err.Error()})
	case errors.As(err, &notFoundErr):
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	}
	Logger.Error("unexpected error", zap.Error(err))
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Unexpected error"})
}

type CreateOrderRequest struct {
	Items []struct {
		ProductID string `json:"productId"`
		Quantity  int    `json:"quantity"`
	} `json:"items"`
	ShippingInfo  models.ShippingInfo  `json:"shippingInfo"`
	PaymentMethod models.PaymentMethod `json:"paymentMethod"`
	PaymentInfo   *models.PaymentInfo  `json:"paymentInfo,omitempty"`
	ShippingPrice float64              `json:"shippingPrice"`
}

func CreateOrder(c echo.Context) error {
	var req CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request format"})
	}

	userID, ok := c.Get("userID").(primitive.ObjectID)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "User not authenticated"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Join each requested line with the product fields it is priced from
	productsCollection := database.DB.Collection("products")
	var lines []services.LineInput
	for _, item := range req.Items {
		productID, err := primitive.ObjectIDFromHex(item.ProductID)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid product ID " + item.ProductID})
		}

		var product models.Product
		err = productsCollection.FindOne(ctx, bson.M{"_id": productID}).Decode(&product)
		if err != nil {
			if err == mongo.ErrNoDocuments {
				return c.JSON(http.StatusNotFound, map[string]string{
					"error": fmt.Sprintf("Product %s not found", item.ProductID),
				})
			}
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch product"})
		}

		if product.Stock < item.Quantity {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": fmt.Sprintf("Insufficient stock for product %s", product.Name),
			})
		}

		image := ""
		if len(product.Images) > 0 {
			image = product.Images[0]
		}
		lines = append(lines, services.LineInput{
			Name:     product.Name,
			Quantity: item.Quantity,
			Price:    product.Price,
			Image:    image,
			Product:  product.ID,
			Category: product.Category,
		})
	}

	order, err := services.PlaceOrder(services.PlaceOrderInput{
		User:          userID,
		Items:         lines,
		Shipping:      req.ShippingInfo,
		PaymentMethod: req.PaymentMethod,
		PaymentInfo:   req.PaymentInfo,
		ShippingPrice: req.ShippingPrice,
	}, time.Now())
	if err != nil {
		return writeServiceError(c, err)
	}

	order.ID = primitive.NewObjectID()
	_, err = database.DB.Collection("orders").InsertOne(ctx, order)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to create order"})
	}
	metrics.OrdersCreated.WithLabelValues(string(order.PaymentMethod)).Inc()

	// Clear cart after successful order creation
	_, err = database.DB.Collection("carts").UpdateOne(
		ctx,
		bson.M{"userId": userID},
		bson.M{"$set": bson.M{"items": []models.CartItem{}, "updatedAt": time.Now()}},
	)
	if err != nil {
		Logger.Warn("failed to clear cart after order creation", zap.Error(err))
	}

	if name, email, err := lookupCustomer(ctx, userID); err == nil {
		if err := Notify.SendOrderConfirmation(email, name, order); err != nil {
			metrics.NotificationFailures.Inc()
			Logger.Warn("order confirmation failed", zap.String("order_id", order.ID.Hex()), zap.Error(err))
		}
	}

	return c.JSON(http.StatusCreated, order)
}

func lookupCustomer(ctx context.Context, userID primitive.ObjectID) (name, email string, err error) {
	var user models.User
	err = database.DB.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		return "", "", err
	}
	return user.Name, user.Email, nil
}

func GetMyOrders(c echo.Context) error {
	userID := c.Get("userID").(primitive.ObjectID)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := database.DB.Collection("orders").Find(ctx, bson.M{"user": userID}, opts)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch orders"})
	}
	defer cursor.Close(ctx)

	var orders []models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to decode orders"})
	}

	return c.JSON(http.StatusOK, orders)
}

// canViewOrder reports whether the requester may read this order: its
// owner or an admin.
func canViewOrder(order *models.Order, userID primitive.ObjectID, role models.Role) bool {
	return order.User == userID || role == models.RoleAdmin
}

func GetOrder(c echo.Context) error {
	orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid order ID"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var order models.Order
	err = database.DB.Collection("orders").FindOne(ctx, bson.M{"_id": orderID}).Decode(&order)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Order not found"})
	}

	userID := c.Get("userID").(primitive.ObjectID)
	role, _ := c.Get("role").(models.Role)
	if !canViewOrder(&order, userID, role) {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "Not authorized to view this order"})
	}

	return c.JSON(http.StatusOK, order)
}

// GetOrderStatus is the lightweight polling endpoint used by the SPA.
func GetOrderStatus(c echo.Context) error {
	orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid order ID"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var order models.Order
	err = database.DB.Collection("orders").FindOne(ctx, bson.M{"_id": orderID}).Decode(&order)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Order not found"})
	}

	userID := c.Get("userID").(primitive.ObjectID)
	role, _ := c.Get("role").(models.Role)
	if !canViewOrder(&order, userID, role) {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "Not authorized to view this order"})
	}

	return c.JSON(http.StatusOK, map[string]string{"status": string(order.OrderStatus)})
}

func GetAllOrders(c echo.Context) error {
	filter := bson.M{}
	if status := c.QueryParam("status"); status != "" {
		filter["orderStatus"] = status
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := database.DB.Collection("orders").Find(ctx, filter, opts)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch orders"})
	}
	defer cursor.Close(ctx)

	var orders []models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to decode orders"})
	}

	return c.JSON(http.StatusOK, orders)
}

type UpdateOrderStatusRequest struct {
	Status models.OrderStatus `json:"status"`
	Note   string             `json:"note"`
}

// UpdateOrderStatus drives the order through a lifecycle transition. The
// guard check and the write happen in one FindOneAndUpdate so two racing
// transitions cannot both get past a terminal state.
func UpdateOrderStatus(c echo.Context) error {
	orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid order ID"})
	}

	var req UpdateOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request format"})
	}

	actor := c.Get("userID").(primitive.ObjectID)
	return applyOrderTransition(c, orderID, actor, func(order *models.Order, now time.Time) (services.TransitionEffects, error) {
		return services.ApplyTransition(order, req.Status, req.Note, actor, now)
	})
}

// CollectCODPayment is the dedicated COD collection entry point.
func CollectCODPayment(c echo.Context) error {
	orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid order ID"})
	}

	actor := c.Get("userID").(primitive.ObjectID)
	return applyOrderTransition(c, orderID, actor, func(order *models.Order, now time.Time) (services.TransitionEffects, error) {
		return services.CollectCOD(order, actor, now)
	})
}

// transitionGuardFilter builds the FindOneAndUpdate filter that makes a
// transition's precondition check and write one atomic document operation.
// Every transition re-checks the terminal guard; a COD collection also
// re-checks its own preconditions so two racing collections cannot both
// commit.
func transitionGuardFilter(orderID primitive.ObjectID, target models.OrderStatus) bson.M {
	blocked := bson.A{models.OrderStatusDelivered, models.OrderStatusCancelled}
	filter := bson.M{"_id": orderID}
	if target == models.OrderStatusCODCollected {
		blocked = append(blocked, models.OrderStatusCODCollected)
		filter["paymentMethod"] = models.PaymentMethodCOD
	}
	filter["orderStatus"] = bson.M{"$nin": blocked}
	return filter
}

func applyOrderTransition(c echo.Context, orderID, actor primitive.ObjectID,
	transition func(*models.Order, time.Time) (services.TransitionEffects, error)) error {

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ordersCollection := database.DB.Collection("orders")

	var order models.Order
	err := ordersCollection.FindOne(ctx, bson.M{"_id": orderID}).Decode(&order)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return writeServiceError(c, &services.NotFoundError{Resource: "order"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch order"})
	}

	now := time.Now()
	effects, err := transition(&order, now)
	if err != nil {
		return writeServiceError(c, err)
	}
	historyEntry := order.StatusHistory[len(order.StatusHistory)-1]

	set := bson.M{"orderStatus": order.OrderStatus}
	if order.OrderStatus == models.OrderStatusDelivered {
		set["deliveredAt"] = order.DeliveredAt
	}
	if order.OrderStatus == models.OrderStatusCODCollected {
		set["codCollectedAt"] = order.CODCollectedAt
		set["paymentInfo"] = order.PaymentInfo
	}

	// Filter re-checks the lifecycle guards so check-and-write is one atomic
	// document operation even when another transition raced us.
	result := ordersCollection.FindOneAndUpdate(
		ctx,
		transitionGuardFilter(orderID, order.OrderStatus),
		bson.M{
			"$set":  set,
			"$push": bson.M{"statusHistory": historyEntry},
		},
	)
	if result.Err() != nil {
		if result.Err() == mongo.ErrNoDocuments {
			if order.OrderStatus == models.OrderStatusCODCollected {
				// A concurrent collection got there first.
				return writeServiceError(c, &services.InvalidOperationError{Reason: "COD payment already collected"})
			}
			// A concurrent transition moved the order into a terminal state
			// between our read and the guarded write.
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "order was finalized by a concurrent update"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to update order"})
	}
	metrics.OrderTransitions.WithLabelValues(string(order.OrderStatus)).Inc()

	// Everything below is best-effort; the committed status change is the
	// source of truth and is never rolled back.
	if effects.DecrementStock {
		decrementStock(ctx, &order)
	}
	notifyTransition(ctx, &order, effects, historyEntry.Note)

	return c.JSON(http.StatusOK, order)
}

func decrementStock(ctx context.Context, order *models.Order) {
	productsCollection := database.DB.Collection("products")
	for _, item := range order.OrderItems {
		_, err := productsCollection.UpdateOne(
			ctx,
			bson.M{"_id": item.Product},
			bson.M{"$inc": bson.M{"stock": -item.Quantity}},
		)
		if err != nil {
			Logger.Warn("stock decrement failed",
				zap.String("order_id", order.ID.Hex()),
				zap.String("product_id", item.Product.Hex()),
				zap.Error(err))
		}
	}
}

func notifyTransition(ctx context.Context, order *models.Order, effects services.TransitionEffects, note string) {
	name, email, err := lookupCustomer(ctx, order.User)
	if err != nil {
		Logger.Warn("customer lookup for notification failed",
			zap.String("order_id", order.ID.Hex()), zap.Error(err))
		return
	}

	if effects.Kind == services.NotifyShipping {
		err = Notify.SendShippingConfirmation(services.ShippingNotification{
			To:           email,
			OrderID:      order.ID.Hex(),
			CustomerName: name,
			Tracking:     effects.Tracking,
		})
	} else {
		err = Notify.SendOrderStatusUpdate(services.StatusNotification{
			To:           email,
			OrderID:      order.ID.Hex(),
			CustomerName: name,
			Status:       order.OrderStatus,
			Note:         note,
		})
	}
	if err != nil {
		metrics.NotificationFailures.Inc()
		Logger.Warn("order notification failed",
			zap.String("order_id", order.ID.Hex()), zap.Error(err))
	}
}

// DeleteOrder is a plain administrative removal, no cascading cleanup.
func DeleteOrder(c echo.Context) error {
	orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid order ID"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := database.DB.Collection("orders").DeleteOne(ctx, bson.M{"_id": orderID})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to delete order"})
	}
	if result.DeletedCount == 0 {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Order not found"})
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Order deleted successfully"})
}

// DownloadInvoice streams the rendered invoice PDF for a delivered order.
func DownloadInvoice(c echo.Context) error {
	orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid order ID"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var order models.Order
	err = database.DB.Collection("orders").FindOne(ctx, bson.M{"_id": orderID}).Decode(&order)
	if err != nil {
		return writeServiceError(c, &services.NotFoundError{Resource: "order"})
	}

	userID := c.Get("userID").(primitive.ObjectID)
	role, _ := c.Get("role").(models.Role)
	invoice, err := services.BuildInvoice(&order, userID, role == models.RoleAdmin, time.Now())
	if err != nil {
		return writeServiceError(c, err)
	}

	c.Response().Header().Set(echo.HeaderContentType, "application/pdf")
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="invoice-%s.pdf"`, invoice.Number))
	c.Response().WriteHeader(http.StatusOK)

	if err := services.RenderInvoicePDF(&order, invoice, c.Response()); err != nil {
		Logger.Error("invoice render failed", zap.String("order_id", order.ID.Hex()), zap.Error(err))
		return err
	}
	metrics.InvoicesRendered.Inc()
	return nil
}
