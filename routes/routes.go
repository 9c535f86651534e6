package routes

import (
	"github.com/gststore/storefront-backend/handlers"
	customMiddleware "github.com/gststore/storefront-backend/middleware"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRoutes(e *echo.Echo) {
	// Public routes
	e.POST("/api/v1/register", handlers.RegisterUser)
	e.POST("/api/v1/login", handlers.LoginUser)
	e.GET("/api/v1/products", handlers.GetProducts)
	e.GET("/api/v1/products/:id", handlers.GetProduct)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Protected API routes
	api := e.Group("/api/v1")
	api.Use(customMiddleware.AuthMiddleware)

	// User routes
	api.GET("/me", handlers.GetUserProfile)
	api.PUT("/me", handlers.UpdateUserProfile)
	api.GET("/me/addresses", handlers.GetUserAddresses)
	api.POST("/me/addresses", handlers.AddUserAddress)
	api.PUT("/me/addresses/:id", handlers.UpdateUserAddress)
	api.DELETE("/me/addresses/:id", handlers.DeleteUserAddress)

	// Cart routes
	api.GET("/cart", handlers.GetCart)
	api.POST("/cart", handlers.AddToCart)
	api.DELETE("/cart/:productId", handlers.RemoveFromCart)
	api.PUT("/cart/quantity", handlers.UpdateCartItemQuantity)

	// Order routes
	api.POST("/orders", handlers.CreateOrder)
	api.GET("/orders/me", handlers.GetMyOrders)
	api.GET("/orders/:id", handlers.GetOrder)
	api.GET("/orders/:id/status", handlers.GetOrderStatus)
	api.GET("/orders/:id/invoice", handlers.DownloadInvoice)

	// Admin routes
	admin := api.Group("/admin")
	admin.Use(customMiddleware.AdminMiddleware)
	admin.GET("/orders", handlers.GetAllOrders)
	admin.PUT("/orders/:id/status", handlers.UpdateOrderStatus)
	admin.PUT("/orders/:id/collect-cod", handlers.CollectCODPayment)
	admin.DELETE("/orders/:id", handlers.DeleteOrder)
	admin.POST("/products", handlers.CreateProduct)
	admin.PUT("/products/:id", handlers.UpdateProduct)
	admin.DELETE("/products/:id", handlers.DeleteProduct)
	admin.PUT("/products/gst-rate", handlers.UpdateProductGSTRates)
	admin.GET("/dashboard", handlers.GetDashboard)
}
