package routes

import (
	"github.com/gin-gonic/gin"

	"autostore_back_end/internal/handlers"
	"autostore_back_end/internal/middleware"
)

func RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api")

	// Auth
	api.POST("/auth/register", handlers.Register)
	api.POST("/auth/login", handlers.Login)
	api.GET("/auth/me", middleware.AuthRequired(), handlers.Me)

	// Véhicules (catalogue public, gestion admin)
	api.GET("/vehicles", handlers.GetVehicles)
	api.GET("/vehicles/search", handlers.SearchVehicles)
	api.GET("/vehicles/:id", handlers.GetVehicle)

	adminVehicles := api.Group("/vehicles", middleware.AuthRequired(), middleware.RequireAdmin())
	adminVehicles.POST("", handlers.CreateVehicle)
	adminVehicles.PUT("/:id", handlers.UpdateVehicle)
	adminVehicles.DELETE("/:id", handlers.DeleteVehicle)
	adminVehicles.POST("/:id/image", handlers.UploadVehicleImage)

	// Commandes
	ordersGroup := api.Group("/orders", middleware.AuthRequired())
	ordersGroup.POST("", handlers.CreateOrder)
	ordersGroup.GET("", handlers.GetOrders)
	ordersGroup.GET("/:id", handlers.GetOrder)
	ordersGroup.POST("/:id/cancel", handlers.CancelOrder)
	ordersGroup.POST("/:id/capture", handlers.CaptureOrder)
	ordersGroup.PATCH("/:id/status", middleware.RequireAdmin(), handlers.UpdateOrderStatus)

	// Retours des prestataires de paiement (appelés par redirection navigateur,
	// pas de JWT).
	api.GET("/paypal/success", handlers.PayPalSuccess)
	api.GET("/paypal/cancel", handlers.PayPalCancel)
	api.GET("/stripe/success", handlers.StripeSuccess)
	api.GET("/stripe/cancel", handlers.StripeCancel)
}
