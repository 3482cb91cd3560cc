package main

import (
	"log"
	"os"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v83"

	"autostore_back_end/internal/cache"
	"autostore_back_end/internal/config"
	"autostore_back_end/internal/database"
	"autostore_back_end/internal/handlers"
	"autostore_back_end/internal/orders"
	"autostore_back_end/internal/payments"
	"autostore_back_end/internal/repository"
	"autostore_back_end/internal/routes"
	"autostore_back_end/internal/utils"
)

func main() {
	config.Load()

	database.ConnectDatabases()
	defer database.CloseDatabases()

	orderRepo := repository.NewOrderRepository(database.Postgres)
	vehicleRepo := repository.NewVehicleRepository(database.Postgres)
	userRepo := repository.NewUserRepository(database.Postgres)
	orderCache := cache.NewOrderCache(database.Redis)

	gateways := []payments.Gateway{payments.NewPayPalFromEnv()}
	if key := os.Getenv("STRIPE_SECRET_KEY"); key != "" {
		stripe.Key = key
		gateways = append(gateways, payments.NewStripe())
		log.Println("✅ Stripe initialisé")
	} else {
		log.Println("⚠️ STRIPE_SECRET_KEY manquant : paiement Stripe désactivé")
	}

	handlers.Orders = orders.NewService(orderRepo, vehicleRepo, orderCache, gateways, utils.Mailer{})
	handlers.Vehicles = vehicleRepo
	handlers.Users = userRepo

	r := gin.Default()
	r.Use(corsMiddleware())
	routes.RegisterRoutes(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Println("🚀 Serveur AutoStore lancé sur le port", port)
	r.Run(":" + port)
}

func corsMiddleware() gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		cfg.AllowOrigins = strings.Split(origins, ",")
	} else {
		cfg.AllowAllOrigins = true
	}
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization")
	return cors.New(cfg)
}
