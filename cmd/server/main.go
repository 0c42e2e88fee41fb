package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"gym_club_backend/internal/database"
	"gym_club_backend/internal/router"
	"gym_club_backend/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	utils.InitLogger()

	// Database configuration from environment variables
	dbHost := utils.Getenv("DB_HOST", "localhost")
	dbPort := utils.Getenv("DB_PORT", "5432")
	dbUser := utils.Getenv("DB_USER", "gym_club_user")
	dbPassword := utils.Getenv("DB_PASSWORD", "gym_club_password")
	dbName := utils.Getenv("DB_NAME", "gym_club_db")
	dbSSLMode := utils.Getenv("DB_SSLMODE", "disable")
	dbSchemaPath := utils.Getenv("DB_SCHEMA_PATH", "")

	db, err := database.InitDB(dbHost, dbPort, dbUser, dbPassword, dbName, dbSSLMode)
	if err != nil {
		utils.LogError(err, "Failed to initialize database")
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()
	utils.LogInfo("Database initialized", map[string]interface{}{"host": dbHost, "name": dbName})

	if err := database.ApplySchema(db, dbSchemaPath); err != nil {
		utils.LogError(err, "Failed to apply database schema")
		log.Fatalf("Failed to apply database schema: %v", err)
	}

	engine := gin.Default()
	engine.Use(utils.GinLogger())

	// CORS configuration
	corsAllowedOriginsEnv := os.Getenv("CORS_ALLOWED_ORIGINS")
	var allowedOrigins []string
	if corsAllowedOriginsEnv != "" {
		allowedOrigins = strings.Split(corsAllowedOriginsEnv, ",")
	} else {
		allowedOrigins = []string{"http://localhost:3000", "http://localhost:3001"}
	}

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = allowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	corsConfig.AllowCredentials = true
	engine.Use(cors.New(corsConfig))

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	cfg := router.Config{
		PaymentGatewayURL: utils.Getenv("PAYMENT_GATEWAY_URL", "http://localhost:9090"),
		PaymentTimeout:    envDuration("PAYMENT_TIMEOUT", 10*time.Second),
		SweepInterval:     envDuration("SWEEP_INTERVAL", time.Hour),
	}
	sw := router.Setup(engine, db, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sw.Start(ctx)

	port := utils.Getenv("PORT", "8080")
	utils.LogInfo("Server starting", map[string]interface{}{"port": port})

	if err := engine.Run(":" + port); err != nil {
		utils.LogError(err, "Failed to start server")
		log.Fatalf("Failed to start server: %v", err)
	}
}

func envDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		utils.LogWarn("Invalid duration in environment, using fallback", map[string]interface{}{
			"key": key, "value": raw, "fallback": fallback.String(),
		})
		return fallback
	}
	return d
}
