package main

import (
	"log"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/Melkor-1/Fin-Vista/internal/credentials"
	"github.com/Melkor-1/Fin-Vista/internal/db"
	"github.com/Melkor-1/Fin-Vista/internal/engine"
	"github.com/Melkor-1/Fin-Vista/internal/handlers"
	"github.com/Melkor-1/Fin-Vista/internal/ledger"
	"github.com/Melkor-1/Fin-Vista/internal/quote"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using defaults or environment variables")
	}

	// Initialize database
	if err := db.InitDB(); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.CloseDB()

	if err := db.EnsureSchema(db.DB); err != nil {
		log.Fatal("Failed to prepare schema:", err)
	}

	// Get number of workers from env or default to 5
	numWorkers := 5
	if workers := os.Getenv("NUM_WORKERS"); workers != "" {
		if n, err := strconv.Atoi(workers); err == nil && n > 0 {
			numWorkers = n
		}
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	store := ledger.NewPostgresStore(db.DB)
	provider := quote.NewYahooProvider()
	eng := engine.New(store, provider)

	// Initialize trade processor
	processor := engine.NewProcessor(eng, numWorkers)

	feed := handlers.NewTradeFeed()
	processor.OnExecuted = feed.Publish

	processor.Start()
	defer processor.Stop()

	// Set Gin mode based on environment
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create Gin router
	router := gin.Default()

	api := handlers.NewAPI(store, eng, processor, credentials.NewValidator(), feed, []byte(jwtSecret))
	api.RegisterRoutes(router)

	// Get port from environment or default
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Println("🚀 Server starting on http://localhost:" + port)

	if err := router.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
