package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/playmatatu/carom/internal/config"
	"github.com/playmatatu/carom/internal/database"
	"github.com/playmatatu/carom/internal/operator"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	// Initialize database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	username := os.Getenv("OPERATOR_USERNAME")
	if username == "" {
		username = "operator"
		log.Printf("Using default operator username: %s", username)
	}

	password := os.Getenv("OPERATOR_PASSWORD")
	if password == "" {
		password = "change-me-in-production"
		log.Printf("WARNING: Using default operator password. Set OPERATOR_PASSWORD env var in production!")
	}

	displayName := os.Getenv("OPERATOR_DISPLAY_NAME")
	if displayName == "" {
		displayName = "Operator"
	}

	if err := operator.CreateOperator(context.Background(), db, username, displayName, password); err != nil {
		log.Fatalf("Failed to create operator account: %v", err)
	}

	log.Printf("✓ Operator account created/updated successfully")
	log.Printf("  Username: %s", username)
	log.Printf("  Display Name: %s", displayName)
	log.Println("\nRequest a controller token with POST /api/v1/auth/login")
}
