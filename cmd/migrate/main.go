package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/chtmcooks/auth-service/infrastructure/adapter/postgres"
)

func main() {
	mode := flag.String("mode", "up", "migration mode: up, down or status")
	flag.Parse()

	_ = godotenv.Load()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	ctx := context.Background()
	db, err := postgres.Open(ctx, dsn)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer db.Close()

	switch *mode {
	case "up", "down", "status":
	default:
		log.Fatalf("unknown mode: %s", *mode)
	}

	if err := postgres.Migrate(ctx, db, *mode); err != nil {
		log.Fatalf("migration %s failed: %v", *mode, err)
	}
	log.Printf("Migration %s completed successfully", *mode)
}
