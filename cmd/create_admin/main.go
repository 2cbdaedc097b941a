package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/chtmcooks/auth-service/domain/entity"
	"github.com/chtmcooks/auth-service/domain/valueobject"
	"github.com/chtmcooks/auth-service/infrastructure/adapter/postgres"
	"github.com/chtmcooks/auth-service/infrastructure/config"
	"github.com/chtmcooks/auth-service/infrastructure/service/password"
)

// usage: create_admin <email> <password> [first name] [last name]
func main() {
	ctx := context.Background()

	if len(os.Args) < 3 {
		log.Fatalf("usage: %s <email> <password> [first name] [last name]", os.Args[0])
	}
	email := entity.NormalizeEmail(os.Args[1])
	userPassword := os.Args[2]
	firstName, lastName := "System", "Administrator"
	if len(os.Args) > 3 {
		firstName = os.Args[3]
	}
	if len(os.Args) > 4 {
		lastName = os.Args[4]
	}

	if err := valueobject.ValidateEmail(email); err != nil {
		log.Fatalf("Invalid email: %v", err)
	}
	if err := valueobject.ValidatePassword(userPassword); err != nil {
		log.Fatalf("Invalid password: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	userRepo := postgres.NewUserRepositoryAdapter(db, postgres.NewTokenHasher(cfg.RefreshSecret), cfg.StoreTimeout)

	hashedPassword, err := password.NewBcryptPasswordService(cfg.BcryptCost).HashPassword(userPassword)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	admin := entity.NewUser(uuid.New().String(), email, hashedPassword, firstName, lastName, entity.RoleSuperAdmin, time.Now())
	admin.EmailVerified = true

	if err := userRepo.Create(ctx, admin); err != nil {
		log.Fatalf("Failed to create admin user: %v", err)
	}

	fmt.Printf("Admin user created\n")
	fmt.Printf("Email: %s\n", admin.Email)
	fmt.Printf("Name:  %s %s\n", admin.FirstName, admin.LastName)
	fmt.Printf("Role:  %s\n", admin.Role)
	fmt.Printf("ID:    %s\n", admin.ID)
}
