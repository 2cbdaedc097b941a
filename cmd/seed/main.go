package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/chtmcooks/auth-service/application/port/outbound"
	"github.com/chtmcooks/auth-service/domain/entity"
	"github.com/chtmcooks/auth-service/infrastructure/adapter/postgres"
	"github.com/chtmcooks/auth-service/infrastructure/config"
	"github.com/chtmcooks/auth-service/infrastructure/service/password"
)

type seedUser struct {
	email     string
	firstName string
	role      entity.Role
}

// Seeds one verified demo account per role. Existing addresses are left alone.
func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("refusing to seed demo accounts in production")
	}

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect db: %v", err)
	}
	defer db.Close()

	userRepo := postgres.NewUserRepositoryAdapter(db, postgres.NewTokenHasher(cfg.RefreshSecret), cfg.StoreTimeout)
	hash, err := password.NewBcryptPasswordService(cfg.BcryptCost).HashPassword(getenvDefault("SEED_USER_PASSWORD", "Demo1234!"))
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	users := []seedUser{
		{email: "superadmin@example.com", firstName: "Super", role: entity.RoleSuperAdmin},
		{email: "advisor@example.com", firstName: "Advisor", role: entity.RoleAdvisor},
		{email: "consultant@example.com", firstName: "Consultant", role: entity.RoleConsultant},
		{email: "000000001@" + cfg.StudentEmailDomain, firstName: "Student", role: entity.RoleStudent},
	}

	for _, su := range users {
		u := entity.NewUser(uuid.New().String(), su.email, hash, su.firstName, "Demo", su.role, time.Now())
		u.EmailVerified = true
		if su.role == entity.RoleStudent {
			u.YearLevel = 1
			u.Block = "A"
			u.Agreement = true
		}

		err := userRepo.Create(ctx, u)
		switch {
		case errors.Is(err, outbound.ErrUserAlreadyExists):
			fmt.Printf("skipped %s (exists)\n", u.Email)
		case err != nil:
			log.Fatalf("failed to seed %s: %v", u.Email, err)
		default:
			fmt.Printf("seeded %s as %s\n", u.Email, u.Role)
		}
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
