// Command create-admin bootstraps the protected admin account. It is run
// once against a fresh database, before the API serves traffic.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/optread/optread-api/internal/domain"
	"github.com/optread/optread-api/internal/repository"
	"github.com/optread/optread-api/migrations"
	"github.com/optread/optread-api/pkg/config"
	"github.com/optread/optread-api/pkg/database"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	fullName := flag.String("name", "Administrator", "admin full name")
	email := flag.String("email", "", "admin email (required)")
	password := flag.String("password", "", "admin password (required, min 6 characters)")
	flag.Parse()

	if *email == "" || *password == "" {
		log.Fatal("both -email and -password are required")
	}
	if len(*password) < 6 {
		log.Fatal("password must be at least 6 characters")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.NewPostgres(ctx, &database.PostgresConfig{
		Host:           cfg.Database.Host,
		Port:           cfg.Database.Port,
		User:           cfg.Database.User,
		Password:       cfg.Database.Password,
		Database:       cfg.Database.DBName,
		SSLMode:        cfg.Database.SSLMode,
		MaxConns:       2,
		MinConns:       1,
		ConnectTimeout: 10 * time.Second,
		MaxRetries:     3,
		RetryInterval:  time.Second,
	})
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(migrations.FS); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	userRepo := repository.NewPostgresUserRepository(db.Pool())

	existing, err := userRepo.GetByEmail(ctx, *email)
	if err != nil {
		log.Fatalf("lookup failed: %v", err)
	}
	if existing != nil {
		log.Fatalf("a user with email %s already exists", *email)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(*password), cfg.Auth.BcryptCost)
	if err != nil {
		log.Fatalf("password hashing failed: %v", err)
	}

	now := time.Now()
	admin := &domain.User{
		ID:           uuid.New().String(),
		FullName:     *fullName,
		Email:        *email,
		PasswordHash: string(hashed),
		Role:         domain.RoleAdmin,
		Status:       domain.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := userRepo.Create(ctx, admin); err != nil {
		log.Fatalf("admin creation failed: %v", err)
	}

	fmt.Printf("admin account created: %s (%s)\n", admin.Email, admin.ID)
}
