// Command seed-admin creates a user directly in the database. With
// -role=admin it seeds the back-office account; the storefront itself has
// no sign-up surface.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/dukahq/storefront/internal/auth"
	"github.com/dukahq/storefront/internal/config"
	"github.com/dukahq/storefront/internal/core/domain/entity"
	"github.com/dukahq/storefront/internal/storage/sqlite"
)

func main() {
	email := flag.String("email", "", "account email (required)")
	password := flag.String("password", "", "account password (required)")
	fullName := flag.String("name", "", "display name")
	role := flag.String("role", string(entity.RoleAdmin), "role: admin or customer")
	flag.Parse()

	if *email == "" || *password == "" {
		flag.Usage()
		os.Exit(2)
	}
	if *role != string(entity.RoleAdmin) && *role != string(entity.RoleCustomer) {
		log.Fatalf("unknown role %q", *role)
	}

	cfg := config.Load()
	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		log.Fatalf("failed to create data directory: %v", err)
	}

	db, err := sqlite.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	hash, err := auth.HashPassword(*password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	user := entity.User{
		ID:           uuid.NewString(),
		Email:        *email,
		FullName:     *fullName,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}

	users := sqlite.NewUserRepository(db)
	if err := users.CreateUser(context.Background(), user, entity.Role(*role)); err != nil {
		log.Fatalf("failed to create user: %v", err)
	}

	fmt.Printf("created %s user %s (%s)\n", *role, *email, user.ID)
}
