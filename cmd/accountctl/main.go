// Command accountctl bootstraps an ADMIN account directly against the
// database. Registration over HTTP always produces USER accounts, so the
// first administrator has to be created out of band.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/term"

	"github.com/sapatil2212/CMS-SYSTEM-sub003/internal/common"
	"github.com/sapatil2212/CMS-SYSTEM-sub003/internal/server/auth"
	"github.com/sapatil2212/CMS-SYSTEM-sub003/internal/server/config"
	"github.com/sapatil2212/CMS-SYSTEM-sub003/internal/server/models"
	"github.com/sapatil2212/CMS-SYSTEM-sub003/internal/server/repositories/repomanager"
)

func main() {
	defaults := &config.Config{}
	defaults.LoadDefaults()

	dsn := flag.String("d", defaults.DatabaseDSN, "PostgreSQL DSN")
	name := flag.String("n", "Administrator", "display name")
	email := flag.String("e", "", "admin email (required)")
	flag.Parse()

	if *email == "" {
		flag.Usage()
		os.Exit(2)
	}

	fmt.Print("Password: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		log.Fatalf("password read error: %v", err)
	}
	if len(password) < 8 {
		log.Fatal("password must be at least 8 characters")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := run(ctx, *dsn, *name, *email, string(password)); err != nil {
		log.Fatalf("%v", err)
	}
	fmt.Printf("admin account ready: %s\n", *email)
}

// run creates the admin account, or promotes an existing account with the
// same email to ADMIN and resets its password.
func run(ctx context.Context, dsn, name, email, password string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}
	defer db.Close()

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("db migration error: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	repo := rm.Accounts(db)
	existing, err := repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		existing.Name = name
		existing.Role = models.RoleAdmin
		existing.PasswordHash = hash
		return repo.Update(ctx, existing)
	case errors.Is(err, common.ErrorNotFound):
		_, err := repo.Create(ctx, &models.Account{
			ID:           uuid.NewString(),
			Name:         name,
			Email:        email,
			PasswordHash: hash,
			Role:         models.RoleAdmin,
		})
		return err
	default:
		return err
	}
}
