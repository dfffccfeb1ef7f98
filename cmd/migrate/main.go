package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lib/pq"

	"github.com/ignite/listguard/internal/emailcheck"
	"github.com/ignite/listguard/internal/repository/postgres"
	"github.com/ignite/listguard/internal/service/account"
)

// Tables created by the migrations, used by --list.
var tables = []string{
	"users", "api_tokens", "organizations", "organization_members", "organization_invitations",
	"subscription_lists", "subscribers", "subscriber_tags", "unsubscribe_logs",
	"email_blacklist", "subscription_analytics", "email_templates",
}

func main() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is required")
	}

	dir := "migrations"
	listOnly := false
	seedAdmin := ""
	for _, a := range os.Args[1:] {
		switch {
		case a == "--list":
			listOnly = true
		case strings.HasPrefix(a, "--seed-admin="):
			seedAdmin = strings.TrimPrefix(a, "--seed-admin=")
		default:
			dir = a
		}
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("ping: %v", err)
	}
	log.Println("Connected to database")

	if listOnly {
		listTables(db)
		return
	}

	okCount, errCount := apply(db, dir)
	log.Printf("Done: %d OK, %d errors", okCount, errCount)
	if errCount > 0 {
		os.Exit(1)
	}
	log.Println("Migrations complete")

	if seedAdmin != "" {
		if err := seed(context.Background(), db, seedAdmin); err != nil {
			log.Fatalf("seed admin: %v", err)
		}
	}
}

func listTables(db *sql.DB) {
	rows, err := db.Query("SELECT tablename FROM pg_tables WHERE schemaname='public' AND tablename = ANY($1) ORDER BY tablename",
		pq.Array(tables))
	if err != nil {
		log.Fatal(err)
	}
	defer rows.Close()
	n := 0
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			log.Fatal(err)
		}
		fmt.Println(" ", t)
		n++
	}
	fmt.Printf("Total: %d of %d tables\n", n, len(tables))
}

// apply runs every .sql file in dir in name order, one transaction each.
// The files are idempotent so re-running is safe.
func apply(db *sql.DB, dir string) (okCount, errCount int) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Fatalf("read migrations dir %s: %v", dir, err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, f := range files {
		path := filepath.Join(dir, f)
		data, err := os.ReadFile(path)
		if err != nil {
			log.Fatalf("read %s: %v", path, err)
		}
		content := string(data)
		if strings.TrimSpace(content) == "" {
			continue
		}
		fmt.Printf("  %s ... ", f)

		tx, err := db.Begin()
		if err != nil {
			fmt.Printf("BEGIN ERROR: %v\n", err)
			errCount++
			continue
		}
		if _, err := tx.Exec(content); err != nil {
			tx.Rollback()
			fmt.Printf("ERROR: %v\n", err)
			errCount++
			continue
		}
		if err := tx.Commit(); err != nil {
			fmt.Printf("COMMIT ERROR: %v\n", err)
			errCount++
			continue
		}
		fmt.Println("OK")
		okCount++
	}
	return okCount, errCount
}

// seed creates an admin user (or reuses one with the same email) and prints
// a fresh API token for it.
func seed(ctx context.Context, db *sql.DB, email string) error {
	repo := postgres.NewAccountRepo(db)
	accounts := account.NewService(repo)
	u, err := accounts.CreateUser(ctx, "Administrator", email, true)
	if errors.Is(err, account.ErrDuplicateEmail) {
		log.Printf("user %s already exists, issuing a new token", email)
		u, err = repo.GetUserByEmail(ctx, emailcheck.Normalize(email))
	}
	if err != nil {
		return err
	}
	if !u.IsAdmin {
		return fmt.Errorf("user %s exists but is not an admin", email)
	}
	plain, _, err := accounts.IssueToken(ctx, u.ID, "seed")
	if err != nil {
		return err
	}
	fmt.Printf("Admin token for %s (shown once): %s\n", u.Email, plain)
	return nil
}
