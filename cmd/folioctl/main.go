// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Command folioctl manages admin accounts from the command line.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/mail"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/term"

	"github.com/olegiv/folio-go/internal/auth"
	"github.com/olegiv/folio-go/internal/store"
)

const minPasswordLength = 6

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	_ = godotenv.Load()

	var err error
	switch os.Args[1] {
	case "create-admin":
		err = createAdmin(os.Args[2:])
	case "revoke-tokens":
		err = revokeTokens(os.Args[2:])
	case "hash-password":
		err = hashPassword(os.Args[2:])
	case "help", "-h", "-help", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: folioctl <command> [flags]

Commands:
  create-admin   -email <email> [-db <path>]   create an admin account
  revoke-tokens  -email <email> [-db <path>]   invalidate all issued tokens
  hash-password                                hash a password read from stdin
  help                                         show this message

The database path defaults to FOLIO_DB_PATH or ./data/folio.db.`)
}

func dbPathDefault() string {
	if p := os.Getenv("FOLIO_DB_PATH"); p != "" {
		return p
	}
	return "./data/folio.db"
}

func openDB(path string) (*store.Queries, func(), error) {
	db, err := store.NewDB(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	if err := store.Migrate(db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}
	return store.New(db), func() { _ = db.Close() }, nil
}

// readPassword prompts twice without echoing and requires both entries to match.
func readPassword() (string, error) {
	fmt.Fprint(os.Stderr, "Password: ")
	first, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	fmt.Fprint(os.Stderr, "Confirm password: ")
	second, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	if string(first) != string(second) {
		return "", fmt.Errorf("passwords do not match")
	}
	password := string(first)
	if len(password) < minPasswordLength {
		return "", fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	return password, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return "", fmt.Errorf("invalid email address: %q", email)
	}
	return email, nil
}

func createAdmin(args []string) error {
	fs := flag.NewFlagSet("create-admin", flag.ExitOnError)
	email := fs.String("email", "", "admin email address")
	dbPath := fs.String("db", dbPathDefault(), "database path")
	_ = fs.Parse(args)

	if *email == "" {
		return fmt.Errorf("-email is required")
	}
	normalized, err := normalizeEmail(*email)
	if err != nil {
		return err
	}

	password, err := readPassword()
	if err != nil {
		return err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	queries, closeDB, err := openDB(*dbPath)
	if err != nil {
		return err
	}
	defer closeDB()

	ctx := context.Background()
	if _, err := queries.GetAdminByEmail(ctx, normalized); err == nil {
		// Account exists, rotate the password instead of failing.
		if err := queries.UpdateAdminPassword(ctx, normalized, hash); err != nil {
			return fmt.Errorf("updating password: %w", err)
		}
		fmt.Printf("password updated for %s\n", normalized)
		return nil
	}

	admin, err := queries.CreateAdmin(ctx, normalized, hash)
	if err != nil {
		return fmt.Errorf("creating admin: %w", err)
	}
	fmt.Printf("admin created: %s (id %d)\n", admin.Email, admin.ID)
	return nil
}

func revokeTokens(args []string) error {
	fs := flag.NewFlagSet("revoke-tokens", flag.ExitOnError)
	email := fs.String("email", "", "admin email address")
	dbPath := fs.String("db", dbPathDefault(), "database path")
	_ = fs.Parse(args)

	if *email == "" {
		return fmt.Errorf("-email is required")
	}
	normalized, err := normalizeEmail(*email)
	if err != nil {
		return err
	}

	queries, closeDB, err := openDB(*dbPath)
	if err != nil {
		return err
	}
	defer closeDB()

	ctx := context.Background()
	if _, err := queries.GetAdminByEmail(ctx, normalized); err != nil {
		return fmt.Errorf("no admin with email %s", normalized)
	}

	// Tokens issued before the watermark fail validation from now on.
	now := time.Now().UTC()
	if err := queries.SetAdminMinIssuedAt(ctx, normalized, now); err != nil {
		return fmt.Errorf("setting revocation watermark: %w", err)
	}
	fmt.Printf("tokens issued before %s are now invalid for %s\n", now.Format(time.RFC3339), normalized)
	return nil
}

func hashPassword(args []string) error {
	fs := flag.NewFlagSet("hash-password", flag.ExitOnError)
	_ = fs.Parse(args)

	password, err := readPassword()
	if err != nil {
		return err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	fmt.Println(hash)
	return nil
}
