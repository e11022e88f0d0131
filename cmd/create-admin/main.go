// Package main bootstraps the first administrator account. Run it once
// against an empty database; later accounts are created through invites.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/gift-exchange/internal/config"
	"github.com/gift-exchange/internal/models"
	"github.com/gift-exchange/internal/storage"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

func main() {
	var (
		email = flag.String("email", "", "Administrator email address")
		name  = flag.String("name", "", "Administrator display name")
	)
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	reader := bufio.NewReader(os.Stdin)
	if *email == "" {
		*email = prompt(reader, "Email: ")
	}
	if *name == "" {
		*name = prompt(reader, "Name: ")
	}
	if *email == "" || *name == "" {
		log.Fatal("Email and name are required")
	}

	password := promptPassword("Password: ")
	confirm := promptPassword("Confirm password: ")
	if password != confirm {
		log.Fatal("Passwords do not match")
	}
	if len(password) < 8 {
		log.Fatal("Password must be at least 8 characters")
	}

	postgres, err := storage.NewPostgresDB(&cfg.Database.Postgres)
	if err != nil {
		log.Fatalf("Failed to connect to Postgres: %v", err)
	}
	defer postgres.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	users := storage.NewUserRepository(postgres)
	lists := storage.NewListRepository(postgres)

	existing, err := users.GetByEmail(ctx, *email)
	if err != nil {
		log.Fatalf("Failed to check existing user: %v", err)
	}
	if existing != nil {
		log.Fatalf("A user with email %s already exists", *email)
	}

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}
	hash := string(hashBytes)

	admin := &models.User{
		Email:        strings.ToLower(strings.TrimSpace(*email)),
		PasswordHash: &hash,
		Name:         strings.TrimSpace(*name),
		IsAdmin:      true,
		IsActive:     true,
	}
	if err := users.Create(ctx, admin); err != nil {
		log.Fatalf("Failed to create admin: %v", err)
	}

	list := &models.List{
		OwnerID: admin.ID,
		Name:    fmt.Sprintf("%s's List", admin.Name),
	}
	if err := lists.Create(ctx, list); err != nil {
		log.Fatalf("Failed to create list: %v", err)
	}

	fmt.Printf("Administrator %s (%s) created with list %q\n", admin.Name, admin.Email, list.Name)
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Print(label)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func promptPassword(label string) string {
	fmt.Print(label)
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		log.Fatalf("Failed to read password: %v", err)
	}
	return string(raw)
}
