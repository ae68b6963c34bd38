package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/greenbox-lable/share-plate/internal/auth"
	"github.com/greenbox-lable/share-plate/internal/db"
	"github.com/greenbox-lable/share-plate/internal/models"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file, reading from environment")
	}

	ctx := context.Background()

	database, err := db.New(ctx)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	email := os.Getenv("ADMIN_EMAIL")
	if email == "" {
		email = "admin@shareplate.app"
	}
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		log.Fatal("ADMIN_PASSWORD is not set")
	}
	if err := auth.ValidatePassword(password); err != nil {
		log.Fatalf("Invalid admin password: %v", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	admin, err := database.CreateAccount(ctx, email, hash, "Administrator", "", "", models.RoleAdmin)
	if err != nil {
		log.Fatalf("Failed to create admin: %v", err)
	}

	fmt.Println("Admin account created")
	fmt.Printf("Email: %s\n", email)
	fmt.Printf("ID:    %s\n", admin.ID)
}
