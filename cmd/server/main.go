package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"github.com/joho/godotenv"

	"github.com/greenbox-lable/share-plate/internal/db"
	"github.com/greenbox-lable/share-plate/internal/feed"
	"github.com/greenbox-lable/share-plate/internal/handlers"
	"github.com/greenbox-lable/share-plate/internal/middleware"
	"github.com/greenbox-lable/share-plate/internal/models"
	viewsync "github.com/greenbox-lable/share-plate/internal/sync"
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

	sessionSecret := os.Getenv("SESSION_SECRET")
	if sessionSecret == "" {
		sessionSecret = "default-secret-key-change-in-production"
	}

	store := sessions.NewCookieStore([]byte(sessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   false,
		SameSite: http.SameSiteLaxMode,
	}

	hub := feed.NewHub()
	listener := feed.NewListener(database.Pool, hub)
	go func() {
		if err := listener.Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("change feed stopped: %v", err)
		}
	}()

	synchronizer := viewsync.New(database, hub)
	h := handlers.New(database, store, synchronizer)

	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	r.Post("/api/signup", h.Signup)
	r.Post("/api/login", h.Login)
	r.Post("/api/logout", h.Logout)
	r.Post("/api/contact", h.ContactSubmit)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(store))
		r.Get("/api/me", h.Me)
		r.Get("/api/events", h.Events)
	})

	r.Route("/api/donor", func(r chi.Router) {
		r.Use(middleware.RequireRole(store, models.RoleDonor))
		r.Post("/donations", h.CreateDonation)
		r.Get("/donations", h.DonorDonations)
	})

	r.Route("/api/ngo", func(r chi.Router) {
		r.Use(middleware.RequireRole(store, models.RoleNGO))
		r.Get("/available", h.AvailableDonations)
		r.Get("/accepted", h.AcceptedDonations)
		r.Post("/donations/{id}/accept", h.AcceptDonation)
	})

	r.Route("/api/volunteer", func(r chi.Router) {
		r.Use(middleware.RequireRole(store, models.RoleVolunteer))
		r.Get("/available", h.AvailablePickups)
		r.Get("/deliveries", h.VolunteerDeliveries)
		r.Post("/donations/{id}/claim", h.ClaimDonation)
		r.Post("/donations/{id}/deliver", h.DeliverDonation)
		r.Put("/active", h.UpdateActiveStatus)
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.RequireRole(store, models.RoleAdmin))
		r.Get("/users", h.AdminUsers)
		r.Put("/users/{id}/active", h.AdminSetUserActive)
		r.Get("/donations", h.AdminDonations)
		r.Delete("/donations/{id}", h.AdminDeleteDonation)
		r.Get("/stats", h.AdminStats)
		r.Get("/messages", h.AdminMessages)
		r.Put("/messages/{id}/resolve", h.AdminResolveMessage)
	})

	addr := os.Getenv("ADDR")
	if addr == "" {
		addr = ":8080"
	}

	log.Printf("Server starting on %s", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
