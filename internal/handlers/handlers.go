package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/sessions"

	"github.com/greenbox-lable/share-plate/internal/auth"
	"github.com/greenbox-lable/share-plate/internal/db"
	"github.com/greenbox-lable/share-plate/internal/middleware"
	"github.com/greenbox-lable/share-plate/internal/models"
	viewsync "github.com/greenbox-lable/share-plate/internal/sync"
)

type Handler struct {
	DB    *db.Database
	Store *sessions.CookieStore
	Sync  *viewsync.Synchronizer
}

func New(database *db.Database, store *sessions.CookieStore, synchronizer *viewsync.Synchronizer) *Handler {
	return &Handler{
		DB:    database,
		Store: store,
		Sync:  synchronizer,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	City     string `json:"city"`
	Role     string `json:"role"`
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.FullName == "" {
		writeError(w, http.StatusBadRequest, "email and full name are required")
		return
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	role, ok := models.ParseRole(req.Role)
	if !ok || role == models.RoleAdmin {
		// Admin accounts are seeded by cmd/create-admin, never
		// self-registered.
		writeError(w, http.StatusBadRequest, "role must be donor, ngo, or volunteer")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create account")
		return
	}

	user, err := h.DB.CreateAccount(r.Context(), req.Email, hash, req.FullName, req.Phone, req.City, role)
	if err != nil {
		if db.IsUniqueViolation(err) {
			writeError(w, http.StatusConflict, "this email is already registered")
			return
		}
		log.Printf("create account: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create account")
		return
	}

	h.establishSession(w, r, user.ID, role)
	writeJSON(w, http.StatusCreated, map[string]any{
		"user_id": user.ID,
		"email":   user.Email,
		"role":    role,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.DB.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		log.Printf("login lookup: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to sign in")
		return
	}
	if err := auth.CheckPassword(req.Password, user.PasswordHash); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	// Role and profile are resolved fresh on every sign-in, never
	// from a previous session.
	role, err := h.DB.GetRole(r.Context(), user.ID)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "no role assigned to this account")
		return
	}
	profile, err := h.DB.GetProfile(r.Context(), user.ID)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "no profile for this account")
		return
	}

	// A blocked donor or NGO cannot sign in. A volunteer's is_active
	// is an availability toggle, not a block.
	if !profile.IsActive && role != models.RoleVolunteer {
		writeError(w, http.StatusForbidden, "this account has been blocked")
		return
	}

	h.establishSession(w, r, user.ID, role)
	writeJSON(w, http.StatusOK, map[string]any{
		"user_id": user.ID,
		"email":   user.Email,
		"role":    role,
		"profile": profile,
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	session, _ := h.Store.Get(r, middleware.SessionName)
	session.Options.MaxAge = -1
	session.Save(r, w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "signed out"})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := middleware.Identity(h.Store, r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not signed in")
		return
	}
	profile, err := h.DB.GetProfile(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user_id": userID,
		"role":    role,
		"profile": profile,
	})
}

func (h *Handler) establishSession(w http.ResponseWriter, r *http.Request, userID string, role models.Role) {
	session, _ := h.Store.Get(r, middleware.SessionName)
	session.Values["user_id"] = userID
	session.Values["role"] = string(role)
	if err := session.Save(r, w); err != nil {
		log.Printf("save session: %v", err)
	}
}

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (h *Handler) ContactSubmit(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.Email == "" || req.Message == "" {
		writeError(w, http.StatusBadRequest, "name, email, and message are required")
		return
	}
	msg, err := h.DB.CreateContactMessage(r.Context(), req.Name, req.Email, req.Subject, req.Message)
	if err != nil {
		log.Printf("create contact message: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to send message")
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}
