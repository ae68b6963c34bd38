package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/greenbox-lable/share-plate/internal/db"
)

func (h *Handler) AdminUsers(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.DB.ListAccounts(r.Context())
	if err != nil {
		log.Printf("list accounts: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load users")
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (h *Handler) AdminSetUserActive(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	var req activeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	err := h.DB.SetActiveStatus(r.Context(), userID, req.IsActive)
	if errors.Is(err, db.ErrNotFound) {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		log.Printf("admin set active: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to update user")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"is_active": req.IsActive})
}

func (h *Handler) AdminDonations(w http.ResponseWriter, r *http.Request) {
	donations, err := h.DB.AllDonations(r.Context())
	if err != nil {
		log.Printf("all donations: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load donations")
		return
	}
	writeJSON(w, http.StatusOK, donationList(donations))
}

func (h *Handler) AdminDeleteDonation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := h.DB.DeleteDonation(r.Context(), id)
	if errors.Is(err, db.ErrNotFound) {
		writeError(w, http.StatusNotFound, "donation not found")
		return
	}
	if err != nil {
		log.Printf("delete donation: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to delete donation")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "donation deleted"})
}

func (h *Handler) AdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.DB.GetStats(r.Context())
	if err != nil {
		log.Printf("stats: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) AdminMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := h.DB.ListContactMessages(r.Context())
	if err != nil {
		log.Printf("list messages: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load messages")
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

func (h *Handler) AdminResolveMessage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := h.DB.ResolveContactMessage(r.Context(), id)
	if errors.Is(err, db.ErrNotFound) {
		writeError(w, http.StatusNotFound, "message not found or already resolved")
		return
	}
	if err != nil {
		log.Printf("resolve message: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to resolve message")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "resolved"})
}
