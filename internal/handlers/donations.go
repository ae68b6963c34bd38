package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/greenbox-lable/share-plate/internal/db"
	"github.com/greenbox-lable/share-plate/internal/lifecycle"
	"github.com/greenbox-lable/share-plate/internal/middleware"
	"github.com/greenbox-lable/share-plate/internal/models"
)

func (h *Handler) CreateDonation(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := middleware.Identity(h.Store, r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not signed in")
		return
	}

	var sub models.DonationSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if sub.FoodItem == "" || sub.Quantity == "" || sub.PickupAddress == "" {
		writeError(w, http.StatusBadRequest, "food item, quantity, and pickup address are required")
		return
	}
	if sub.ExpiryTime.IsZero() {
		writeError(w, http.StatusBadRequest, "expiry time is required")
		return
	}
	if sub.City == "" {
		// Fall back to the donor's profile city, like the donation
		// form does.
		if profile, err := h.DB.GetProfile(r.Context(), userID); err == nil {
			sub.City = profile.City
		}
	}

	donation, err := h.DB.CreateDonation(r.Context(), userID, sub)
	if err != nil {
		log.Printf("create donation: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to post donation")
		return
	}
	writeJSON(w, http.StatusCreated, donation)
}

func (h *Handler) DonorDonations(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := middleware.Identity(h.Store, r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not signed in")
		return
	}
	donations, err := h.DB.DonationsByDonor(r.Context(), userID)
	if err != nil {
		log.Printf("donor donations: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load donations")
		return
	}
	writeJSON(w, http.StatusOK, donationList(donations))
}

func (h *Handler) AvailableDonations(w http.ResponseWriter, r *http.Request) {
	donations, err := h.DB.PendingDonations(r.Context())
	if err != nil {
		log.Printf("pending donations: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load donations")
		return
	}
	writeJSON(w, http.StatusOK, donationList(donations))
}

func (h *Handler) AcceptedDonations(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := middleware.Identity(h.Store, r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not signed in")
		return
	}
	donations, err := h.DB.DonationsByNGO(r.Context(), userID)
	if err != nil {
		log.Printf("ngo donations: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load donations")
		return
	}
	writeJSON(w, http.StatusOK, donationList(donations))
}

func (h *Handler) AcceptDonation(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, lifecycle.Accept)
}

func (h *Handler) AvailablePickups(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := middleware.Identity(h.Store, r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not signed in")
		return
	}

	// Inactive volunteers see no new pickup work; already-claimed
	// deliveries remain on the deliveries endpoint.
	profile, err := h.DB.GetProfile(r.Context(), userID)
	if err != nil {
		log.Printf("volunteer profile: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}
	if !profile.IsActive {
		writeJSON(w, http.StatusOK, []models.Donation{})
		return
	}

	donations, err := h.DB.AvailablePickups(r.Context())
	if err != nil {
		log.Printf("available pickups: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load donations")
		return
	}
	writeJSON(w, http.StatusOK, donationList(donations))
}

func (h *Handler) VolunteerDeliveries(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := middleware.Identity(h.Store, r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not signed in")
		return
	}
	donations, err := h.DB.DonationsByVolunteer(r.Context(), userID)
	if err != nil {
		log.Printf("volunteer deliveries: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load deliveries")
		return
	}
	writeJSON(w, http.StatusOK, donationList(donations))
}

func (h *Handler) ClaimDonation(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, lifecycle.Claim)
}

func (h *Handler) DeliverDonation(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, lifecycle.Deliver)
}

// transition applies one lifecycle step for the signed-in actor and
// returns the updated record. A precondition miss means another actor
// got there first; that is a 409 with a specific message, never a
// generic failure.
func (h *Handler) transition(w http.ResponseWriter, r *http.Request, tr lifecycle.Transition) {
	userID, role, ok := middleware.Identity(h.Store, r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not signed in")
		return
	}
	if role != tr.ActorRole {
		writeError(w, http.StatusForbidden, "your role cannot perform this action")
		return
	}

	donationID := chi.URLParam(r, "id")
	err := h.DB.ApplyTransition(r.Context(), tr, donationID, userID)
	if errors.Is(err, db.ErrNotAvailable) {
		writeError(w, http.StatusConflict, "this donation is no longer available")
		return
	}
	if err != nil {
		log.Printf("%s donation %s: %v", tr.Name, donationID, err)
		writeError(w, http.StatusInternalServerError, "failed to update donation")
		return
	}

	donation, err := h.DB.GetDonation(r.Context(), donationID)
	if err != nil {
		// The update landed; report success even if the readback
		// failed. The client's next refetch shows the final state.
		writeJSON(w, http.StatusOK, map[string]string{"status": string(tr.To)})
		return
	}
	writeJSON(w, http.StatusOK, donation)
}

type activeRequest struct {
	IsActive bool `json:"is_active"`
}

func (h *Handler) UpdateActiveStatus(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := middleware.Identity(h.Store, r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not signed in")
		return
	}
	var req activeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.DB.SetActiveStatus(r.Context(), userID, req.IsActive); err != nil {
		log.Printf("set active status: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to update status")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"is_active": req.IsActive})
}

// donationList keeps empty results as [] instead of null in JSON.
func donationList(donations []models.Donation) []models.Donation {
	if donations == nil {
		return []models.Donation{}
	}
	return donations
}
