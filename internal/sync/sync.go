// Package sync keeps each role's donation lists consistent with the
// store without manual reload. On any change-feed event touching the
// role's tables it re-runs the full query set and replaces the lists
// wholesale. Computing incremental deltas is not worth the complexity
// at this scale; at-least-once notification of every committed write
// is enough for eventual consistency.
package sync

import (
	"context"
	"log"

	"github.com/greenbox-lable/share-plate/internal/feed"
	"github.com/greenbox-lable/share-plate/internal/models"
)

// Store is the subset of the database the synchronizer refetches
// from: the role query shapes plus the admin views.
type Store interface {
	DonationsByDonor(ctx context.Context, donorID string) ([]models.Donation, error)
	PendingDonations(ctx context.Context) ([]models.Donation, error)
	DonationsByNGO(ctx context.Context, ngoID string) ([]models.Donation, error)
	AvailablePickups(ctx context.Context) ([]models.Donation, error)
	DonationsByVolunteer(ctx context.Context, volunteerID string) ([]models.Donation, error)
	AllDonations(ctx context.Context) ([]models.Donation, error)
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	ListAccounts(ctx context.Context) ([]models.AccountView, error)
	ListContactMessages(ctx context.Context) ([]models.ContactMessage, error)
	GetStats(ctx context.Context) (*models.DashboardStats, error)
}

// Snapshot is one complete view of a role's actionable sets. Every
// refetch produces a whole new Snapshot; clients replace, never merge.
type Snapshot struct {
	// Available is the shared contended set: pending donations for
	// NGOs, unclaimed accepted donations for volunteers.
	Available []models.Donation `json:"available,omitempty"`

	// Mine is the actor's own set: donor history, NGO-accepted
	// donations, or volunteer deliveries.
	Mine []models.Donation `json:"mine,omitempty"`

	// Admin-only views.
	AllDonations []models.Donation       `json:"all_donations,omitempty"`
	Accounts     []models.AccountView    `json:"accounts,omitempty"`
	Messages     []models.ContactMessage `json:"messages,omitempty"`
	Stats        *models.DashboardStats  `json:"stats,omitempty"`
}

type Synchronizer struct {
	store Store
	hub   *feed.Hub
}

func New(store Store, hub *feed.Hub) *Synchronizer {
	return &Synchronizer{store: store, hub: hub}
}

// Fetch runs the full query set for the role and returns a fresh
// snapshot. Refetching twice with no intervening writes yields
// identical snapshots.
func (s *Synchronizer) Fetch(ctx context.Context, role models.Role, userID string) (*Snapshot, error) {
	snap := &Snapshot{}
	var err error

	switch role {
	case models.RoleDonor:
		snap.Mine, err = s.store.DonationsByDonor(ctx, userID)
		if err != nil {
			return nil, err
		}
	case models.RoleNGO:
		snap.Available, err = s.store.PendingDonations(ctx)
		if err != nil {
			return nil, err
		}
		snap.Mine, err = s.store.DonationsByNGO(ctx, userID)
		if err != nil {
			return nil, err
		}
	case models.RoleVolunteer:
		// An inactive volunteer sees no new pickup work; deliveries
		// already claimed stay visible.
		profile, err := s.store.GetProfile(ctx, userID)
		if err != nil {
			return nil, err
		}
		if profile.IsActive {
			snap.Available, err = s.store.AvailablePickups(ctx)
			if err != nil {
				return nil, err
			}
		}
		snap.Mine, err = s.store.DonationsByVolunteer(ctx, userID)
		if err != nil {
			return nil, err
		}
	case models.RoleAdmin:
		snap.AllDonations, err = s.store.AllDonations(ctx)
		if err != nil {
			return nil, err
		}
		snap.Accounts, err = s.store.ListAccounts(ctx)
		if err != nil {
			return nil, err
		}
		snap.Messages, err = s.store.ListContactMessages(ctx)
		if err != nil {
			return nil, err
		}
		snap.Stats, err = s.store.GetStats(ctx)
		if err != nil {
			return nil, err
		}
	}
	return snap, nil
}

// watchedTables returns the tables whose events require a refetch for
// the role. Volunteers watch profiles because their own is_active
// gates the available list.
func watchedTables(role models.Role) map[string]bool {
	switch role {
	case models.RoleAdmin:
		return map[string]bool{"donations": true, "profiles": true, "contact_messages": true}
	case models.RoleVolunteer:
		return map[string]bool{"donations": true, "profiles": true}
	default:
		return map[string]bool{"donations": true}
	}
}

// Run subscribes to the change feed and pushes a snapshot on start
// and after every relevant event, until ctx ends. The subscription is
// released on return, so its lifetime is exactly the stream's.
func (s *Synchronizer) Run(ctx context.Context, role models.Role, userID string, out chan<- Snapshot) error {
	events := s.hub.Subscribe()
	defer s.hub.Unsubscribe(events)

	tables := watchedTables(role)

	push := func() error {
		snap, err := s.Fetch(ctx, role, userID)
		if err != nil {
			return err
		}
		select {
		case out <- *snap:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if err := push(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if !tables[ev.Table] {
				continue
			}
			if err := push(); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				// A failed refetch leaves the previous snapshot in
				// place; the next event retries.
				log.Printf("sync: refetch for %s failed: %v", role, err)
			}
		}
	}
}
