package db

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/greenbox-lable/share-plate/internal/lifecycle"
	"github.com/greenbox-lable/share-plate/internal/models"
)

// These tests need a real Postgres because the correctness claim
// under test is the store-side conditional update. Set
// TEST_DATABASE_URL to run them.
func testDatabase(t *testing.T) *Database {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	os.Setenv("DATABASE_URL", url)

	database, err := New(context.Background())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(database.Close)
	return database
}

func createTestAccount(t *testing.T, database *Database, role models.Role) *models.User {
	t.Helper()

	email := fmt.Sprintf("%s-%s@test.local", role, uuid.New().String()[:8])
	user, err := database.CreateAccount(context.Background(), email, "x", "Test "+string(role), "", "Pune", role)
	if err != nil {
		t.Fatalf("create %s account: %v", role, err)
	}
	return user
}

func createTestDonation(t *testing.T, database *Database, donorID string) *models.Donation {
	t.Helper()

	d, err := database.CreateDonation(context.Background(), donorID, models.DonationSubmission{
		FoodItem:      "Veg Thali",
		Quantity:      "50 servings",
		Description:   "Rice, Dal, Roti",
		City:          "Pune",
		PickupAddress: "12 MG Road",
		ExpiryTime:    time.Now().Add(4 * time.Hour),
	})
	if err != nil {
		t.Fatalf("create donation: %v", err)
	}
	return d
}

func TestDonationLifecycleEndToEnd(t *testing.T) {
	database := testDatabase(t)
	ctx := context.Background()

	donor := createTestAccount(t, database, models.RoleDonor)
	ngo := createTestAccount(t, database, models.RoleNGO)
	volunteer := createTestAccount(t, database, models.RoleVolunteer)

	d := createTestDonation(t, database, donor.ID)
	if d.Status != "pending" {
		t.Fatalf("new donation status: got %s, want pending", d.Status)
	}

	pending, err := database.PendingDonations(ctx)
	if err != nil {
		t.Fatalf("pending donations: %v", err)
	}
	if !containsDonation(pending, d.ID) {
		t.Error("new donation missing from the NGO available set")
	}

	if err := database.ApplyTransition(ctx, lifecycle.Accept, d.ID, ngo.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if err := database.ApplyTransition(ctx, lifecycle.Claim, d.ID, volunteer.ID); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := database.ApplyTransition(ctx, lifecycle.Deliver, d.ID, volunteer.ID); err != nil {
		t.Fatalf("deliver: %v", err)
	}

	final, err := database.GetDonation(ctx, d.ID)
	if err != nil {
		t.Fatalf("get donation: %v", err)
	}
	if final.Status != "delivered" {
		t.Errorf("final status: got %s, want delivered", final.Status)
	}
	if final.NgoID == nil || *final.NgoID != ngo.ID {
		t.Errorf("ngo_id: got %v, want %s", final.NgoID, ngo.ID)
	}
	if final.VolunteerID == nil || *final.VolunteerID != volunteer.ID {
		t.Errorf("volunteer_id: got %v, want %s", final.VolunteerID, volunteer.ID)
	}
	if err := lifecycle.CheckInvariants(*final); err != nil {
		t.Errorf("invariants: %v", err)
	}

	// Delivered donations stay in the donor's history.
	history, err := database.DonationsByDonor(ctx, donor.ID)
	if err != nil {
		t.Fatalf("donor history: %v", err)
	}
	if !containsDonation(history, d.ID) {
		t.Error("delivered donation missing from donor history")
	}
}

func TestAcceptExclusivityUnderRace(t *testing.T) {
	database := testDatabase(t)
	ctx := context.Background()

	donor := createTestAccount(t, database, models.RoleDonor)
	d := createTestDonation(t, database, donor.ID)

	const racers = 8
	ngos := make([]*models.User, racers)
	for i := range ngos {
		ngos[i] = createTestAccount(t, database, models.RoleNGO)
	}

	results := make([]error, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = database.ApplyTransition(ctx, lifecycle.Accept, d.ID, ngos[i].ID)
		}(i)
	}
	wg.Wait()

	winners := 0
	var winnerID string
	for i, err := range results {
		switch {
		case err == nil:
			winners++
			winnerID = ngos[i].ID
		case errors.Is(err, ErrNotAvailable):
		default:
			t.Errorf("racer %d: unexpected error %v", i, err)
		}
	}
	if winners != 1 {
		t.Fatalf("winners: got %d, want exactly 1", winners)
	}

	final, err := database.GetDonation(ctx, d.ID)
	if err != nil {
		t.Fatalf("get donation: %v", err)
	}
	if final.NgoID == nil || *final.NgoID != winnerID {
		t.Errorf("ngo_id: got %v, want winner %s", final.NgoID, winnerID)
	}
	if final.Status != "accepted" {
		t.Errorf("status: got %s, want accepted", final.Status)
	}
}

func TestDeliverRejectsNonClaimingVolunteer(t *testing.T) {
	database := testDatabase(t)
	ctx := context.Background()

	donor := createTestAccount(t, database, models.RoleDonor)
	ngo := createTestAccount(t, database, models.RoleNGO)
	claimer := createTestAccount(t, database, models.RoleVolunteer)
	other := createTestAccount(t, database, models.RoleVolunteer)

	d := createTestDonation(t, database, donor.ID)
	if err := database.ApplyTransition(ctx, lifecycle.Accept, d.ID, ngo.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if err := database.ApplyTransition(ctx, lifecycle.Claim, d.ID, claimer.ID); err != nil {
		t.Fatalf("claim: %v", err)
	}

	if err := database.ApplyTransition(ctx, lifecycle.Deliver, d.ID, other.ID); !errors.Is(err, ErrNotAvailable) {
		t.Errorf("deliver by non-claiming volunteer: got %v, want ErrNotAvailable", err)
	}
	if err := database.ApplyTransition(ctx, lifecycle.Deliver, d.ID, claimer.ID); err != nil {
		t.Errorf("deliver by claiming volunteer: %v", err)
	}
}

func TestTransitionsCannotSkipStates(t *testing.T) {
	database := testDatabase(t)
	ctx := context.Background()

	donor := createTestAccount(t, database, models.RoleDonor)
	volunteer := createTestAccount(t, database, models.RoleVolunteer)

	d := createTestDonation(t, database, donor.ID)

	// Claim straight from pending must fail: the precondition
	// requires accepted.
	if err := database.ApplyTransition(ctx, lifecycle.Claim, d.ID, volunteer.ID); !errors.Is(err, ErrNotAvailable) {
		t.Errorf("claim of pending donation: got %v, want ErrNotAvailable", err)
	}
	if err := database.ApplyTransition(ctx, lifecycle.Deliver, d.ID, volunteer.ID); !errors.Is(err, ErrNotAvailable) {
		t.Errorf("deliver of pending donation: got %v, want ErrNotAvailable", err)
	}
}

func containsDonation(donations []models.Donation, id string) bool {
	for _, d := range donations {
		if d.ID == id {
			return true
		}
	}
	return false
}
