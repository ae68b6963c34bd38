package lifecycle

import (
	"strings"
	"testing"
	"time"

	"github.com/greenbox-lable/share-plate/internal/models"
)

func TestParseStatus(t *testing.T) {
	t.Parallel()

	for _, valid := range []string{"pending", "accepted", "picked_up", "delivered"} {
		if _, ok := ParseStatus(valid); !ok {
			t.Errorf("ParseStatus(%q): not recognized", valid)
		}
	}
	for _, invalid := range []string{"", "picked", "PENDING", "expired", "cancelled"} {
		if _, ok := ParseStatus(invalid); ok {
			t.Errorf("ParseStatus(%q): unexpectedly recognized", invalid)
		}
	}
}

func TestCanFollow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		prev, next Status
		want       bool
	}{
		{StatusPending, StatusAccepted, true},
		{StatusAccepted, StatusPickedUp, true},
		{StatusPickedUp, StatusDelivered, true},
		{StatusPending, StatusPickedUp, false},
		{StatusPending, StatusDelivered, false},
		{StatusAccepted, StatusPending, false},
		{StatusDelivered, StatusPickedUp, false},
		{StatusDelivered, StatusDelivered, false},
	}
	for _, tt := range tests {
		if got := tt.next.CanFollow(tt.prev); got != tt.want {
			t.Errorf("CanFollow(%s -> %s): got %v, want %v", tt.prev, tt.next, got, tt.want)
		}
	}
}

func TestTransitionsCoverEveryStep(t *testing.T) {
	t.Parallel()

	if len(Transitions) != 3 {
		t.Fatalf("Transitions: got %d entries, want 3", len(Transitions))
	}
	for i, tr := range Transitions {
		if !tr.To.CanFollow(tr.From) {
			t.Errorf("transition %q: %s -> %s is not a single forward step", tr.Name, tr.From, tr.To)
		}
		if i > 0 && Transitions[i].From != Transitions[i-1].To {
			t.Errorf("transition %q does not continue from %q", tr.Name, Transitions[i-1].Name)
		}
	}
	if Transitions[len(Transitions)-1].To != StatusDelivered {
		t.Errorf("final transition ends at %s, want %s", Transitions[len(Transitions)-1].To, StatusDelivered)
	}
}

func TestTransitionActorContract(t *testing.T) {
	t.Parallel()

	if Accept.ActorColumn != "ngo_id" || Accept.ActorRole != models.RoleNGO {
		t.Errorf("accept: actor column %q role %q", Accept.ActorColumn, Accept.ActorRole)
	}
	if !Claim.ActorMustBeUnset {
		t.Error("claim must require volunteer_id unset; two volunteers could otherwise claim the same donation")
	}
	if Claim.ActorMustMatch {
		t.Error("claim must not require a matching actor; the donation has no volunteer yet")
	}
	if !Deliver.ActorMustMatch {
		t.Error("deliver must be restricted to the claiming volunteer")
	}
	if Deliver.ActorColumn != "" {
		t.Errorf("deliver sets no new actor, got actor column %q", Deliver.ActorColumn)
	}
}

func donationAt(status Status) models.Donation {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	ngo := "ngo-1"
	vol := "vol-1"
	d := models.Donation{
		ID:        "d-1",
		DonorID:   "donor-1",
		Status:    string(status),
		CreatedAt: base,
	}
	if rank[status] >= rank[StatusAccepted] {
		d.NgoID = &ngo
		at := base.Add(10 * time.Minute)
		d.AcceptedAt = &at
	}
	if rank[status] >= rank[StatusPickedUp] {
		d.VolunteerID = &vol
		at := base.Add(20 * time.Minute)
		d.PickedUpAt = &at
	}
	if status == StatusDelivered {
		at := base.Add(30 * time.Minute)
		d.DeliveredAt = &at
	}
	return d
}

func TestCheckInvariantsAcceptsWellFormedRecords(t *testing.T) {
	t.Parallel()

	for _, status := range []Status{StatusPending, StatusAccepted, StatusPickedUp, StatusDelivered} {
		if err := CheckInvariants(donationAt(status)); err != nil {
			t.Errorf("CheckInvariants(%s): %v", status, err)
		}
	}
}

func TestCheckInvariantsRejectsViolations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*models.Donation)
		want   string
	}{
		{
			name:   "unknown status",
			mutate: func(d *models.Donation) { d.Status = "expired" },
			want:   "unknown status",
		},
		{
			name: "ngo set while pending",
			mutate: func(d *models.Donation) {
				ngo := "ngo-9"
				d.NgoID = &ngo
			},
			want: "ngo_id",
		},
		{
			name: "volunteer set while pending",
			mutate: func(d *models.Donation) {
				vol := "vol-9"
				d.VolunteerID = &vol
			},
			want: "volunteer_id",
		},
		{
			name: "accepted timestamp before creation",
			mutate: func(d *models.Donation) {
				ngo := "ngo-9"
				d.Status = string(StatusAccepted)
				d.NgoID = &ngo
				at := d.CreatedAt.Add(-time.Minute)
				d.AcceptedAt = &at
			},
			want: "accepted_at",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := donationAt(StatusPending)
			tt.mutate(&d)
			err := CheckInvariants(d)
			if err == nil {
				t.Fatal("CheckInvariants: got nil, want error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("CheckInvariants: got %q, want substring %q", err, tt.want)
			}
		})
	}
}

func TestStatusNeverRegresses(t *testing.T) {
	t.Parallel()

	// Walking the full transition chain visits each status exactly
	// once and strictly forward.
	seen := map[Status]bool{StatusPending: true}
	current := StatusPending
	for _, tr := range Transitions {
		if tr.From != current {
			t.Fatalf("transition %q: from %s, want %s", tr.Name, tr.From, current)
		}
		if seen[tr.To] {
			t.Fatalf("transition %q revisits %s", tr.Name, tr.To)
		}
		seen[tr.To] = true
		current = tr.To
	}
}
