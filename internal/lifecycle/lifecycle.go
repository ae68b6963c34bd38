// Package lifecycle defines the donation state machine and the
// conditional-update contract for each transition. The store layer
// turns a Transition into a single conditional UPDATE; a transition
// whose precondition no longer holds affects zero rows and must be
// reported as a conflict, not applied.
package lifecycle

import (
	"fmt"

	"github.com/greenbox-lable/share-plate/internal/models"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusPickedUp  Status = "picked_up"
	StatusDelivered Status = "delivered"
)

// rank orders statuses along the only legal path. Status never moves
// backward and never skips a state.
var rank = map[Status]int{
	StatusPending:   0,
	StatusAccepted:  1,
	StatusPickedUp:  2,
	StatusDelivered: 3,
}

func ParseStatus(s string) (Status, bool) {
	_, ok := rank[Status(s)]
	return Status(s), ok
}

func (s Status) Valid() bool {
	_, ok := rank[s]
	return ok
}

// CanFollow reports whether moving from prev to s is a legal single
// step forward.
func (s Status) CanFollow(prev Status) bool {
	return rank[s] == rank[prev]+1
}

// Transition describes one step of the lifecycle as a conditional
// update: the row must still be in From, and the actor-column
// precondition must still hold, for the update to apply.
type Transition struct {
	Name string
	From Status
	To   Status

	// ActorRole is the only role allowed to invoke the transition.
	ActorRole models.Role

	// ActorColumn is the donations column that records the winning
	// actor. Empty when the transition sets no new actor (deliver).
	ActorColumn string

	// StampColumn is the timestamp column set exactly once by this
	// transition.
	StampColumn string

	// ActorMustBeUnset requires ActorColumn IS NULL in the
	// precondition (claim exclusivity for volunteers).
	ActorMustBeUnset bool

	// ActorMustMatch requires the stored volunteer_id to equal the
	// invoking actor (only the claiming volunteer may deliver).
	ActorMustMatch bool
}

var (
	Accept = Transition{
		Name:        "accept",
		From:        StatusPending,
		To:          StatusAccepted,
		ActorRole:   models.RoleNGO,
		ActorColumn: "ngo_id",
		StampColumn: "accepted_at",
	}

	Claim = Transition{
		Name:             "claim",
		From:             StatusAccepted,
		To:               StatusPickedUp,
		ActorRole:        models.RoleVolunteer,
		ActorColumn:      "volunteer_id",
		StampColumn:      "picked_up_at",
		ActorMustBeUnset: true,
	}

	Deliver = Transition{
		Name:           "deliver",
		From:           StatusPickedUp,
		To:             StatusDelivered,
		ActorRole:      models.RoleVolunteer,
		StampColumn:    "delivered_at",
		ActorMustMatch: true,
	}
)

// Transitions lists every modeled step after creation, in order.
// There is no expiry, rejection, or cancellation step.
var Transitions = []Transition{Accept, Claim, Deliver}

// CheckInvariants verifies the actor/status invariants on a stored
// donation record. It is used by tests and by the admin consistency
// report, never to "repair" rows.
func CheckInvariants(d models.Donation) error {
	status, ok := ParseStatus(d.Status)
	if !ok {
		return fmt.Errorf("donation %s: unknown status %q", d.ID, d.Status)
	}
	if (d.NgoID != nil) != (rank[status] >= rank[StatusAccepted]) {
		return fmt.Errorf("donation %s: ngo_id set=%v inconsistent with status %s", d.ID, d.NgoID != nil, status)
	}
	if (d.VolunteerID != nil) != (rank[status] >= rank[StatusPickedUp]) {
		return fmt.Errorf("donation %s: volunteer_id set=%v inconsistent with status %s", d.ID, d.VolunteerID != nil, status)
	}
	if (d.AcceptedAt != nil) != (rank[status] >= rank[StatusAccepted]) {
		return fmt.Errorf("donation %s: accepted_at inconsistent with status %s", d.ID, status)
	}
	if (d.PickedUpAt != nil) != (rank[status] >= rank[StatusPickedUp]) {
		return fmt.Errorf("donation %s: picked_up_at inconsistent with status %s", d.ID, status)
	}
	if (d.DeliveredAt != nil) != (status == StatusDelivered) {
		return fmt.Errorf("donation %s: delivered_at inconsistent with status %s", d.ID, status)
	}
	// Timestamps must be strictly increasing along the path.
	prev := d.CreatedAt
	if d.AcceptedAt != nil {
		if !d.AcceptedAt.After(prev) {
			return fmt.Errorf("donation %s: accepted_at not after created_at", d.ID)
		}
		prev = *d.AcceptedAt
	}
	if d.PickedUpAt != nil {
		if !d.PickedUpAt.After(prev) {
			return fmt.Errorf("donation %s: picked_up_at not after accepted_at", d.ID)
		}
		prev = *d.PickedUpAt
	}
	if d.DeliveredAt != nil {
		if !d.DeliveredAt.After(prev) {
			return fmt.Errorf("donation %s: delivered_at not after picked_up_at", d.ID)
		}
	}
	return nil
}
