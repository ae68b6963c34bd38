package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/greenbox-lable/share-plate/internal/lifecycle"
	"github.com/greenbox-lable/share-plate/internal/models"
)

const donationColumns = `id, donor_id, ngo_id, volunteer_id, food_item, quantity, description,
	city, pickup_address, food_source, expiry_time, status,
	created_at, accepted_at, picked_up_at, delivered_at`

func scanDonation(row pgx.Row) (models.Donation, error) {
	var d models.Donation
	err := row.Scan(&d.ID, &d.DonorID, &d.NgoID, &d.VolunteerID, &d.FoodItem, &d.Quantity,
		&d.Description, &d.City, &d.PickupAddress, &d.FoodSource, &d.ExpiryTime, &d.Status,
		&d.CreatedAt, &d.AcceptedAt, &d.PickedUpAt, &d.DeliveredAt)
	return d, err
}

func (db *Database) queryDonations(ctx context.Context, where string, args ...any) ([]models.Donation, error) {
	sql := "SELECT " + donationColumns + " FROM donations"
	if where != "" {
		sql += " WHERE " + where
	}
	sql += " ORDER BY created_at DESC"

	rows, err := db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var donations []models.Donation
	for rows.Next() {
		d, err := scanDonation(rows)
		if err != nil {
			return nil, err
		}
		donations = append(donations, d)
	}
	return donations, rows.Err()
}

func (db *Database) CreateDonation(ctx context.Context, donorID string, sub models.DonationSubmission) (*models.Donation, error) {
	d := models.Donation{
		ID:            uuid.New().String(),
		DonorID:       donorID,
		FoodItem:      sub.FoodItem,
		Quantity:      sub.Quantity,
		Description:   sub.Description,
		City:          sub.City,
		PickupAddress: sub.PickupAddress,
		FoodSource:    sub.FoodSource,
		ExpiryTime:    sub.ExpiryTime,
		Status:        string(lifecycle.StatusPending),
	}
	if d.FoodSource == "" {
		d.FoodSource = "home"
	}

	err := db.Pool.QueryRow(ctx,
		`INSERT INTO donations (id, donor_id, food_item, quantity, description, city, pickup_address, food_source, expiry_time, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING created_at`,
		d.ID, d.DonorID, d.FoodItem, d.Quantity, d.Description, d.City, d.PickupAddress, d.FoodSource, d.ExpiryTime, d.Status,
	).Scan(&d.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (db *Database) GetDonation(ctx context.Context, id string) (*models.Donation, error) {
	d, err := scanDonation(db.Pool.QueryRow(ctx,
		"SELECT "+donationColumns+" FROM donations WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Donor history: every donation the donor ever posted, any status.
func (db *Database) DonationsByDonor(ctx context.Context, donorID string) ([]models.Donation, error) {
	return db.queryDonations(ctx, "donor_id = $1", donorID)
}

// The NGO-shared contended set: pending donations open to any NGO.
func (db *Database) PendingDonations(ctx context.Context) ([]models.Donation, error) {
	return db.queryDonations(ctx, "status = $1", string(lifecycle.StatusPending))
}

func (db *Database) DonationsByNGO(ctx context.Context, ngoID string) ([]models.Donation, error) {
	return db.queryDonations(ctx, "ngo_id = $1", ngoID)
}

// The volunteer-shared contended set: accepted donations nobody has
// claimed yet.
func (db *Database) AvailablePickups(ctx context.Context) ([]models.Donation, error) {
	return db.queryDonations(ctx, "status = $1 AND volunteer_id IS NULL", string(lifecycle.StatusAccepted))
}

func (db *Database) DonationsByVolunteer(ctx context.Context, volunteerID string) ([]models.Donation, error) {
	return db.queryDonations(ctx, "volunteer_id = $1", volunteerID)
}

func (db *Database) AllDonations(ctx context.Context) ([]models.Donation, error) {
	return db.queryDonations(ctx, "")
}

// buildTransition compiles one lifecycle step into a conditional
// UPDATE. The WHERE clause carries the full precondition, so when two
// actors race the same step the store lets exactly one through; the
// loser's update matches zero rows.
func buildTransition(tr lifecycle.Transition, donationID, actorID string) (string, []any) {
	set := []string{fmt.Sprintf("status = '%s'", tr.To), tr.StampColumn + " = NOW()"}
	args := []any{donationID, string(tr.From)}
	where := []string{"id = $1", "status = $2"}

	if tr.ActorColumn != "" {
		args = append(args, actorID)
		set = append(set, fmt.Sprintf("%s = $%d", tr.ActorColumn, len(args)))
	}
	if tr.ActorMustBeUnset {
		where = append(where, tr.ActorColumn+" IS NULL")
	}
	if tr.ActorMustMatch {
		args = append(args, actorID)
		where = append(where, fmt.Sprintf("volunteer_id = $%d", len(args)))
	}

	return "UPDATE donations SET " + strings.Join(set, ", ") + " WHERE " + strings.Join(where, " AND "), args
}

// ApplyTransition executes one lifecycle step. ErrNotAvailable means
// the precondition no longer held at apply time: another actor
// already transitioned the donation.
func (db *Database) ApplyTransition(ctx context.Context, tr lifecycle.Transition, donationID, actorID string) error {
	sql, args := buildTransition(tr, donationID, actorID)
	tag, err := db.Pool.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotAvailable
	}
	return nil
}

func (db *Database) DeleteDonation(ctx context.Context, id string) error {
	tag, err := db.Pool.Exec(ctx, "DELETE FROM donations WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *Database) GetStats(ctx context.Context) (*models.DashboardStats, error) {
	stats := &models.DashboardStats{
		DonationsByStatus: map[string]int{},
		UsersByRole:       map[string]int{},
	}

	rows, err := db.Pool.Query(ctx, "SELECT status, COUNT(*) FROM donations GROUP BY status")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats.DonationsByStatus[status] = count
		stats.TotalDonations += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	roleRows, err := db.Pool.Query(ctx, "SELECT role, COUNT(*) FROM user_roles GROUP BY role")
	if err != nil {
		return nil, err
	}
	defer roleRows.Close()
	for roleRows.Next() {
		var role string
		var count int
		if err := roleRows.Scan(&role, &count); err != nil {
			return nil, err
		}
		stats.UsersByRole[role] = count
	}
	if err := roleRows.Err(); err != nil {
		return nil, err
	}

	err = db.Pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM contact_messages WHERE status = 'new'",
	).Scan(&stats.OpenContactMessages)
	if err != nil {
		return nil, err
	}

	return stats, nil
}
