package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/greenbox-lable/share-plate/internal/models"
)

// CreateAccount inserts the user, profile, and role rows in one
// transaction so a half-registered account can never exist.
func (db *Database) CreateAccount(ctx context.Context, email, passwordHash, fullName, phone, city string, role models.Role) (*models.User, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var user models.User
	user.ID = uuid.New().String()
	err = tx.QueryRow(ctx,
		"INSERT INTO users (id, email, password_hash) VALUES ($1, $2, $3) RETURNING id, email, created_at",
		user.ID, email, passwordHash,
	).Scan(&user.ID, &user.Email, &user.CreatedAt)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx,
		"INSERT INTO profiles (user_id, full_name, phone, city) VALUES ($1, $2, $3, $4)",
		user.ID, fullName, phone, city,
	)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx,
		"INSERT INTO user_roles (user_id, role) VALUES ($1, $2)",
		user.ID, string(role),
	)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &user, nil
}

func (db *Database) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := db.Pool.QueryRow(ctx,
		"SELECT id, email, password_hash, created_at FROM users WHERE email = $1",
		email,
	).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (db *Database) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	var p models.Profile
	err := db.Pool.QueryRow(ctx,
		"SELECT user_id, full_name, phone, city, is_active, created_at FROM profiles WHERE user_id = $1",
		userID,
	).Scan(&p.UserID, &p.FullName, &p.Phone, &p.City, &p.IsActive, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (db *Database) GetRole(ctx context.Context, userID string) (models.Role, error) {
	var role string
	err := db.Pool.QueryRow(ctx,
		"SELECT role FROM user_roles WHERE user_id = $1",
		userID,
	).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	parsed, ok := models.ParseRole(role)
	if !ok {
		return "", ErrNotFound
	}
	return parsed, nil
}

// SetActiveStatus flips profile visibility. Owners use it to pause
// volunteering; admins use it to block or unblock any account.
func (db *Database) SetActiveStatus(ctx context.Context, userID string, isActive bool) error {
	tag, err := db.Pool.Exec(ctx,
		"UPDATE profiles SET is_active = $1 WHERE user_id = $2",
		isActive, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *Database) ListAccounts(ctx context.Context) ([]models.AccountView, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT u.id, u.email, p.full_name, p.phone, p.city, p.is_active, p.created_at, r.role
		 FROM users u
		 JOIN profiles p ON p.user_id = u.id
		 JOIN user_roles r ON r.user_id = u.id
		 ORDER BY p.created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []models.AccountView
	for rows.Next() {
		var a models.AccountView
		var role string
		if err := rows.Scan(&a.UserID, &a.Email, &a.FullName, &a.Phone, &a.City, &a.IsActive, &a.CreatedAt, &role); err != nil {
			return nil, err
		}
		a.Role, _ = models.ParseRole(role)
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}
