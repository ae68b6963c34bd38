package db

import (
	"context"

	"github.com/google/uuid"

	"github.com/greenbox-lable/share-plate/internal/models"
)

func (db *Database) CreateContactMessage(ctx context.Context, name, email, subject, message string) (*models.ContactMessage, error) {
	m := models.ContactMessage{
		ID:      uuid.New().String(),
		Name:    name,
		Email:   email,
		Subject: subject,
		Message: message,
		Status:  "new",
	}
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO contact_messages (id, name, email, subject, message, status)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at`,
		m.ID, m.Name, m.Email, m.Subject, m.Message, m.Status,
	).Scan(&m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (db *Database) ListContactMessages(ctx context.Context) ([]models.ContactMessage, error) {
	rows, err := db.Pool.Query(ctx,
		"SELECT id, name, email, subject, message, status, created_at FROM contact_messages ORDER BY created_at DESC",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.ContactMessage
	for rows.Next() {
		var m models.ContactMessage
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Subject, &m.Message, &m.Status, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (db *Database) ResolveContactMessage(ctx context.Context, id string) error {
	tag, err := db.Pool.Exec(ctx,
		"UPDATE contact_messages SET status = 'resolved' WHERE id = $1 AND status = 'new'",
		id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
