package notifications

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/eventportal/internal/dbx"
	"github.com/dmitrijs2005/eventportal/internal/server/models"
	"github.com/google/uuid"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, message string) (*models.Notification, error) {

	query := `INSERT INTO notifications (id, message) VALUES ($1, $2) RETURNING id, message, created_at`

	n := &models.Notification{}
	err := r.db.QueryRowContext(ctx, query, uuid.NewString(), message).Scan(&n.ID, &n.Message, &n.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return n, nil
}

// List returns all notifications, newest first.
func (r *PostgresRepository) List(ctx context.Context) ([]*models.Notification, error) {

	query := `SELECT id, message, created_at FROM notifications ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Notification, 0)
	for rows.Next() {
		n := &models.Notification{}
		if err := rows.Scan(&n.ID, &n.Message, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}
