// Package notifications stores admin broadcast messages.
package notifications

import (
	"context"

	"github.com/dmitrijs2005/eventportal/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, message string) (*models.Notification, error)
	List(ctx context.Context) ([]*models.Notification, error)
}
