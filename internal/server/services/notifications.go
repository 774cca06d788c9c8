package services

import (
	"context"
	"database/sql"
	"strings"

	"github.com/dmitrijs2005/eventportal/internal/common"
	"github.com/dmitrijs2005/eventportal/internal/server/auth"
	"github.com/dmitrijs2005/eventportal/internal/server/models"
	"github.com/dmitrijs2005/eventportal/internal/server/repositories/repomanager"
)

type NotificationService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewNotificationService(db *sql.DB, m repomanager.RepositoryManager) *NotificationService {
	return &NotificationService{db: db, repomanager: m}
}

func (s *NotificationService) Send(ctx context.Context, p auth.Principal, message string) (*models.Notification, error) {
	if !p.IsAdmin() {
		return nil, common.ErrForbidden
	}

	message = strings.TrimSpace(message)
	if message == "" {
		return nil, common.ErrEmptyMessage
	}

	n, err := s.repomanager.Notifications(s.db).Create(ctx, message)
	if err != nil {
		return nil, internalErr(err)
	}
	return n, nil
}

// List is public and returns newest first.
func (s *NotificationService) List(ctx context.Context) ([]*models.Notification, error) {
	list, err := s.repomanager.Notifications(s.db).List(ctx)
	if err != nil {
		return nil, internalErr(err)
	}
	return list, nil
}
