package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dmitrijs2005/eventportal/internal/common"
	"github.com/dmitrijs2005/eventportal/internal/cryptox"
	"github.com/dmitrijs2005/eventportal/internal/dbx"
	"github.com/dmitrijs2005/eventportal/internal/logging"
	"github.com/dmitrijs2005/eventportal/internal/server/auth"
	"github.com/dmitrijs2005/eventportal/internal/server/config"
	"github.com/dmitrijs2005/eventportal/internal/server/models"
	"github.com/dmitrijs2005/eventportal/internal/server/notify"
	"github.com/dmitrijs2005/eventportal/internal/server/repositories/repomanager"
)

// ApprovalResult is returned by Approve. DeliveryErr is set when the account
// was approved but the credential could not be handed to the notifier.
type ApprovalResult struct {
	User        *models.User
	EmailQueued bool
	DeliveryErr error
}

type ResendSummary struct {
	Total  int `json:"total"`
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

type ApprovalService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	notifier      notify.Notifier
	notifyTimeout time.Duration
	logger        logging.Logger
}

func NewApprovalService(db *sql.DB, m repomanager.RepositoryManager, n notify.Notifier, cfg *config.Config, logger logging.Logger) *ApprovalService {
	return &ApprovalService{
		db:            db,
		repomanager:   m,
		notifier:      n,
		notifyTimeout: cfg.NotifyTimeout,
		logger:        logger,
	}
}

// Approve flips a pending user to approved and, when no credential exists yet,
// provisions one. The database commit happens before any delivery attempt.
func (s *ApprovalService) Approve(ctx context.Context, p auth.Principal, id string) (*ApprovalResult, error) {
	if !p.IsAdmin() {
		return nil, common.ErrForbidden
	}

	var user *models.User
	var cred *notify.Credential

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		u, err := repo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if u.Status == models.StatusApproved {
			return common.ErrAlreadyApproved
		}

		if err := repo.MarkApproved(ctx, u.ID); err != nil {
			return err
		}
		u.Status = models.StatusApproved

		if !u.HasCredential() {
			password := cryptox.GenerateTempPassword(cryptox.TempPasswordLength)
			hash, err := cryptox.HashPassword(password)
			if err != nil {
				return err
			}
			version, err := repo.SetCredential(ctx, u.ID, hash)
			if err != nil {
				return err
			}
			u.PasswordHash = hash
			u.CredentialVersion = version
			cred = &notify.Credential{UserID: u.ID, Email: u.Email, Name: u.Name, Password: password, Version: version}
		}

		user = u
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) || errors.Is(err, common.ErrAlreadyApproved) {
			return nil, err
		}
		return nil, internalErr(err)
	}

	result := &ApprovalResult{User: user}
	if cred != nil {
		result.DeliveryErr = s.deliver(ctx, *cred)
		result.EmailQueued = result.DeliveryErr == nil
		if result.DeliveryErr != nil {
			s.logger.Warn(ctx, "credential delivery failed", "user_id", user.ID, "error", result.DeliveryErr)
		}
	}

	return result, nil
}

// ResendApprovalEmails issues a fresh credential to every approved account
// and attempts delivery. One failure never stops the batch.
func (s *ApprovalService) ResendApprovalEmails(ctx context.Context, p auth.Principal) (*ResendSummary, error) {
	if !p.IsAdmin() {
		return nil, common.ErrForbidden
	}

	repo := s.repomanager.Users(s.db)

	approved, err := repo.ListApproved(ctx)
	if err != nil {
		return nil, internalErr(err)
	}

	summary := &ResendSummary{Total: len(approved)}
	for _, u := range approved {
		if err := s.reissue(ctx, u); err != nil {
			s.logger.Warn(ctx, "credential resend failed", "user_id", u.ID, "error", err)
			summary.Failed++
			continue
		}
		summary.Sent++
	}

	return summary, nil
}

func (s *ApprovalService) reissue(ctx context.Context, u *models.User) error {
	password := cryptox.GenerateTempPassword(cryptox.TempPasswordLength)
	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return err
	}

	version, err := s.repomanager.Users(s.db).SetCredential(ctx, u.ID, hash)
	if err != nil {
		return err
	}

	return s.deliver(ctx, notify.Credential{UserID: u.ID, Email: u.Email, Name: u.Name, Password: password, Version: version})
}

// deliver runs detached from the request's cancellation but bounded by notifyTimeout.
func (s *ApprovalService) deliver(ctx context.Context, cred notify.Credential) error {
	ctx = context.WithoutCancel(ctx)
	if s.notifyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.notifyTimeout)
		defer cancel()
	}
	return s.notifier.Deliver(ctx, cred)
}
