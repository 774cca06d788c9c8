// Package httpapi exposes the event portal over REST using gorilla/mux.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/eventportal/internal/logging"
	"github.com/dmitrijs2005/eventportal/internal/server/auth"
	"github.com/dmitrijs2005/eventportal/internal/server/models"
	"github.com/dmitrijs2005/eventportal/internal/server/services"
	"github.com/gorilla/mux"
)

type RegistrationService interface {
	Register(ctx context.Context, in services.RegisterInput, now time.Time) (*models.User, error)
}

type UserService interface {
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
	Dashboard(ctx context.Context, p auth.Principal) (*models.User, error)
	ListUsers(ctx context.Context, p auth.Principal) ([]*models.User, error)
	SubmitGithubLink(ctx context.Context, p auth.Principal, link string) (*models.User, error)
	DeleteUser(ctx context.Context, p auth.Principal, id string) error
	SystemCount(ctx context.Context, p auth.Principal) (*services.SystemCount, error)
}

type ApprovalService interface {
	Approve(ctx context.Context, p auth.Principal, id string) (*services.ApprovalResult, error)
	ResendApprovalEmails(ctx context.Context, p auth.Principal) (*services.ResendSummary, error)
}

type NotificationService interface {
	Send(ctx context.Context, p auth.Principal, message string) (*models.Notification, error)
	List(ctx context.Context) ([]*models.Notification, error)
}

type ExportService interface {
	ExportUsers(ctx context.Context, p auth.Principal) (string, error)
}

// Handler holds the services behind the REST routes.
type Handler struct {
	Registration  RegistrationService
	Users         UserService
	Approval      ApprovalService
	Notifications NotificationService
	Export        ExportService

	Logger    logging.Logger
	SecretKey []byte
	Now       func() time.Time
}

// Router builds the route table under prefix (e.g. "/api").
func (h *Handler) Router(prefix string) http.Handler {
	if h.Now == nil {
		h.Now = time.Now
	}
	if h.Logger == nil {
		h.Logger = logging.Nop{}
	}

	r := mux.NewRouter()
	api := r.PathPrefix(prefix).Subrouter()

	api.HandleFunc("/register", h.register).Methods(http.MethodPost)
	api.HandleFunc("/login", h.login).Methods(http.MethodPost)
	api.HandleFunc("/notifications", h.listNotifications).Methods(http.MethodGet)

	user := api.NewRoute().Subrouter()
	user.Use(h.authenticate)
	user.HandleFunc("/dashboard", h.dashboard).Methods(http.MethodGet)
	user.HandleFunc("/submit-github", h.submitGithub).Methods(http.MethodPut)

	admin := api.NewRoute().Subrouter()
	admin.Use(h.authenticate, requireAdmin)
	admin.HandleFunc("/approve/{id}", h.approve).Methods(http.MethodPut)
	admin.HandleFunc("/all-users", h.allUsers).Methods(http.MethodGet)
	admin.HandleFunc("/system-count", h.systemCount).Methods(http.MethodGet)
	admin.HandleFunc("/delete/{id}", h.deleteUser).Methods(http.MethodDelete)
	admin.HandleFunc("/resend-approval-emails", h.resendApprovalEmails).Methods(http.MethodPost)
	admin.HandleFunc("/notifications/send", h.sendNotification).Methods(http.MethodPost)
	admin.HandleFunc("/export-users", h.exportUsers).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		renderJSON(w, http.StatusNotFound, messageResponse{Message: "Not found"})
	})

	return Chain(r, CORS, RequestLogger(h.Logger))
}
