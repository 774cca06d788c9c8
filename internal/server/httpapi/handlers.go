package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/eventportal/internal/common"
	"github.com/dmitrijs2005/eventportal/internal/server/auth"
	"github.com/dmitrijs2005/eventportal/internal/server/models"
	"github.com/dmitrijs2005/eventportal/internal/server/services"
	"github.com/gorilla/mux"
)

const maxBodyBytes = 64 << 10

type registerRequest struct {
	Name        string `json:"name"`
	Section     string `json:"section"`
	Email       string `json:"email"`
	RollNumber  string `json:"rollNumber"`
	PhoneNumber string `json:"phoneNumber"`
	NeedSystem  bool   `json:"needSystem"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message string      `json:"message"`
	Token   string      `json:"token"`
	Role    models.Role `json:"role"`
}

type githubRequest struct {
	GithubLink string `json:"githubLink"`
}

type userResponse struct {
	Message string       `json:"message"`
	User    *models.User `json:"user"`
}

type approveResponse struct {
	Message     string       `json:"message"`
	User        *models.User `json:"user"`
	EmailQueued bool         `json:"emailQueued"`
}

type resendResponse struct {
	Message string `json:"message"`
	services.ResendSummary
}

type sendNotificationRequest struct {
	Message string `json:"message"`
}

type sendNotificationResponse struct {
	Success      bool                 `json:"success"`
	Notification *models.Notification `json:"notification"`
}

type exportResponse struct {
	URL       string `json:"url"`
	ExpiresIn int    `json:"expiresIn"`
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		renderJSON(w, http.StatusBadRequest, messageResponse{Message: "Invalid request body"})
		return false
	}
	return true
}

func principal(r *http.Request) auth.Principal {
	p, _ := auth.PrincipalFromContext(r.Context())
	return p
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeBody(w, r, &req) {
		return
	}

	_, err := h.Registration.Register(r.Context(), services.RegisterInput{
		Name:        req.Name,
		Section:     req.Section,
		Email:       req.Email,
		RollNumber:  req.RollNumber,
		PhoneNumber: req.PhoneNumber,
		NeedSystem:  req.NeedSystem,
	}, h.Now())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	renderJSON(w, http.StatusCreated, messageResponse{Message: "Registration successful. Wait for admin approval."})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := h.Users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		// An unknown email is a client error on this route, not a missing resource.
		if errors.Is(err, common.ErrorNotFound) {
			renderJSON(w, http.StatusBadRequest, messageResponse{Message: "User not found"})
			return
		}
		h.writeError(w, r, err)
		return
	}

	renderJSON(w, http.StatusOK, loginResponse{Message: "Login successful", Token: res.Token, Role: res.Role})
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	u, err := h.Users.Dashboard(r.Context(), principal(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, u)
}

func (h *Handler) submitGithub(w http.ResponseWriter, r *http.Request) {
	var req githubRequest
	if !decodeBody(w, r, &req) {
		return
	}

	u, err := h.Users.SubmitGithubLink(r.Context(), principal(r), req.GithubLink)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, userResponse{Message: "GitHub link submitted successfully", User: u})
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	res, err := h.Approval.Approve(r.Context(), principal(r), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	msg := "User approved successfully"
	if res.DeliveryErr != nil {
		msg = "User approved, but the credential email could not be sent"
	}
	renderJSON(w, http.StatusOK, approveResponse{Message: msg, User: res.User, EmailQueued: res.EmailQueued})
}

func (h *Handler) allUsers(w http.ResponseWriter, r *http.Request) {
	list, err := h.Users.ListUsers(r.Context(), principal(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, list)
}

func (h *Handler) systemCount(w http.ResponseWriter, r *http.Request) {
	c, err := h.Users.SystemCount(r.Context(), principal(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, c)
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.Users.DeleteUser(r.Context(), principal(r), mux.Vars(r)["id"]); err != nil {
		h.writeError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, messageResponse{Message: "User deleted successfully"})
}

func (h *Handler) resendApprovalEmails(w http.ResponseWriter, r *http.Request) {
	sum, err := h.Approval.ResendApprovalEmails(r.Context(), principal(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, resendResponse{Message: "Approval emails processed", ResendSummary: *sum})
}

func (h *Handler) sendNotification(w http.ResponseWriter, r *http.Request) {
	var req sendNotificationRequest
	if !decodeBody(w, r, &req) {
		return
	}

	n, err := h.Notifications.Send(r.Context(), principal(r), req.Message)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	renderJSON(w, http.StatusCreated, sendNotificationResponse{Success: true, Notification: n})
}

func (h *Handler) listNotifications(w http.ResponseWriter, r *http.Request) {
	list, err := h.Notifications.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, list)
}

func (h *Handler) exportUsers(w http.ResponseWriter, r *http.Request) {
	url, err := h.Export.ExportUsers(r.Context(), principal(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, exportResponse{URL: url, ExpiresIn: 15 * 60})
}
