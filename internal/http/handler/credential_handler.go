package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/sandeepkv93/campus-notify-core/internal/http/response"
	"github.com/sandeepkv93/campus-notify-core/internal/observability"
	"github.com/sandeepkv93/campus-notify-core/internal/service"
)

type codeRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
}

type verifyRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

type resetCompleteRequest struct {
	Email       string `json:"email" validate:"required,email,max=255"`
	Ticket      string `json:"ticket" validate:"required,max=128"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=128"`
}

type signupCompleteRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Ticket   string `json:"ticket" validate:"required,max=128"`
	FullName string `json:"full_name" validate:"required,min=1,max=255"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type ticketResponse struct {
	Ticket string `json:"ticket"`
}

// requestAccepted is the same for known and unknown emails. Both draw on the same
// per-identity issue limit, so a 429 does not tell them apart either.
var requestAccepted = map[string]string{"message": "if the address can receive a code, one has been sent"}

type CredentialHandler struct {
	flows service.CredentialFlows
}

func NewCredentialHandler(flows service.CredentialFlows) *CredentialHandler {
	return &CredentialHandler{flows: flows}
}

func (h *CredentialHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req codeRequest
	if !bind(w, r, &req) {
		return
	}
	err := h.flows.RequestPasswordReset(r.Context(), req.Email)
	auditCredential(r, "credential.password_reset.request", "request_code", req.Email, "", err)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusAccepted, requestAccepted)
}

func (h *CredentialHandler) VerifyPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if !bind(w, r, &req) {
		return
	}
	ticket, err := h.flows.VerifyPasswordReset(r.Context(), req.Email, req.Code)
	auditCredential(r, "credential.password_reset.verify", "verify_code", req.Email, "", err)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, ticketResponse{Ticket: ticket})
}

func (h *CredentialHandler) CompletePasswordReset(w http.ResponseWriter, r *http.Request) {
	var req resetCompleteRequest
	if !bind(w, r, &req) {
		return
	}
	err := h.flows.CompletePasswordReset(r.Context(), req.Email, req.Ticket, req.NewPassword)
	auditCredential(r, "credential.password_reset.complete", "change_password", req.Email, "", err)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]string{"message": "password updated"})
}

func (h *CredentialHandler) RequestSignupCode(w http.ResponseWriter, r *http.Request) {
	var req codeRequest
	if !bind(w, r, &req) {
		return
	}
	err := h.flows.RequestSignupCode(r.Context(), req.Email)
	auditCredential(r, "credential.signup.request", "request_code", req.Email, "", err)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusAccepted, requestAccepted)
}

func (h *CredentialHandler) VerifySignupCode(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if !bind(w, r, &req) {
		return
	}
	ticket, err := h.flows.VerifySignupCode(r.Context(), req.Email, req.Code)
	auditCredential(r, "credential.signup.verify", "verify_code", req.Email, "", err)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, ticketResponse{Ticket: ticket})
}

func (h *CredentialHandler) CompleteSignup(w http.ResponseWriter, r *http.Request) {
	var req signupCompleteRequest
	if !bind(w, r, &req) {
		return
	}
	user, err := h.flows.ConsumeSignupTicket(r.Context(), req.Email, req.Ticket, req.FullName, req.Password)
	actor := ""
	if err == nil && user != nil {
		actor = strconv.FormatUint(uint64(user.ID), 10)
	}
	auditCredential(r, "credential.signup.complete", "create_account", req.Email, actor, err)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusCreated, user)
}

// auditCredential records one credential flow step. The reason is the envelope code,
// so the audit trail never carries raw store errors.
func auditCredential(r *http.Request, event, action, email, actorUserID string, err error) {
	outcome, reason := "success", ""
	if err != nil {
		_, code := classifyServiceError(err)
		outcome, reason = "failure", strings.ToLower(code)
	}
	observability.EmitAudit(r, observability.AuditInput{
		EventName:   event,
		ActorUserID: actorUserID,
		TargetType:  "identity",
		TargetID:    observability.MaskEmail(service.NormalizeIdentity(email)),
		Action:      action,
		Outcome:     outcome,
		Reason:      reason,
	})
}
