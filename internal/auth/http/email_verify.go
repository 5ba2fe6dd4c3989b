package http

import (
	"net/http"

	"github.com/ledgerdash/ledgerdash/internal/auth/service"
	"github.com/ledgerdash/ledgerdash/pkg/httpx"
	"github.com/ledgerdash/ledgerdash/pkg/slogx"
)

// VerifyEmailHandler serves POST /api/auth/email/verify.
type VerifyEmailHandler struct {
	Sessions *service.SessionService
}

func (h *VerifyEmailHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req verifyEmailRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.Sessions.VerifyEmail(r.Context(), req.Token, requestMeta(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, userOnlyResponse{User: toUserResponse(user)})
}

// ResendVerificationHandler serves POST /api/auth/email/resend. Like reset
// requests, the response never reveals whether the email has an account.
type ResendVerificationHandler struct {
	Sessions *service.SessionService
}

func (h *ResendVerificationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req resendVerificationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.Sessions.ResendVerification(r.Context(), req.Email, requestMeta(r)); err != nil {
		slogx.FromContext(r.Context()).Error("verification resend failed", "error", err)
	}

	httpx.WriteJSON(w, http.StatusAccepted, resetRequestedResponse{Requested: true})
}
