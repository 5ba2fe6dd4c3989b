package http

import (
	"net/http"

	"github.com/ledgerdash/ledgerdash/internal/auth/service"
	"github.com/ledgerdash/ledgerdash/pkg/httpx"
	"github.com/ledgerdash/ledgerdash/pkg/slogx"
)

// ResetRequestHandler serves POST /api/auth/password/reset-request. The
// response is 202 {"requested":true} regardless of whether the email exists.
type ResetRequestHandler struct {
	Sessions *service.SessionService
}

func (h *ResetRequestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req resetRequestRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.Sessions.RequestPasswordReset(r.Context(), req.Email, requestMeta(r)); err != nil {
		// Even infrastructure failures don't leak account existence; log
		// and return the uniform response.
		slogx.FromContext(r.Context()).Error("password reset request failed", "error", err)
	}

	httpx.WriteJSON(w, http.StatusAccepted, resetRequestedResponse{Requested: true})
}

// ResetPasswordHandler serves POST /api/auth/password/reset. A successful
// reset revokes every session, so the cookies are cleared to force re-login.
type ResetPasswordHandler struct {
	Sessions *service.SessionService
	Cookies  CookieConfig
}

func (h *ResetPasswordHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.Sessions.ResetPassword(r.Context(), req.Token, req.NewPassword, requestMeta(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	clearSessionCookies(w, h.Cookies)
	httpx.WriteJSON(w, http.StatusOK, userOnlyResponse{User: toUserResponse(user)})
}
