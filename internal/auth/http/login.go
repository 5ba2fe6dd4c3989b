package http

import (
	"net/http"

	"github.com/ledgerdash/ledgerdash/internal/auth/service"
	"github.com/ledgerdash/ledgerdash/pkg/httpx"
)

// LoginHandler serves POST /api/auth/login.
type LoginHandler struct {
	Sessions *service.SessionService
	Cookies  CookieConfig
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.Sessions.Login(r.Context(), req.Email, req.Password, req.RememberMe, requestMeta(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	setSessionCookies(w, res.Session, h.Cookies)
	httpx.WriteJSON(w, http.StatusOK, loginResponse{
		User:          toUserResponse(res.User),
		Session:       res.Session,
		EmailVerified: res.User.EmailVerifiedAt != nil,
	})
}
