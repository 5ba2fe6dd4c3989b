package http

import (
	"net/http"

	"github.com/ledgerdash/ledgerdash/internal/auth/service"
)

// LogoutHandler serves POST /api/auth/logout. Always 204: the cookies are
// cleared whether or not a token could be revoked.
type LogoutHandler struct {
	Sessions *service.SessionService
	Cookies  CookieConfig
}

func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	_ = decodeLenient(r, &req)

	token := refreshTokenFromRequest(r, req.RefreshToken)
	h.Sessions.Logout(r.Context(), token, requestMeta(r))

	clearSessionCookies(w, h.Cookies)
	w.WriteHeader(http.StatusNoContent)
}
