package http

import (
	"net/http"

	"github.com/ledgerdash/ledgerdash/internal/auth/service"
	"github.com/ledgerdash/ledgerdash/pkg/httpx"
)

// RefreshHandler serves POST /api/auth/refresh. The refresh token comes from
// the request body or the httpOnly cookie. On any failure the session
// cookies are cleared; the client has nothing usable left.
type RefreshHandler struct {
	Sessions *service.SessionService
	Cookies  CookieConfig
}

func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	// An empty body is fine here; the cookie is the usual source.
	_ = decodeLenient(r, &req)

	token := refreshTokenFromRequest(r, req.RefreshToken)

	res, err := h.Sessions.RefreshSession(r.Context(), token, requestMeta(r))
	if err != nil {
		clearSessionCookies(w, h.Cookies)
		writeServiceError(w, r, err)
		return
	}

	setSessionCookies(w, res.Session, h.Cookies)
	httpx.WriteJSON(w, http.StatusOK, refreshResponse{
		User:    toUserResponse(res.User),
		Session: res.Session,
	})
}
