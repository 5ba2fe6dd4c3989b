package http

import (
	"net/http"

	"github.com/ledgerdash/ledgerdash/internal/auth/service"
	"github.com/ledgerdash/ledgerdash/pkg/httpx"
)

// SignupHandler serves POST /api/auth/signup.
type SignupHandler struct {
	Sessions *service.SessionService
	Cookies  CookieConfig

	// ExposeDebugToken includes the raw verification token in the response.
	// Never set in production.
	ExposeDebugToken bool
}

func (h *SignupHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.Sessions.Signup(r.Context(), service.SignupInput{
		Email:       req.Email,
		Password:    req.Password,
		AcceptTerms: req.AcceptTerms,
		Name:        req.Name,
		Timezone:    req.Timezone,
	}, requestMeta(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := signupResponse{
		User:                      toUserResponse(res.User),
		Session:                   res.Session,
		RequiresEmailVerification: true,
	}
	if h.ExposeDebugToken {
		resp.VerificationToken = res.VerificationToken
	}

	setSessionCookies(w, res.Session, h.Cookies)
	httpx.WriteJSON(w, http.StatusCreated, resp)
}

// requestMeta captures the transport attributes recorded on tokens and audit
// events.
func requestMeta(r *http.Request) service.RequestMeta {
	return service.RequestMeta{
		ClientIP:  httpx.IPKeyExtractor(r),
		UserAgent: r.UserAgent(),
	}
}
