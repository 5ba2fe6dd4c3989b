package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/ledgerdash/ledgerdash/internal/auth/domain"
	"github.com/ledgerdash/ledgerdash/pkg/httpx"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Ignore the error: registration only fails for blank tags.
	_ = v.RegisterValidation("password", validatePassword)
	return v
}

// validatePassword enforces the server-side complexity floor: 12-128 chars
// with at least one uppercase, lowercase, digit, and symbol. The length
// bounds count characters, not bytes, so multibyte passwords are measured
// the same as ASCII ones.
func validatePassword(fl validator.FieldLevel) bool {
	pw := fl.Field().String()
	if n := utf8.RuneCountInString(pw); n < 12 || n > 128 {
		return false
	}

	var upper, lower, digit, symbol bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			symbol = true
		}
	}
	return upper && lower && digit && symbol
}

type signupRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,password"`
	AcceptTerms bool   `json:"acceptTerms"`
	Name        string `json:"name" validate:"omitempty,max=100"`
	Timezone    string `json:"timezone" validate:"omitempty,max=64"`
}

type loginRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	RememberMe bool   `json:"rememberMe"`
}

type refreshRequest struct {
	// RefreshToken is optional in the body; the httpOnly cookie is the
	// fallback source.
	RefreshToken string `json:"refreshToken"`
}

type resetRequestRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,password"`
}

type verifyEmailRequest struct {
	Token string `json:"token" validate:"required"`
}

type resendVerificationRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// userResponse is the wire shape of a user. The credential hash never
// appears here.
type userResponse struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	Name          string     `json:"name,omitempty"`
	Timezone      string     `json:"timezone"`
	Status        string     `json:"status"`
	Plan          string     `json:"plan"`
	EmailVerified bool       `json:"emailVerified"`
	LastLoginAt   *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

func toUserResponse(u domain.User) userResponse {
	return userResponse{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		Timezone:      u.Timezone,
		Status:        string(u.Status),
		Plan:          string(u.Plan),
		EmailVerified: u.EmailVerifiedAt != nil,
		LastLoginAt:   u.LastLoginAt,
		CreatedAt:     u.CreatedAt,
	}
}

type signupResponse struct {
	User                      userResponse   `json:"user"`
	Session                   domain.Session `json:"session"`
	RequiresEmailVerification bool           `json:"requiresEmailVerification"`

	// VerificationToken is included outside production so the flow can be
	// exercised without a mailbox.
	VerificationToken string `json:"verificationToken,omitempty"`
}

type loginResponse struct {
	User          userResponse   `json:"user"`
	Session       domain.Session `json:"session"`
	EmailVerified bool           `json:"emailVerified"`
}

type refreshResponse struct {
	User    userResponse   `json:"user"`
	Session domain.Session `json:"session"`
}

type resetRequestedResponse struct {
	Requested bool `json:"requested"`
}

type userOnlyResponse struct {
	User userResponse `json:"user"`
}

// decodeJSON parses and validates a request body into dst. A false return
// means the error response has already been written.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		errMalformedBody.WriteError(w)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeValidationError(w, err)
		return false
	}
	return true
}

// decodeLenient parses a body that is allowed to be absent or malformed.
// Used where the cookie is the real input and the body is optional.
func decodeLenient(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

func writeValidationError(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		field := verrs[0]
		if field.Tag() == "password" {
			errWeakPassword.WriteError(w)
			return
		}
		httpx.NewAPIError(
			http.StatusBadRequest,
			"AUTH_VALIDATION_FAILED",
			"Field '"+field.Field()+"' failed validation ("+field.Tag()+").",
		).WriteError(w)
		return
	}
	errMalformedBody.WriteError(w)
}
