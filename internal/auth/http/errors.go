package http

import (
	"errors"
	"net/http"

	"github.com/ledgerdash/ledgerdash/internal/auth/service"
	"github.com/ledgerdash/ledgerdash/pkg/httpx"
	"github.com/ledgerdash/ledgerdash/pkg/slogx"
)

// Wire errors for request-shape problems caught before the service runs.
var (
	errMalformedBody = httpx.NewAPIError(
		http.StatusBadRequest, "AUTH_MALFORMED_BODY",
		"Request body is missing or not valid JSON.")

	errWeakPassword = httpx.NewAPIError(
		http.StatusBadRequest, "AUTH_WEAK_PASSWORD",
		"Password must be 12-128 characters and include uppercase, lowercase, digit, and symbol.")

	errServer = httpx.NewAPIError(
		http.StatusInternalServerError, "AUTH_SERVER_ERROR",
		"Something went wrong. Please try again.")
)

// serviceErrors maps each session-service sentinel to its wire form. The
// credential and refresh failures stay deliberately vague; the codes are the
// stable contract, the messages are for humans.
var serviceErrors = []struct {
	err error
	api *httpx.APIError
}{
	{service.ErrTermsNotAccepted, httpx.NewAPIError(
		http.StatusBadRequest, "AUTH_TERMS_NOT_ACCEPTED",
		"You must accept the terms of service.")},
	{service.ErrEmailExists, httpx.NewAPIError(
		http.StatusConflict, "AUTH_EMAIL_EXISTS",
		"An account with this email already exists.")},
	{service.ErrInvalidCredentials, httpx.NewAPIError(
		http.StatusUnauthorized, "AUTH_INVALID_CREDENTIALS",
		"Email or password is incorrect.")},
	{service.ErrAccountSuspended, httpx.NewAPIError(
		http.StatusForbidden, "AUTH_ACCOUNT_SUSPENDED",
		"This account has been suspended.")},
	{service.ErrInvalidRefreshToken, httpx.NewAPIError(
		http.StatusUnauthorized, "AUTH_INVALID_REFRESH_TOKEN",
		"Session is no longer valid. Please log in again.")},
	{service.ErrRefreshTokenRevoked, httpx.NewAPIError(
		http.StatusUnauthorized, "AUTH_REFRESH_TOKEN_REVOKED",
		"Session is no longer valid. Please log in again.")},
	{service.ErrRefreshTokenExpired, httpx.NewAPIError(
		http.StatusUnauthorized, "AUTH_REFRESH_TOKEN_EXPIRED",
		"Session has expired. Please log in again.")},
	{service.ErrInvalidResetToken, httpx.NewAPIError(
		http.StatusBadRequest, "AUTH_INVALID_RESET_TOKEN",
		"This reset link is invalid or has already been used.")},
	{service.ErrResetTokenExpired, httpx.NewAPIError(
		http.StatusBadRequest, "AUTH_RESET_TOKEN_EXPIRED",
		"This reset link has expired. Please request a new one.")},
	{service.ErrResetUnknownUser, httpx.NewAPIError(
		http.StatusBadRequest, "AUTH_INVALID_RESET_TOKEN",
		"This reset link is invalid or has already been used.")},
	{service.ErrInvalidVerificationToken, httpx.NewAPIError(
		http.StatusBadRequest, "AUTH_INVALID_VERIFICATION_TOKEN",
		"This verification link is invalid or has already been used.")},
	{service.ErrExpiredVerificationToken, httpx.NewAPIError(
		http.StatusBadRequest, "AUTH_VERIFICATION_TOKEN_EXPIRED",
		"This verification link has expired. Please request a new one.")},
}

// writeServiceError translates a session-service error to its wire response.
// Anything outside the known family is logged loudly and reported as a 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	for _, m := range serviceErrors {
		if errors.Is(err, m.err) {
			m.api.WriteError(w)
			return
		}
	}

	slogx.FromContext(r.Context()).Error("unhandled service error",
		"error", err,
		"path", r.URL.Path,
	)
	errServer.WriteError(w)
}
