package service

import "errors"

// Sentinel errors raised by the session service. The transport layer maps
// each to a stable wire code and HTTP status; callers match with errors.Is.
var (
	ErrEmailExists      = errors.New("email_exists")
	ErrTermsNotAccepted = errors.New("terms_not_accepted")

	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrAccountSuspended   = errors.New("account_suspended")

	ErrInvalidRefreshToken = errors.New("invalid_refresh_token")
	ErrRefreshTokenRevoked = errors.New("refresh_token_revoked")
	ErrRefreshTokenExpired = errors.New("refresh_token_expired")

	ErrInvalidResetToken = errors.New("invalid_reset_token")
	ErrResetTokenExpired = errors.New("reset_token_expired")
	ErrResetUnknownUser  = errors.New("reset_unknown_user")

	ErrInvalidVerificationToken = errors.New("invalid_verification_token")
	ErrExpiredVerificationToken = errors.New("expired_verification_token")
)
