package service

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ledgerdash/ledgerdash/internal/auth/domain"
	"github.com/ledgerdash/ledgerdash/internal/auth/notify"
	"github.com/ledgerdash/ledgerdash/internal/auth/store"
	"github.com/ledgerdash/ledgerdash/internal/auth/store/drivers/sqlite"
	"github.com/ledgerdash/ledgerdash/pkg/cryptox"
	"github.com/ledgerdash/ledgerdash/pkg/jwtx"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "ledgerdash-service-test")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

// fakeSender records sent emails so tests can pull out the raw tokens.
type fakeSender struct {
	verifications []notify.VerificationEmail
	resets        []notify.PasswordResetEmail
}

func (f *fakeSender) SendVerificationEmail(ctx context.Context, msg notify.VerificationEmail) error {
	f.verifications = append(f.verifications, msg)
	return nil
}

func (f *fakeSender) SendPasswordResetEmail(ctx context.Context, msg notify.PasswordResetEmail) error {
	f.resets = append(f.resets, msg)
	return nil
}

func newTestService(t *testing.T) (*SessionService, *fakeSender, store.Store) {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	codec, err := jwtx.NewCodec(
		[]byte("test-signing-secret-at-least-32-bytes!"),
		"ledgerdash-test", "ledgerdash-web",
	)
	require.NoError(t, err)

	sender := &fakeSender{}
	svc := &SessionService{
		Store:           st,
		Codec:           codec,
		Sender:          sender,
		Issuer:          "ledgerdash-test",
		Audience:        "ledgerdash-web",
		AccessTTL:       15 * time.Minute,
		RefreshTTL:      30 * 24 * time.Hour,
		VerificationTTL: 24 * time.Hour,
		ResetTTL:        30 * time.Minute,
	}
	return svc, sender, st
}

func signup(t *testing.T, svc *SessionService, email string) SignupResult {
	t.Helper()

	res, err := svc.Signup(context.Background(), SignupInput{
		Email:       email,
		Password:    "Aa1!aaaaaaaa",
		AcceptTerms: true,
		Name:        "Test User",
	}, RequestMeta{ClientIP: "127.0.0.1", UserAgent: "test"})
	require.NoError(t, err)
	return res
}

func TestSignup(t *testing.T) {
	svc, sender, _ := newTestService(t)

	res := signup(t, svc, "a@b.com")

	assert.Equal(t, "a@b.com", res.User.Email)
	assert.Equal(t, domain.UserStatusActive, res.User.Status)
	assert.Nil(t, res.User.EmailVerifiedAt)
	assert.NotEmpty(t, res.Session.AccessToken)
	assert.NotEmpty(t, res.Session.RefreshToken)
	assert.NotEmpty(t, res.VerificationToken)

	// Verification email carries the same raw token as the result.
	require.Len(t, sender.verifications, 1)
	assert.Equal(t, res.VerificationToken, sender.verifications[0].Token)

	// Access token claims reflect the unverified state.
	claims, err := svc.Codec.Verify(res.Session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.Subject)
	assert.Equal(t, "a@b.com", claims.Email)
	assert.Equal(t, "free", claims.Plan)
	assert.False(t, claims.EmailVerified)
}

func TestSignup_NormalizesEmail(t *testing.T) {
	svc, _, _ := newTestService(t)

	res := signup(t, svc, "  Mixed.Case@Example.COM  ")
	assert.Equal(t, "mixed.case@example.com", res.User.Email)
}

func TestSignup_TermsRequired(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Signup(context.Background(), SignupInput{
		Email:       "terms@example.com",
		Password:    "Aa1!aaaaaaaa",
		AcceptTerms: false,
	}, RequestMeta{})
	assert.ErrorIs(t, err, ErrTermsNotAccepted)
}

func TestSignup_DuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService(t)

	signup(t, svc, "dup@example.com")

	_, err := svc.Signup(context.Background(), SignupInput{
		Email:       "DUP@example.com",
		Password:    "Aa1!aaaaaaaa",
		AcceptTerms: true,
	}, RequestMeta{})
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestLogin(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	signup(t, svc, "login@example.com")

	res, err := svc.Login(ctx, "login@example.com", "Aa1!aaaaaaaa", true, RequestMeta{})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Session.RefreshToken)
	assert.NotNil(t, res.User.LastLoginAt)
}

func TestLogin_EnumerationResistance(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	signup(t, svc, "known@example.com")

	// Unknown email and wrong password yield the identical error.
	_, errUnknown := svc.Login(ctx, "unknown@example.com", "Aa1!aaaaaaaa", false, RequestMeta{})
	_, errWrongPw := svc.Login(ctx, "known@example.com", "Wrong1!wrongpw", false, RequestMeta{})

	assert.ErrorIs(t, errUnknown, ErrInvalidCredentials)
	assert.ErrorIs(t, errWrongPw, ErrInvalidCredentials)
	assert.Equal(t, errUnknown, errWrongPw)
}

func TestLogin_Suspended(t *testing.T) {
	svc, _, st := newTestService(t)
	ctx := context.Background()

	res := signup(t, svc, "suspended@example.com")
	require.NoError(t, st.Users().SetStatus(ctx, res.User.ID, domain.UserStatusSuspended))

	// Correct password, suspended account.
	_, err := svc.Login(ctx, "suspended@example.com", "Aa1!aaaaaaaa", false, RequestMeta{})
	assert.ErrorIs(t, err, ErrAccountSuspended)

	// Wrong password on a suspended account must still look like bad
	// credentials, not suspension.
	_, err = svc.Login(ctx, "suspended@example.com", "Wrong1!wrongpw", false, RequestMeta{})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_RememberMeBound(t *testing.T) {
	svc, _, st := newTestService(t)
	ctx := context.Background()

	signup(t, svc, "remember@example.com")

	short, err := svc.Login(ctx, "remember@example.com", "Aa1!aaaaaaaa", false, RequestMeta{})
	require.NoError(t, err)
	long, err := svc.Login(ctx, "remember@example.com", "Aa1!aaaaaaaa", true, RequestMeta{})
	require.NoError(t, err)

	shortID, _, err := cryptox.SplitComposite(short.Session.RefreshToken)
	require.NoError(t, err)
	longID, _, err := cryptox.SplitComposite(long.Session.RefreshToken)
	require.NoError(t, err)

	shortRec, _, err := st.RefreshTokens().GetRefreshTokenByID(ctx, shortID)
	require.NoError(t, err)
	longRec, _, err := st.RefreshTokens().GetRefreshTokenByID(ctx, longID)
	require.NoError(t, err)

	assert.Equal(t, SessionCap, shortRec.ExpiresAt.Sub(shortRec.IssuedAt))
	assert.Equal(t, svc.RefreshTTL, longRec.ExpiresAt.Sub(longRec.IssuedAt))
}

func TestRefreshSession_RotationChain(t *testing.T) {
	svc, _, st := newTestService(t)
	ctx := context.Background()

	first := signup(t, svc, "rotate@example.com")
	oldToken := first.Session.RefreshToken
	oldID, _, err := cryptox.SplitComposite(oldToken)
	require.NoError(t, err)

	rotated, err := svc.RefreshSession(ctx, oldToken, RequestMeta{})
	require.NoError(t, err)
	newID, _, err := cryptox.SplitComposite(rotated.Session.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, oldID, newID)

	// The old record is revoked and linked to its successor.
	oldRec, _, err := st.RefreshTokens().GetRefreshTokenByID(ctx, oldID)
	require.NoError(t, err)
	require.NotNil(t, oldRec.RevokedAt)
	require.NotNil(t, oldRec.ReplacedByTokenID)
	assert.Equal(t, newID, *oldRec.ReplacedByTokenID)

	// Replay of the rotated-away token is rejected.
	_, err = svc.RefreshSession(ctx, oldToken, RequestMeta{})
	assert.ErrorIs(t, err, ErrRefreshTokenRevoked)
}

func TestRefreshSession_Malformed(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	for _, tok := range []string{"", "no-dot", "a.b.c", ".secret", "id."} {
		_, err := svc.RefreshSession(ctx, tok, RequestMeta{})
		assert.ErrorIs(t, err, ErrInvalidRefreshToken, "token %q", tok)
	}
}

func TestRefreshSession_UnknownID(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.RefreshSession(context.Background(), "00000000-0000-0000-0000-000000000000.secret", RequestMeta{})
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRefreshSession_WrongSecretRevokes(t *testing.T) {
	svc, _, st := newTestService(t)
	ctx := context.Background()

	res := signup(t, svc, "forged@example.com")
	id, _, err := cryptox.SplitComposite(res.Session.RefreshToken)
	require.NoError(t, err)

	_, err = svc.RefreshSession(ctx, id+".forged-secret", RequestMeta{})
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	// A guessed secret against a valid id kills the id.
	rec, _, err := st.RefreshTokens().GetRefreshTokenByID(ctx, id)
	require.NoError(t, err)
	assert.NotNil(t, rec.RevokedAt)

	// Even the real token is now unusable.
	_, err = svc.RefreshSession(ctx, res.Session.RefreshToken, RequestMeta{})
	assert.ErrorIs(t, err, ErrRefreshTokenRevoked)
}

func TestRefreshSession_Expired(t *testing.T) {
	svc, _, st := newTestService(t)
	ctx := context.Background()

	res := signup(t, svc, "expired@example.com")
	id, _, err := cryptox.SplitComposite(res.Session.RefreshToken)
	require.NoError(t, err)

	// Age the token past its expiry directly in the store.
	svc.RefreshTTL = -time.Hour
	aged, err := svc.Login(ctx, "expired@example.com", "Aa1!aaaaaaaa", true, RequestMeta{})
	require.NoError(t, err)
	agedID, _, err := cryptox.SplitComposite(aged.Session.RefreshToken)
	require.NoError(t, err)

	_, err = svc.RefreshSession(ctx, aged.Session.RefreshToken, RequestMeta{})
	assert.ErrorIs(t, err, ErrRefreshTokenExpired)

	// Expired-but-unrevoked records are closed out as a side effect.
	rec, _, err := st.RefreshTokens().GetRefreshTokenByID(ctx, agedID)
	require.NoError(t, err)
	assert.NotNil(t, rec.RevokedAt)

	// The original, still-valid token is untouched.
	rec, _, err = st.RefreshTokens().GetRefreshTokenByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, rec.RevokedAt)
}

func TestRefreshSession_SuspendedOwner(t *testing.T) {
	svc, _, st := newTestService(t)
	ctx := context.Background()

	res := signup(t, svc, "frozen@example.com")
	require.NoError(t, st.Users().SetStatus(ctx, res.User.ID, domain.UserStatusSuspended))

	_, err := svc.RefreshSession(ctx, res.Session.RefreshToken, RequestMeta{})
	assert.ErrorIs(t, err, ErrAccountSuspended)

	id, _, err := cryptox.SplitComposite(res.Session.RefreshToken)
	require.NoError(t, err)
	rec, _, err := st.RefreshTokens().GetRefreshTokenByID(ctx, id)
	require.NoError(t, err)
	assert.NotNil(t, rec.RevokedAt)
}

func TestLogout(t *testing.T) {
	svc, _, st := newTestService(t)
	ctx := context.Background()

	res := signup(t, svc, "logout@example.com")
	id, _, err := cryptox.SplitComposite(res.Session.RefreshToken)
	require.NoError(t, err)

	svc.Logout(ctx, res.Session.RefreshToken, RequestMeta{})

	rec, _, err := st.RefreshTokens().GetRefreshTokenByID(ctx, id)
	require.NoError(t, err)
	assert.NotNil(t, rec.RevokedAt)
	assert.Nil(t, rec.ReplacedByTokenID)
}

func TestLogout_Tolerant(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	// None of these may panic or mutate anything.
	svc.Logout(ctx, "", RequestMeta{})
	svc.Logout(ctx, "garbage", RequestMeta{})
	svc.Logout(ctx, "a.b.c", RequestMeta{})
	svc.Logout(ctx, "00000000-0000-0000-0000-000000000000.secret", RequestMeta{})
}

func TestRequestPasswordReset_AlwaysSucceeds(t *testing.T) {
	svc, sender, _ := newTestService(t)
	ctx := context.Background()

	signup(t, svc, "resetme@example.com")

	require.NoError(t, svc.RequestPasswordReset(ctx, "resetme@example.com", RequestMeta{}))
	require.NoError(t, svc.RequestPasswordReset(ctx, "nobody@example.com", RequestMeta{}))

	// Only the existing account got an email.
	assert.Len(t, sender.resets, 1)
	assert.Equal(t, "resetme@example.com", sender.resets[0].To)
}

func TestResetPassword_RevokesAllSessions(t *testing.T) {
	svc, sender, st := newTestService(t)
	ctx := context.Background()

	res := signup(t, svc, "revoked@example.com")
	second, err := svc.Login(ctx, "revoked@example.com", "Aa1!aaaaaaaa", true, RequestMeta{})
	require.NoError(t, err)

	require.NoError(t, svc.RequestPasswordReset(ctx, "revoked@example.com", RequestMeta{}))
	require.Len(t, sender.resets, 1)

	user, err := svc.ResetPassword(ctx, sender.resets[0].Token, "Bb2@bbbbbbbb", RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, user.ID)

	// Every refresh token is dead.
	for _, tok := range []string{res.Session.RefreshToken, second.Session.RefreshToken} {
		id, _, err := cryptox.SplitComposite(tok)
		require.NoError(t, err)
		rec, _, err := st.RefreshTokens().GetRefreshTokenByID(ctx, id)
		require.NoError(t, err)
		assert.NotNil(t, rec.RevokedAt)
	}

	// Old password no longer works; new one does.
	_, err = svc.Login(ctx, "revoked@example.com", "Aa1!aaaaaaaa", false, RequestMeta{})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, "revoked@example.com", "Bb2@bbbbbbbb", false, RequestMeta{})
	assert.NoError(t, err)
}

func TestResetPassword_SingleUse(t *testing.T) {
	svc, sender, _ := newTestService(t)
	ctx := context.Background()

	signup(t, svc, "once@example.com")
	require.NoError(t, svc.RequestPasswordReset(ctx, "once@example.com", RequestMeta{}))
	token := sender.resets[0].Token

	_, err := svc.ResetPassword(ctx, token, "Bb2@bbbbbbbb", RequestMeta{})
	require.NoError(t, err)

	_, err = svc.ResetPassword(ctx, token, "Cc3#cccccccc", RequestMeta{})
	assert.ErrorIs(t, err, ErrInvalidResetToken)
}

func TestResetPassword_Expired(t *testing.T) {
	svc, sender, _ := newTestService(t)
	ctx := context.Background()

	signup(t, svc, "stale@example.com")

	svc.ResetTTL = -time.Minute
	require.NoError(t, svc.RequestPasswordReset(ctx, "stale@example.com", RequestMeta{}))

	_, err := svc.ResetPassword(ctx, sender.resets[0].Token, "Bb2@bbbbbbbb", RequestMeta{})
	assert.ErrorIs(t, err, ErrResetTokenExpired)
}

func TestResetPassword_ConsumedWinsOverExpired(t *testing.T) {
	svc, sender, _ := newTestService(t)
	ctx := context.Background()

	signup(t, svc, "ordering@example.com")

	svc.ResetTTL = -time.Minute
	require.NoError(t, svc.RequestPasswordReset(ctx, "ordering@example.com", RequestMeta{}))
	token := sender.resets[0].Token

	// First attempt consumes the token and reports expiry.
	_, err := svc.ResetPassword(ctx, token, "Bb2@bbbbbbbb", RequestMeta{})
	require.ErrorIs(t, err, ErrResetTokenExpired)

	// A consumed-and-expired token reports "already consumed", not "expired".
	_, err = svc.ResetPassword(ctx, token, "Bb2@bbbbbbbb", RequestMeta{})
	assert.ErrorIs(t, err, ErrInvalidResetToken)
}

func TestVerifyEmail(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	res := signup(t, svc, "verify@example.com")

	user, err := svc.VerifyEmail(ctx, res.VerificationToken, RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, user.ID)
	assert.NotNil(t, user.EmailVerifiedAt)

	// Single use.
	_, err = svc.VerifyEmail(ctx, res.VerificationToken, RequestMeta{})
	assert.ErrorIs(t, err, ErrInvalidVerificationToken)
}

func TestVerifyEmail_BadToken(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.VerifyEmail(context.Background(), "not-a-real-token", RequestMeta{})
	assert.ErrorIs(t, err, ErrInvalidVerificationToken)
}

func TestVerifyEmail_Expired(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	svc.VerificationTTL = -time.Hour
	res := signup(t, svc, "lapsed@example.com")

	_, err := svc.VerifyEmail(ctx, res.VerificationToken, RequestMeta{})
	assert.ErrorIs(t, err, ErrExpiredVerificationToken)
}

func TestResendVerification(t *testing.T) {
	svc, sender, _ := newTestService(t)
	ctx := context.Background()

	signup(t, svc, "resend@example.com")
	require.Len(t, sender.verifications, 1)

	require.NoError(t, svc.ResendVerification(ctx, "resend@example.com", RequestMeta{}))
	require.Len(t, sender.verifications, 2)

	// The new token verifies.
	_, err := svc.VerifyEmail(ctx, sender.verifications[1].Token, RequestMeta{})
	require.NoError(t, err)

	// Verified accounts and unknown emails are silent no-ops.
	require.NoError(t, svc.ResendVerification(ctx, "resend@example.com", RequestMeta{}))
	require.NoError(t, svc.ResendVerification(ctx, "nobody@example.com", RequestMeta{}))
	assert.Len(t, sender.verifications, 2)
}

func TestHousekeeping_Cleanup(t *testing.T) {
	svc, sender, st := newTestService(t)
	ctx := context.Background()

	// Produce an expired refresh token and an expired reset token.
	svc.RefreshTTL = -time.Hour
	svc.ResetTTL = -time.Minute
	res := signup(t, svc, "cleanup@example.com")
	require.NoError(t, svc.RequestPasswordReset(ctx, "cleanup@example.com", RequestMeta{}))

	hk := NewHousekeepingService(st, slog.New(slog.DiscardHandler), time.Hour)
	hk.Start()
	hk.Stop()

	id, _, err := cryptox.SplitComposite(res.Session.RefreshToken)
	require.NoError(t, err)
	_, _, err = st.RefreshTokens().GetRefreshTokenByID(ctx, id)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = svc.ResetPassword(ctx, sender.resets[0].Token, "Bb2@bbbbbbbb", RequestMeta{})
	assert.ErrorIs(t, err, ErrInvalidResetToken)
}
