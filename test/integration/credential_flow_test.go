package integration

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandeepkv93/campus-notify-core/internal/domain"
	"github.com/sandeepkv93/campus-notify-core/internal/security"
)

func requireErrorCode(t *testing.T, resp *http.Response, env apiEnvelope, status int, code string) {
	t.Helper()
	require.Equal(t, status, resp.StatusCode)
	require.NotNil(t, env.Error)
	require.Equal(t, code, env.Error.Code)
}

func TestSignupFlowCreatesVerifiedUserWithWelcomeNotification(t *testing.T) {
	s := newTestStack(t, stackOptions{})
	email := "new.student@campus.test"

	resp, env := s.doJSON(t, http.MethodPost, "/api/v1/credentials/signup/request", map[string]string{"email": "  New.Student@Campus.test "}, nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.True(t, env.Success)
	code := s.mail.LastCode(t, email)

	resp, env = s.doJSON(t, http.MethodPost, "/api/v1/credentials/signup/verify", map[string]string{"email": email, "code": code}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ticket := decodeData[map[string]string](t, env)["ticket"]
	require.NotEmpty(t, ticket)

	resp, env = s.doJSON(t, http.MethodPost, "/api/v1/credentials/signup/verify", map[string]string{"email": email, "code": code}, nil)
	requireErrorCode(t, resp, env, http.StatusBadRequest, "INVALID_CODE")

	body := map[string]string{"email": email, "ticket": ticket, "full_name": "New Student", "password": "Valid#Pass1234"}
	resp, env = s.doJSON(t, http.MethodPost, "/api/v1/credentials/signup/complete", body, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	user := decodeData[domain.User](t, env)
	require.NotZero(t, user.ID)
	assert.True(t, user.EmailVerified)
	assert.Equal(t, email, user.Email)
	assert.NotContains(t, string(env.Data), "password_hash")

	resp, env = s.doJSON(t, http.MethodPost, "/api/v1/credentials/signup/complete", body, nil)
	requireErrorCode(t, resp, env, http.StatusConflict, "IDENTITY_TAKEN")

	auth := s.bearer(t, user.ID)
	resp, env = s.doJSON(t, http.MethodGet, "/api/v1/notifications/unread-count", nil, auth)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.EqualValues(t, 1, decodeData[map[string]int64](t, env)["unread"])

	resp, env = s.doJSON(t, http.MethodGet, "/api/v1/notifications?page=1&page_size=10", nil, auth)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decodeData[struct {
		Items []domain.Notification `json:"items"`
		Total int64                 `json:"total"`
	}](t, env)
	require.EqualValues(t, 1, page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, domain.NotificationKindWelcome, page.Items[0].Kind)
	assert.Equal(t, user.ID, page.Items[0].RecipientID)

	resp, _ = s.doJSON(t, http.MethodPut, "/api/v1/notifications/read-all", nil, auth)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_, env = s.doJSON(t, http.MethodGet, "/api/v1/notifications/unread-count", nil, auth)
	assert.EqualValues(t, 0, decodeData[map[string]int64](t, env)["unread"])

	resp, env = s.doJSON(t, http.MethodDelete, "/api/v1/notifications/"+itoa(page.Items[0].ID), nil, s.bearer(t, user.ID+1))
	requireErrorCode(t, resp, env, http.StatusNotFound, "NOT_FOUND")
}

func TestPasswordResetFlowRotatesPassword(t *testing.T) {
	s := newTestStack(t, stackOptions{})
	email := "reset.me@campus.test"
	oldHash, err := security.HashPassword("Old#Pass1234")
	require.NoError(t, err)
	require.NoError(t, s.users.Create(context.Background(), &domain.User{
		Email: email, FullName: "Reset Me", Role: domain.UserRoleStudent, PasswordHash: oldHash,
	}))

	resp, _ := s.doJSON(t, http.MethodPost, "/api/v1/credentials/password-reset/request", map[string]string{"email": email}, nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	code := s.mail.LastCode(t, email)

	resp, env := s.doJSON(t, http.MethodPost, "/api/v1/credentials/password-reset/verify", map[string]string{"email": email, "code": code}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ticket := decodeData[map[string]string](t, env)["ticket"]

	resp, env = s.doJSON(t, http.MethodPost, "/api/v1/credentials/password-reset/complete",
		map[string]string{"email": email, "ticket": ticket, "new_password": "weakpassword"}, nil)
	requireErrorCode(t, resp, env, http.StatusBadRequest, "WEAK_PASSWORD")

	resp, _ = s.doJSON(t, http.MethodPost, "/api/v1/credentials/password-reset/complete",
		map[string]string{"email": email, "ticket": ticket, "new_password": "New#Pass5678"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	user, err := s.users.FindByEmail(context.Background(), email)
	require.NoError(t, err)
	ok, err := security.VerifyPassword(user.PasswordHash, "New#Pass5678")
	require.NoError(t, err)
	assert.True(t, ok, "new password should verify")

	resp, env = s.doJSON(t, http.MethodPost, "/api/v1/credentials/password-reset/complete",
		map[string]string{"email": email, "ticket": ticket, "new_password": "Other#Pass9012"}, nil)
	requireErrorCode(t, resp, env, http.StatusUnauthorized, "INVALID_TICKET")
}

func TestPasswordResetUnknownEmailLooksIdentical(t *testing.T) {
	s := newTestStack(t, stackOptions{})

	resp, env := s.doJSON(t, http.MethodPost, "/api/v1/credentials/password-reset/request", map[string]string{"email": "ghost@campus.test"}, nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.True(t, env.Success)
	assert.Empty(t, s.mail.sent, "no email for an unknown identity")

	require.NoError(t, s.users.Create(context.Background(), &domain.User{
		Email: "known@campus.test", FullName: "Known", Role: domain.UserRoleStudent,
	}))
	for i := 1; i <= 6; i++ {
		known, _ := s.doJSON(t, http.MethodPost, "/api/v1/credentials/password-reset/request", map[string]string{"email": "known@campus.test"}, nil)
		ghost, _ := s.doJSON(t, http.MethodPost, "/api/v1/credentials/password-reset/request", map[string]string{"email": "ghost2@campus.test"}, nil)
		require.Equal(t, known.StatusCode, ghost.StatusCode, "request %d", i)
	}
	resp, env = s.doJSON(t, http.MethodPost, "/api/v1/credentials/password-reset/request", map[string]string{"email": "ghost2@campus.test"}, nil)
	requireErrorCode(t, resp, env, http.StatusTooManyRequests, "RATE_LIMITED")
}

func TestExpiredCodeIsRejected(t *testing.T) {
	s := newTestStack(t, stackOptions{})
	email := "slow@campus.test"

	resp, _ := s.doJSON(t, http.MethodPost, "/api/v1/credentials/signup/request", map[string]string{"email": email}, nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	code := s.mail.LastCode(t, email)
	s.clock.Advance(11 * time.Minute)

	resp, env := s.doJSON(t, http.MethodPost, "/api/v1/credentials/signup/verify", map[string]string{"email": email, "code": code}, nil)
	requireErrorCode(t, resp, env, http.StatusGone, "CODE_EXPIRED")
}

func TestCredentialIssuanceCapReturns429(t *testing.T) {
	s := newTestStack(t, stackOptions{})
	email := "spammy@campus.test"

	for i := 0; i < 5; i++ {
		resp, _ := s.doJSON(t, http.MethodPost, "/api/v1/credentials/signup/request", map[string]string{"email": email}, nil)
		require.Equal(t, http.StatusAccepted, resp.StatusCode, "request %d", i+1)
	}
	resp, env := s.doJSON(t, http.MethodPost, "/api/v1/credentials/signup/request", map[string]string{"email": email}, nil)
	requireErrorCode(t, resp, env, http.StatusTooManyRequests, "RATE_LIMITED")
}

func TestCredentialEndpointsAreIPThrottled(t *testing.T) {
	s := newTestStack(t, stackOptions{credentialRPM: 2})

	for i := 0; i < 2; i++ {
		resp, _ := s.doJSON(t, http.MethodPost, "/api/v1/credentials/password-reset/request", map[string]string{"email": "a@campus.test"}, nil)
		require.Equal(t, http.StatusAccepted, resp.StatusCode, "request %d", i+1)
	}
	resp, _ := s.doJSON(t, http.MethodPost, "/api/v1/credentials/password-reset/request", map[string]string{"email": "a@campus.test"}, nil)
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))
}

func TestNotificationsRequireBearer(t *testing.T) {
	s := newTestStack(t, stackOptions{})
	resp, env := s.doJSON(t, http.MethodGet, "/api/v1/notifications", nil, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.False(t, env.Success)
}
