package http

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/portalhq/portal/internal/api/domain"
)

func TestLoginEndpoint(t *testing.T) {
	env := newTestEnv(t)

	env.seedUser(t, "alice@example.com", "correct horse", domain.RoleMember, true)
	env.seedUser(t, "off@example.com", "correct horse", domain.RoleMember, false)

	t.Run("success returns challenge id", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/auth/login", map[string]string{
			"email":    "alice@example.com",
			"password": "correct horse",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody(t, rec)
		require.Equal(t, true, body["status"])
		require.Positive(t, body["challengeId"].(float64))
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/auth/login", map[string]string{
			"email":    "alice@example.com",
			"password": "nope",
		})
		requireErrorCode(t, rec, http.StatusUnauthorized, "INVALID_CREDENTIALS")
	})

	t.Run("unknown email gets the same error", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/auth/login", map[string]string{
			"email":    "ghost@example.com",
			"password": "whatever",
		})
		requireErrorCode(t, rec, http.StatusUnauthorized, "INVALID_CREDENTIALS")
	})

	t.Run("disabled account", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/auth/login", map[string]string{
			"email":    "off@example.com",
			"password": "correct horse",
		})
		requireErrorCode(t, rec, http.StatusForbidden, "ACCOUNT_DISABLED")
	})

	t.Run("missing fields", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/auth/login", map[string]string{"email": "alice@example.com"})
		requireErrorCode(t, rec, http.StatusBadRequest, "INVALID_REQUEST")
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/auth/login", "not an object")
		requireErrorCode(t, rec, http.StatusBadRequest, "INVALID_REQUEST")
	})
}

func TestVerifyOTPEndpoint(t *testing.T) {
	env := newTestEnv(t)

	u := env.seedUser(t, "alice@example.com", "correct horse", domain.RoleMember, true)

	login := func(t *testing.T) (float64, string) {
		t.Helper()
		rec := env.do(t, http.MethodPost, "/auth/login", map[string]string{
			"email":    u.Email,
			"password": "correct horse",
		})
		require.Equal(t, http.StatusOK, rec.Code)
		return decodeBody(t, rec)["challengeId"].(float64), env.Mailer.lastCode(t)
	}

	t.Run("success returns user and tokens", func(t *testing.T) {
		challengeID, code := login(t)

		rec := env.do(t, http.MethodPost, "/auth/otp/verify", map[string]any{
			"challengeId": challengeID,
			"code":        code,
			"rememberMe":  true,
		})
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody(t, rec)
		require.Equal(t, true, body["status"])

		user := body["user"].(map[string]any)
		require.Equal(t, u.ID, user["id"])
		require.Equal(t, u.Email, user["email"])
		require.NotContains(t, user, "passwordHash")

		require.NotEmpty(t, body["accessToken"])
		require.NotEmpty(t, body["refreshToken"])
	})

	t.Run("unknown challenge", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/auth/otp/verify", map[string]any{
			"challengeId": 424242,
			"code":        "123456",
		})
		requireErrorCode(t, rec, http.StatusNotFound, "VERIFICATION_CODE_NOT_FOUND")
	})

	t.Run("replay of consumed challenge", func(t *testing.T) {
		challengeID, code := login(t)

		rec := env.do(t, http.MethodPost, "/auth/otp/verify", map[string]any{
			"challengeId": challengeID, "code": code,
		})
		require.Equal(t, http.StatusOK, rec.Code)

		rec = env.do(t, http.MethodPost, "/auth/otp/verify", map[string]any{
			"challengeId": challengeID, "code": code,
		})
		requireErrorCode(t, rec, http.StatusGone, "VERIFICATION_CODE_ALREADY_USED")
	})

	t.Run("wrong code then lockout", func(t *testing.T) {
		challengeID, code := login(t)

		wrong := "000000"
		if wrong == code {
			wrong = "000001"
		}

		for range 3 {
			rec := env.do(t, http.MethodPost, "/auth/otp/verify", map[string]any{
				"challengeId": challengeID, "code": wrong,
			})
			requireErrorCode(t, rec, http.StatusBadRequest, "INVALID_VERIFICATION_CODE")
		}

		rec := env.do(t, http.MethodPost, "/auth/otp/verify", map[string]any{
			"challengeId": challengeID, "code": code,
		})
		requireErrorCode(t, rec, http.StatusTooManyRequests, "TOO_MANY_ATTEMPTS")
	})
}

func TestResendOTPEndpoint(t *testing.T) {
	env := newTestEnv(t)

	u := env.seedUser(t, "alice@example.com", "correct horse", domain.RoleMember, true)

	rec := env.do(t, http.MethodPost, "/auth/login", map[string]string{
		"email": u.Email, "password": "correct horse",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	challengeID := decodeBody(t, rec)["challengeId"].(float64)

	t.Run("cooldown right after login", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/auth/otp/resend", map[string]any{
			"challengeId": challengeID,
		})
		requireErrorCode(t, rec, http.StatusTooManyRequests, "RESEND_COOLDOWN")
	})

	t.Run("unknown challenge", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/auth/otp/resend", map[string]any{
			"challengeId": 424242,
		})
		requireErrorCode(t, rec, http.StatusNotFound, "VERIFICATION_CODE_NOT_FOUND")
	})
}

func TestRefreshEndpoint(t *testing.T) {
	env := newTestEnv(t)

	u := env.seedUser(t, "alice@example.com", "correct horse", domain.RoleMember, true)

	rec := env.do(t, http.MethodPost, "/auth/login", map[string]string{
		"email": u.Email, "password": "correct horse",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	challengeID := decodeBody(t, rec)["challengeId"].(float64)

	rec = env.do(t, http.MethodPost, "/auth/otp/verify", map[string]any{
		"challengeId": challengeID,
		"code":        env.Mailer.lastCode(t),
	})
	require.Equal(t, http.StatusOK, rec.Code)
	refreshToken := decodeBody(t, rec)["refreshToken"].(string)

	t.Run("success", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/auth/refresh-token", map[string]string{
			"token":  refreshToken,
			"userId": u.ID,
		})
		require.Equal(t, http.StatusOK, rec.Code)

		require.NotEmpty(t, decodeBody(t, rec)["token"])
	})

	t.Run("user id mismatch", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/auth/refresh-token", map[string]string{
			"token":  refreshToken,
			"userId": "someone-else",
		})
		requireErrorCode(t, rec, http.StatusUnauthorized, "INVALID_REFRESH_TOKEN")
	})

	t.Run("garbage token", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/auth/refresh-token", map[string]string{
			"token":  "garbage",
			"userId": u.ID,
		})
		requireErrorCode(t, rec, http.StatusUnauthorized, "INVALID_REFRESH_TOKEN")
	})
}

func TestMeEndpoint(t *testing.T) {
	env := newTestEnv(t)

	u := env.seedUser(t, "alice@example.com", "correct horse", domain.RoleMember, true)
	token := env.mintAccess(t, u)

	t.Run("success", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/auth/me", nil, withBearer(token))
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody(t, rec)
		user := body["user"].(map[string]any)
		require.Equal(t, u.ID, user["id"])
	})

	t.Run("missing token", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/auth/me", nil)
		requireErrorCode(t, rec, http.StatusUnauthorized, "TOKEN_MISSING")
	})
}
