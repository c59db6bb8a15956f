package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-0123456789"

func newTestIssuer(t *testing.T) *Issuer {
	t.Helper()
	i, err := NewIssuer(testSecret, true)
	require.NoError(t, err)
	return i
}

func TestNewIssuer_RejectsWeakSecret(t *testing.T) {
	_, err := NewIssuer("", true)
	assert.ErrorIs(t, err, ErrWeakSecret)

	_, err = NewIssuer("short", true)
	assert.ErrorIs(t, err, ErrWeakSecret)
}

func TestIssueAndResolve(t *testing.T) {
	i := newTestIssuer(t)

	tok, err := i.Issue("user-1", "alice")
	require.NoError(t, err)

	claims := i.Resolve(tok)
	require.NotNil(t, claims)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.WithinDuration(t, time.Now().Add(TokenTTL), claims.ExpiresAt.Time, time.Minute)
}

func TestResolve_Expired(t *testing.T) {
	i := newTestIssuer(t)
	i.now = func() time.Time { return time.Now().Add(-31 * 24 * time.Hour) }
	tok, err := i.Issue("user-1", "alice")
	require.NoError(t, err)

	i.now = time.Now
	assert.Nil(t, i.Resolve(tok))
}

func TestResolve_WrongSecret(t *testing.T) {
	other, err := NewIssuer("another-secret-0123456789", true)
	require.NoError(t, err)
	tok, err := other.Issue("user-1", "alice")
	require.NoError(t, err)

	assert.Nil(t, newTestIssuer(t).Resolve(tok))
}

func TestResolve_Malformed(t *testing.T) {
	i := newTestIssuer(t)
	assert.Nil(t, i.Resolve(""))
	assert.Nil(t, i.Resolve("not-a-jwt"))
	assert.Nil(t, i.Resolve("a.b.c"))
}

func TestResolve_RejectsNoneAlgorithm(t *testing.T) {
	claims := &Claims{
		UserID:   "user-1",
		Username: "alice",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	assert.Nil(t, newTestIssuer(t).Resolve(tok))
}

func TestSetCookie_Attributes(t *testing.T) {
	i := newTestIssuer(t)
	rec := httptest.NewRecorder()
	i.SetCookie(rec, "tok")

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, CookieName, c.Name)
	assert.Equal(t, "tok", c.Value)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, 2592000, c.MaxAge)
}

func TestRevoke_ExpiresCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestIssuer(t).Revoke(rec)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "", cookies[0].Value)
	assert.Less(t, cookies[0].MaxAge, 0)
}

func TestMiddleware(t *testing.T) {
	i := newTestIssuer(t)
	tok, err := i.Issue("user-1", "alice")
	require.NoError(t, err)

	var seen *Claims
	h := i.Middleware(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		status int
	}{
		{"no token", func(r *http.Request) {}, http.StatusUnauthorized},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: CookieName, Value: tok}) }, http.StatusOK},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+tok) }, http.StatusOK},
		{"garbage cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: CookieName, Value: "x"}) }, http.StatusUnauthorized},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tc.setup(req)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusOK {
				require.NotNil(t, seen)
				assert.Equal(t, "alice", seen.Username)
			}
		})
	}
}
