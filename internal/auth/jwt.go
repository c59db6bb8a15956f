package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

// TokenTTL is how long an issued session token stays valid.
const TokenTTL = 30 * 24 * time.Hour

// CookieName is the cookie that carries the session token.
const CookieName = "token"

// MinSecretLength is the shortest accepted signing secret, in bytes.
const MinSecretLength = 16

var ErrWeakSecret = errors.New("signing secret is missing or too short")

// Claims defines the JWT claims structure.
type Claims struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// UserClaimsKey is the context key for user claims.
type contextKey string

const UserClaimsKey = contextKey("userClaims")

// Issuer signs and resolves session tokens with a process-wide secret.
type Issuer struct {
	key          []byte
	ttl          time.Duration
	secureCookie bool
	now          func() time.Time
}

// NewIssuer creates an Issuer. It refuses secrets shorter than MinSecretLength.
func NewIssuer(secret string, secureCookie bool) (*Issuer, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrWeakSecret
	}
	return &Issuer{
		key:          []byte(secret),
		ttl:          TokenTTL,
		secureCookie: secureCookie,
		now:          time.Now,
	}, nil
}

// Issue creates a new signed token for a user.
func (i *Issuer) Issue(userID, username string) (string, error) {
	now := i.now()
	claims := &Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Resolve parses and validates a token string. Any failure (expired,
// malformed, wrong signature) yields nil.
func (i *Issuer) Resolve(tokenStr string) *Claims {
	if tokenStr == "" {
		return nil
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return i.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !token.Valid || claims.UserID == "" {
		return nil
	}
	return claims
}

// SetCookie attaches a session cookie carrying token to the response.
func (i *Issuer) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(i.ttl.Seconds()),
		Expires:  i.now().Add(i.ttl),
		HttpOnly: true,
		Secure:   i.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})
}

// Revoke expires the session cookie on the client.
func (i *Issuer) Revoke(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   i.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})
}

// FromRequest resolves the caller's claims from the Authorization header or
// the session cookie.
func (i *Issuer) FromRequest(r *http.Request) *Claims {
	var tokenStr string

	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		if after, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
			tokenStr = strings.TrimSpace(after)
		}
	}

	if tokenStr == "" {
		if cookie, err := r.Cookie(CookieName); err == nil {
			tokenStr = cookie.Value
		}
	}

	return i.Resolve(tokenStr)
}

// Middleware rejects requests without a valid session with 401 and passes
// the claims down via context otherwise.
func (i *Issuer) Middleware(unauthorized http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := i.FromRequest(r)
			if claims == nil {
				unauthorized(w, r)
				return
			}

			log.Debug().Str("user_id", claims.UserID).Str("username", claims.Username).Msg("Authenticated request")
			ctx := context.WithValue(r.Context(), UserClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext returns the claims stored by Middleware.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(UserClaimsKey).(*Claims)
	return claims, ok
}
