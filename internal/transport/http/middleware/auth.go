package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"yatube/internal/httputil"
	"yatube/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// IdentityKey is the context key for the requesting *model.Identity
	IdentityKey contextKey = "identity"
)

// Token error codes
const (
	CodeTokenExpired = "TOKEN_EXPIRED"
	CodeTokenInvalid = "TOKEN_INVALID"
)

// IdentityStore mirrors a verified identity locally.
type IdentityStore interface {
	Ensure(ctx context.Context, identity *model.Identity) (*model.User, error)
}

// Authenticate resolves the optional identity carried by the request. Tokens
// are issued by the external identity provider and carry "user_id" and
// "username" claims. Requests without a token continue anonymously; a token
// that fails verification is rejected.
// Checks Authorization header first, then falls back to the access_token cookie.
func Authenticate(jwtSecret string, store IdentityStore, logger *zap.Logger) func(http.Handler) http.Handler {
	logger = logger.Named("auth")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := bearerToken(r)
			if tokenString == "" {
				next.ServeHTTP(w, r)
				return
			}

			identity, err := parseIdentity(tokenString, jwtSecret)
			if err != nil {
				if errors.Is(err, jwt.ErrTokenExpired) {
					httputil.WriteError(w, http.StatusUnauthorized, CodeTokenExpired, "Access token has expired")
					return
				}
				httputil.WriteError(w, http.StatusUnauthorized, CodeTokenInvalid, "Invalid authentication token")
				return
			}

			if _, err := store.Ensure(r.Context(), identity); err != nil {
				logger.Error("failed to mirror identity", zap.Int64("user_id", identity.ID), zap.Error(err))
				httputil.WriteInternalError(w, "Failed to resolve identity")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// RequireIdentity stops anonymous requests. With a login URL configured they
// are redirected there with the original path in "next"; otherwise they get 401.
func RequireIdentity(loginURL string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if IdentityFromContext(r.Context()) != nil {
				next.ServeHTTP(w, r)
				return
			}
			if loginURL == "" {
				httputil.WriteUnauthorized(w, "Authentication required")
				return
			}
			httputil.Redirect(w, r, LoginRedirect(loginURL, r.URL.RequestURI()))
		})
	}
}

// LoginRedirect appends next=<path> to loginURL, keeping any query it already has.
func LoginRedirect(loginURL, path string) string {
	u, err := url.Parse(loginURL)
	if err != nil {
		return loginURL
	}
	q := u.Query()
	q.Set("next", path)
	u.RawQuery = q.Encode()
	return u.String()
}

// IdentityFromContext returns the requesting identity, or nil for anonymous requests.
func IdentityFromContext(ctx context.Context) *model.Identity {
	identity, _ := ctx.Value(IdentityKey).(*model.Identity)
	return identity
}

// WithIdentity returns a copy of ctx carrying identity.
func WithIdentity(ctx context.Context, identity *model.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, identity)
}

func bearerToken(r *http.Request) string {
	// Expected format: "Bearer <token>"
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}

	if cookie, err := r.Cookie("access_token"); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return ""
}

func parseIdentity(tokenString, jwtSecret string) (*model.Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}

	userIDFloat, ok := claims["user_id"].(float64)
	if !ok || userIDFloat < 1 {
		return nil, jwt.ErrTokenInvalidClaims
	}
	username, ok := claims["username"].(string)
	if !ok || strings.TrimSpace(username) == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}

	return &model.Identity{ID: int64(userIDFloat), Username: strings.TrimSpace(username)}, nil
}
