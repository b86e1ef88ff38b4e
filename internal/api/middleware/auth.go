package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/foliofyhq/foliofy/internal/pkg/errors"
	"github.com/foliofyhq/foliofy/internal/pkg/metrics"
	"github.com/foliofyhq/foliofy/internal/pkg/utils"
	"github.com/foliofyhq/foliofy/internal/token"
)

// ContextKey is a custom type for context keys
type ContextKey string

const (
	// UserIDKey is the context key for user ID
	UserIDKey ContextKey = "userID"
	// UserEmailKey is the context key for user email
	UserEmailKey ContextKey = "email"
)

// extractToken pulls the access token from the Authorization header or,
// failing that, the accessToken cookie set by the browser login flow. A
// malformed header also falls through to the cookie, so a stale header does
// not break an otherwise valid browser session.
func extractToken(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
	}
	if cookie, err := r.Cookie("accessToken"); err == nil {
		return cookie.Value
	}
	return ""
}

// Auth returns a middleware that validates access tokens and rejects
// the request when none is presented or verification fails. An expired token
// gets a distinct message so clients know to run the refresh flow rather than
// re-authenticate.
func Auth(tokens *token.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := extractToken(r)
			if tokenStr == "" {
				utils.WriteError(w, errors.Unauthorized("Missing authentication token"))
				return
			}

			claims, err := tokens.VerifyAccess(tokenStr)
			if err != nil {
				metrics.RecordTokenVerifyFailure(string(token.KindAccess), verifyFailureReason(err))
				if err == token.ErrExpired {
					utils.WriteError(w, errors.Unauthorized("Access token expired"))
					return
				}
				utils.WriteError(w, errors.Unauthorized("Invalid authentication token"))
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
			ctx = context.WithValue(ctx, UserEmailKey, claims.Email)

			AddLogField(r, "user_id", claims.UserID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func verifyFailureReason(err error) string {
	switch err {
	case token.ErrExpired:
		return "expired"
	case token.ErrInvalidSignature:
		return "signature"
	case token.ErrMissingSecret:
		return "missing_secret"
	default:
		return "malformed"
	}
}

// GetUserID extracts the user ID from the request context
func GetUserID(r *http.Request) (string, bool) {
	userID, ok := r.Context().Value(UserIDKey).(string)
	return userID, ok
}

// GetUserEmail extracts the user email from the request context
func GetUserEmail(r *http.Request) (string, bool) {
	email, ok := r.Context().Value(UserEmailKey).(string)
	return email, ok
}
