package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/lifelink-dev/lifelink/internal/token"
	"github.com/lifelink-dev/lifelink/pkg/models"
)

// authCookieName is the cookie carrying the signed session token.
const authCookieName = "authToken"

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// ClaimsContextKey stores the verified token claims in request context.
	ClaimsContextKey contextKey = "claims"
)

// AuthMiddleware requires a valid auth cookie. On failure it responds 401
// and clears the cookie.
func AuthMiddleware(tokens *token.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(authCookieName)
			if err != nil || cookie.Value == "" {
				respondError(w, http.StatusUnauthorized, "Authentication required")
				return
			}

			claims, err := tokens.Validate(cookie.Value)
			if err != nil {
				log.Printf("Token validation error: %v", err)
				clearAuthCookie(w, false)
				respondError(w, http.StatusUnauthorized, "Invalid or expired session")
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireActor restricts a route to one account type. MUST be used after
// AuthMiddleware so the claims are already in context.
func RequireActor(actor models.ActorType) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetClaimsFromContext(r.Context())
			if !ok || claims.Actor != actor {
				respondError(w, http.StatusForbidden, "Forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetClaimsFromContext extracts the verified token claims from request
// context.
func GetClaimsFromContext(ctx context.Context) (*token.Claims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*token.Claims)
	return claims, ok
}

func clearAuthCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}
