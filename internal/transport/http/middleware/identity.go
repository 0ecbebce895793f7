package middleware

import (
	"context"
	"log"
	"net/http"

	"postservice/internal/httputil"
	"postservice/internal/model"
)

// ProfileIDKey is the context key for the acting user's profile ID
const ProfileIDKey contextKey = "profile_id"

// AccountProvisioner creates the user and profile rows of an identity on
// first sight. *service.UserService implements it.
type AccountProvisioner interface {
	EnsureAccount(ctx context.Context, userID int64, username string) (*model.Profile, error)
}

// IdentityMiddleware provisions the authenticated user's account and puts
// the acting profile ID in the context. It must run after AuthMiddleware.
func IdentityMiddleware(accounts AccountProvisioner) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := GetUserIDFromContext(r.Context())
			if !ok {
				httputil.WriteUnauthorized(w, "Authentication required")
				return
			}

			profile, err := accounts.EnsureAccount(r.Context(), userID, GetUsernameFromContext(r.Context()))
			if err != nil {
				log.Printf("[ERROR] IdentityMiddleware: user=%d err=%v", userID, err)
				httputil.WriteInternalError(w, "Failed to load account")
				return
			}

			ctx := context.WithValue(r.Context(), ProfileIDKey, profile.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetProfileIDFromContext extracts the acting profile ID set by
// IdentityMiddleware.
func GetProfileIDFromContext(ctx context.Context) (int64, bool) {
	profileID, ok := ctx.Value(ProfileIDKey).(int64)
	return profileID, ok
}
