package middleware

import (
	"context"
	"net/http"
)

const (
	// GuestIDKey is the context key for the guest id.
	GuestIDKey ContextKey = "guest_id"

	// GuestIDHeader carries the opaque guest identifier the browser holds.
	GuestIDHeader = "X-Guest-ID"
)

// GuestID extracts and validates the guest identifier header. The guest
// surface has no accounts; the header scopes storage keys per browser.
func GuestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		guestID := r.Header.Get(GuestIDHeader)
		if err := ValidateGuestID(guestID); err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
			return
		}

		ctx := context.WithValue(r.Context(), GuestIDKey, guestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetGuestID gets the guest id from context.
func GetGuestID(ctx context.Context) string {
	if v := ctx.Value(GuestIDKey); v != nil {
		return v.(string)
	}
	return ""
}
