package middleware

import (
	"context"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
)

type Middleware struct {
	AuthClient *auth.Client
}

func NewMiddleware(client *auth.Client) *Middleware {
	return &Middleware{AuthClient: client}
}

type contextKey string

const (
	UIDKey   contextKey = "uid"
	EmailKey contextKey = "email"
)

// FirebaseAuth verifies the bearer ID token and puts the UID in context.
func (m *Middleware) FirebaseAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			http.Error(w, "missing Authorization header", http.StatusUnauthorized)
			return
		}

		parts := strings.Fields(header)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			http.Error(w, "invalid Authorization header", http.StatusUnauthorized)
			return
		}

		token, err := m.AuthClient.VerifyIDToken(r.Context(), parts[1])
		if err != nil {
			http.Error(w, "invalid or expired token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), UIDKey, token.UID)
		if email, ok := token.Claims["email"].(string); ok {
			ctx = context.WithValue(ctx, EmailKey, email)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UID extracts the authenticated user id from context.
func UID(ctx context.Context) string {
	uid, _ := ctx.Value(UIDKey).(string)
	return uid
}

// Email extracts the authenticated user's email claim, empty when the token
// carried none.
func Email(ctx context.Context) string {
	email, _ := ctx.Value(EmailKey).(string)
	return email
}
