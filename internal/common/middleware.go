package common

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

type contextKey string

const (
	ctxUserID   contextKey = "user_id"
	ctxUserType contextKey = "user_type"
)

// AuthMiddleware enforces a bearer token on every request it wraps and
// injects the authenticated principal into the request context.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := ClaimsFromRequest(r)
		if err != nil {
			WriteError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), ctxUserID, claims.UserID)
		ctx = context.WithValue(ctx, ctxUserType, claims.UserType)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClaimsFromRequest extracts and validates the bearer credential. A `token`
// query parameter is accepted as a fallback for the websocket handshake,
// where setting headers is not always possible from browsers.
func ClaimsFromRequest(r *http.Request) (*Claims, error) {
	tokenString := ""
	if auth := r.Header.Get("Authorization"); auth != "" {
		parts := strings.Fields(auth)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return nil, &AuthenticationError{Reason: "invalid authorization header"}
		}
		tokenString = parts[1]
	} else {
		tokenString = r.URL.Query().Get("token")
	}

	if tokenString == "" {
		return nil, &AuthenticationError{Reason: "missing credentials"}
	}
	return ValidToken(tokenString)
}

// UserIDFromContext returns the authenticated principal's ID, or "" when the
// request did not pass through AuthMiddleware.
func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxUserID).(string)
	return id
}

func UserTypeFromContext(ctx context.Context) UserType {
	t, _ := ctx.Value(ctxUserType).(UserType)
	return t
}

func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// WriteError answers with the taxonomy-mapped status and a {"message": ...}
// body. Internal errors are not echoed to the client.
func WriteError(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "Server error"
	}
	WriteJSON(w, status, map[string]string{"message": message})
}
