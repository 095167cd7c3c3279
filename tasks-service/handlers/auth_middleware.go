package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/chepyr/tasks-api/shared"
	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const userIDKey contextKey = "user_id"

// UserIDHeader carries the caller id when bearer tokens are not enabled.
const UserIDHeader = "x-user-id"

func UserIDFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(userIDKey).(string)
	return userID
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

/*
Resolve the caller id and add it to the request context.
With a JWT secret configured only HS256 bearer tokens are accepted and the "sub"
claim is the caller id; otherwise the x-user-id header is trusted as is.
*/
func (h *Handler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var userID string
		if h.JWTSecret != "" {
			sub, ok := h.subjectFromBearer(w, r)
			if !ok {
				return
			}
			userID = sub
		} else {
			userID = strings.TrimSpace(r.Header.Get(UserIDHeader))
			if userID == "" {
				shared.SendError(w, shared.CodeUnauthorized,
					"Authentication required. Please provide x-user-id header.", http.StatusUnauthorized)
				return
			}
		}
		next(w, r.WithContext(WithUserID(r.Context(), userID)))
	}
}

func (h *Handler) subjectFromBearer(w http.ResponseWriter, r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		shared.SendError(w, shared.CodeUnauthorized, "Missing Authorization header", http.StatusUnauthorized)
		return "", false
	}
	tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
	if !found {
		shared.SendError(w, shared.CodeUnauthorized, "Authorization header must use the Bearer scheme", http.StatusUnauthorized)
		return "", false
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		return []byte(h.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		shared.SendError(w, shared.CodeUnauthorized, "Invalid token", http.StatusUnauthorized)
		return "", false
	}
	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		shared.SendError(w, shared.CodeUnauthorized, "Invalid token claims", http.StatusUnauthorized)
		return "", false
	}
	return sub, true
}
