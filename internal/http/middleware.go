package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/fjod/storefront/internal/app"
	"github.com/fjod/storefront/pkg/logger"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	stateKey
)

const (
	sessionName  = "storefront"
	sessionIDKey = "sid"
)

// RequestIDMiddleware adds a unique request ID to each request
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func getRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// SessionMiddleware resolves the session cookie to the session's state,
// issuing a fresh session id on first contact.
func SessionMiddleware(store sessions.Store, registry *app.Registry, log *zap.Logger) func(http.Handler) http.Handler {
	log = logger.OrNop(log)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := store.Get(r, sessionName)
			if err != nil {
				// tampered or rotated key, start over
				log.Info("discarding unreadable session cookie", zap.Error(err), zap.String("request_id", getRequestID(r.Context())))
			}

			id, _ := sess.Values[sessionIDKey].(string)
			if id == "" {
				id = uuid.NewString()
				sess.Values[sessionIDKey] = id
				if err := sess.Save(r, w); err != nil {
					log.Error("failed to save session", zap.Error(err))
					respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
					return
				}
			}

			state := registry.Get(r.Context(), id)
			ctx := context.WithValue(r.Context(), stateKey, state)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

const adminRole = "admin"

// AdminMiddleware admits requests with an HS256 bearer token signed with
// secret and carrying role "admin". An empty secret closes the routes.
func AdminMiddleware(secret []byte, log *zap.Logger) func(http.Handler) http.Handler {
	log = logger.OrNop(log)
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	keyFunc := func(*jwt.Token) (any, error) { return secret, nil }

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || raw == "" || len(secret) == 0 {
				respondError(w, http.StatusUnauthorized, "unauthenticated", "admin token required")
				return
			}

			claims := jwt.MapClaims{}
			if _, err := parser.ParseWithClaims(raw, claims, keyFunc); err != nil {
				log.Info("rejected admin token", zap.Error(err), zap.String("request_id", getRequestID(r.Context())))
				respondError(w, http.StatusUnauthorized, "unauthenticated", "invalid or expired token")
				return
			}
			if role, _ := claims["role"].(string); role != adminRole {
				respondError(w, http.StatusForbidden, "forbidden", "admin role required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// NewCookieStore builds the signed cookie store for session ids.
func NewCookieStore(key []byte, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore(key)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   30 * 24 * 3600,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

func getState(ctx context.Context) *app.State {
	s, _ := ctx.Value(stateKey).(*app.State)
	return s
}
