package gateway

import (
	"context"
	"crypto/hmac"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/emberworks/content-sync/pkg/audit"
	"github.com/emberworks/content-sync/pkg/common/logger"
	"github.com/emberworks/content-sync/pkg/identity"
	"github.com/google/uuid"
)

type contextKey string

const actorContextKey contextKey = "actor"

const cronSecretHeader = "X-Cron-Secret"

func WithActor(ctx context.Context, actor audit.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey, actor)
}

func ActorFromContext(ctx context.Context) (audit.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey).(audit.Actor)
	return actor, ok
}

func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.New().String()
		}
		r.Header.Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r)

		logger.Log.WithFields(map[string]interface{}{
			"method":      r.Method,
			"path":        r.URL.Path,
			"remote_addr": r.RemoteAddr,
			"request_id":  reqID,
			"duration":    time.Since(start).Milliseconds(),
		}).Info("HTTP request")
	})
}

func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				logger.Log.WithField("error", err).Error("Panic recovered")
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// CORS consults an exact-match origin allow-list. Allowed origins are echoed
// back, never a wildcard. Preflights from unlisted origins are rejected with
// 403 on the preflight itself.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if origin != "" && !allowed[origin] {
				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusForbidden)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			if origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Cron-Secret, X-Request-ID")
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// TokenValidator proves a bearer token is structurally valid and unexpired.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*identity.Claims, error)
}

// Gate authorizes a request through either of two independent paths: a bearer
// token resolving to an active admin, or the shared automation secret. Failing
// both yields one generic 403 that does not reveal which path was closer to
// passing.
type Gate struct {
	Tokens     TokenValidator
	Admins     identity.Finder
	CronSecret string
}

func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if actor, ok := g.resolveBearer(r); ok {
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
			return
		}
		if g.resolveCronSecret(r) {
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), audit.AutomationActor())))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"error":   "forbidden",
		})
	})
}

func (g *Gate) resolveBearer(r *http.Request) (audit.Actor, bool) {
	if g.Tokens == nil || g.Admins == nil {
		return audit.Actor{}, false
	}
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" || !strings.HasPrefix(raw, "Bearer ") {
		return audit.Actor{}, false
	}

	claims, err := g.Tokens.ValidateToken(r.Context(), strings.TrimPrefix(raw, "Bearer "))
	if err != nil {
		return audit.Actor{}, false
	}

	// A structurally valid token is not enough: the subject must still be an
	// active admin according to the identity collaborator.
	admin, err := g.Admins.FindByEmail(r.Context(), claims.Email)
	if err != nil || !admin.IsActive {
		return audit.Actor{}, false
	}

	return audit.Actor{
		UserID:    admin.ID.String(),
		Email:     admin.Email,
		IPAddress: r.RemoteAddr,
		UserAgent: r.UserAgent(),
	}, true
}

func (g *Gate) resolveCronSecret(r *http.Request) bool {
	// An unset server secret closes this path entirely; never accept by
	// default.
	if g.CronSecret == "" {
		return false
	}
	supplied := r.Header.Get(cronSecretHeader)
	if supplied == "" {
		return false
	}
	return hmac.Equal([]byte(supplied), []byte(g.CronSecret))
}
