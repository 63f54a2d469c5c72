package httpx

import (
	"context"
	"net/http"
	"strings"
)

// ActorHeader carries the authenticated user id set by the edge gateway.
// Token validation happens upstream; services only read the resolved id.
const ActorHeader = "X-User-Id"

func ActorFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyActorID).(string)
	return v
}

func ContextWithActor(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, ctxKeyActorID, actorID)
}

// WithActor copies the actor header into the request context.
func WithActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := strings.TrimSpace(r.Header.Get(ActorHeader)); id != "" {
			r = r.WithContext(ContextWithActor(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireActor rejects requests that carry no actor.
func RequireActor(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ActorFromContext(r.Context()) == "" {
			http.Error(w, "missing "+ActorHeader, http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}
