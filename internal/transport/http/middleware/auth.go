package httpmw

import (
	"context"
	"net/http"
	"strings"

	"github.com/cwrk-planet/trome-service/pkg/httputil"
)

type ctxKey string

const (
	ctxKeyToken  ctxKey = "token"
	ctxKeyUserID ctxKey = "user_id"

	HeaderUserID = "X-User-ID"
)

// SubjectVerifier проверяет токен и возвращает id пользователя.
type SubjectVerifier interface {
	VerifySubject(token string) (string, error)
}

// AuthMiddleware требует Bearer-токен. Если verifier задан, id пользователя
// берется из sub токена; иначе доверяем X-User-ID от gateway.
// Браузерный WebSocket не умеет заголовки, поэтому для него есть
// query-параметры access_token и user_id.
func AuthMiddleware(verifier SubjectVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearer(r)
			if !ok {
				httputil.Error(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			var userID string
			if verifier != nil {
				sub, err := verifier.VerifySubject(token)
				if err != nil {
					httputil.Error(w, http.StatusUnauthorized, err.Error())
					return
				}
				userID = sub
			} else {
				userID = strings.TrimSpace(r.Header.Get(HeaderUserID))
				if userID == "" {
					userID = strings.TrimSpace(r.URL.Query().Get("user_id"))
				}
				if userID == "" {
					httputil.Error(w, http.StatusUnauthorized, "missing X-User-ID")
					return
				}
			}

			ctx := context.WithValue(r.Context(), ctxKeyToken, token)
			ctx = WithUserID(ctx, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearer(r *http.Request) (string, bool) {
	authz := r.Header.Get("Authorization")
	parts := strings.SplitN(authz, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") && strings.TrimSpace(parts[1]) != "" {
		return strings.TrimSpace(parts[1]), true
	}
	if tok := strings.TrimSpace(r.URL.Query().Get("access_token")); tok != "" {
		return tok, true
	}
	return "", false
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKeyUserID, userID)
}

func UserIDFromCtx(ctx context.Context) string {
	if id, ok := ctx.Value(ctxKeyUserID).(string); ok {
		return id
	}
	return ""
}
