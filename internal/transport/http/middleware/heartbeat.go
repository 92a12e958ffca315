package httpmw

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// HeartbeatToucher обновляет last seen сессии {roomID, userID}.
type HeartbeatToucher interface {
	TouchHeartbeat(ctx context.Context, roomID, userID string) error
}

// HeartbeatMiddleware вешается на маршруты с {id} комнаты.
func HeartbeatMiddleware(members HeartbeatToucher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID := UserIDFromCtx(r.Context()); userID != "" {
				if roomID := chi.URLParam(r, "id"); roomID != "" {
					// best-effort, отсутствие сессии не ошибка запроса
					_ = members.TouchHeartbeat(r.Context(), roomID, userID)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
