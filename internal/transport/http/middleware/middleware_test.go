package httpmw

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

type stubVerifier struct {
	sub string
	err error
}

func (s stubVerifier) VerifySubject(string) (string, error) { return s.sub, s.err }

func serve(mw func(http.Handler) http.Handler, req *http.Request) (*httptest.ResponseRecorder, string) {
	var got string
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = UserIDFromCtx(r.Context())
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec, got
}

func TestAuthMiddleware_TrustedHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer t")
	req.Header.Set(HeaderUserID, "u1")

	rec, got := serve(AuthMiddleware(nil), req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", got)
}

func TestAuthMiddleware_QueryFallback(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ws?access_token=t&user_id=u7", nil)

	rec, got := serve(AuthMiddleware(nil), req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u7", got)
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	rec, _ := serve(AuthMiddleware(nil), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer t")
	rec, _ = serve(AuthMiddleware(nil), req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = serve(AuthMiddleware(stubVerifier{err: errors.New("bad")}), req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"bad"}`, rec.Body.String())
}

func TestAuthMiddleware_VerifierSubjectWins(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer t")
	req.Header.Set(HeaderUserID, "spoofed")

	rec, got := serve(AuthMiddleware(stubVerifier{sub: "real"}), req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "real", got)
}

type touchRecorder struct{ room, user string }

func (t *touchRecorder) TouchHeartbeat(_ context.Context, roomID, userID string) error {
	t.room, t.user = roomID, userID
	return errors.New("no session")
}

func TestHeartbeatMiddleware(t *testing.T) {
	tr := &touchRecorder{}
	r := chi.NewRouter()
	r.With(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), "u1")))
		})
	}, HeartbeatMiddleware(tr)).Get("/rooms/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rooms/r1", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "r1", tr.room)
	assert.Equal(t, "u1", tr.user)
}
