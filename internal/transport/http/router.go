package http

import (
	"net/http"
	"time"

	"github.com/cwrk-planet/trome-service/internal/service"
	httpmw "github.com/cwrk-planet/trome-service/internal/transport/http/middleware"
	"github.com/cwrk-planet/trome-service/internal/transport/ws"
	"github.com/cwrk-planet/trome-service/pkg/httputil"

	"github.com/go-chi/chi/v5"
	middlewareChi "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type RouterDeps struct {
	Handler  *Handler
	Members  *service.MemberService
	WS       *ws.Server
	Verifier httpmw.SubjectVerifier // nil: доверяем X-User-ID

	CORSOrigins    []string
	RequestTimeout time.Duration
}

func NewRouter(d RouterDeps) http.Handler {
	h := d.Handler
	timeout := d.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middlewareChi.RealIP)
	r.Use(middlewareChi.Recoverer)
	r.Use(httputil.MiddlewareRequestID)
	r.Use(httputil.MiddlewareLogging)

	if len(d.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   d.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", httputil.HeaderRequestID, httpmw.HeaderUserID},
			ExposedHeaders:   []string{httputil.HeaderRequestID},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// health
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Group(func(pr chi.Router) {
		pr.Use(httpmw.AuthMiddleware(d.Verifier))

		// WS без таймаута запроса
		if d.WS != nil {
			pr.Get("/ws/rooms/{id}", d.WS.HandleWS)
		}

		pr.Group(func(api chi.Router) {
			api.Use(middlewareChi.Timeout(timeout))

			api.Route("/rooms", func(rm chi.Router) {
				rm.Post("/", h.CreateRoom)
				rm.Get("/", h.ListRooms)
				rm.Get("/search", h.SearchRooms)

				rm.Route("/{id}", func(rr chi.Router) {
					rr.Use(httpmw.HeartbeatMiddleware(d.Members))

					rr.Get("/", h.GetRoom)
					rr.Post("/join", h.JoinRoom)
					rr.Post("/leave", h.LeaveRoom)
					rr.Post("/speak-request", h.RequestToSpeak)
					rr.Get("/membership", h.Membership)
				})
			})

			api.Route("/users", func(ur chi.Router) {
				ur.Get("/search", h.SearchUsers)
				ur.Put("/me/profile", h.UpdateProfile)
				ur.Get("/{id}/profile", h.GetProfile)
			})
		})
	})

	return otelhttp.NewHandler(r, "trome-http",
		otelhttp.WithFilter(func(r *http.Request) bool { return r.URL.Path != "/healthz" }))
}
