package api

import (
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/message-drop-be/internal/api/handlers"
	"github.com/isdelr/message-drop-be/internal/auth"
	"github.com/isdelr/message-drop-be/internal/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
)

// Dependencies are the process-scoped components the router serves.
type Dependencies struct {
	Issuer         *auth.Issuer
	AllowedOrigins []string
	DB             handlers.Pinger
	Users          services.UserServiceProvider
	Drops          services.DropServiceProvider
	Messages       services.MessageServiceProvider
	Views          services.ViewServiceProvider
	Unlock         services.UnlockServiceProvider
}

// NewRouter creates and configures a new Chi router.
func NewRouter(deps Dependencies) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(log.Logger))
	r.Use(requestIDLogger)
	r.Use(hlog.AccessHandler(accessLog))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(corsOptions(deps.AllowedOrigins)))
	r.Use(answerOptions)

	r.NotFound(handlers.NotFound)
	r.MethodNotAllowed(handlers.MethodNotAllowed)

	userHandler := handlers.NewUserHandler(deps.Users, deps.Issuer)
	dropHandler := handlers.NewDropHandler(deps.Drops, deps.Messages, deps.Views)
	publicHandler := handlers.NewPublicHandler(deps.Drops, deps.Messages, deps.Unlock)
	healthHandler := handlers.NewHealthHandler(deps.DB)

	requireAuth := deps.Issuer.Middleware(handlers.Unauthorized)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.NoCache)

		r.Get("/health", healthHandler.Health)

		r.Post("/register", userHandler.Register)
		r.Post("/login", userHandler.Login)
		r.Post("/logout", userHandler.Logout)
		r.With(requireAuth).Get("/me", userHandler.Me)

		// Sender endpoints
		// Auth is attached per route so unsupported methods still get 405.
		r.Route("/drops", func(r chi.Router) {
			r.With(requireAuth).Post("/", dropHandler.Upsert)
			r.With(requireAuth).Get("/mine", dropHandler.Mine)
			r.With(requireAuth).Post("/messages", dropHandler.AddMessage)
			r.With(requireAuth).Delete("/messages", dropHandler.DeleteMessage)
		})

		// Receiver endpoints
		r.Route("/drop/{username}", func(r chi.Router) {
			r.Get("/", publicHandler.Get)
			r.Get("/autocomplete", publicHandler.Autocomplete)
			r.Post("/check", publicHandler.Check)
		})
	})

	return r
}

// corsOptions allows credentialed requests. Browsers reject a "*" origin on
// credentialed responses, so a wildcard reflects the caller's origin instead.
func corsOptions(origins []string) cors.Options {
	opts := cors.Options{
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if slices.Contains(origins, "*") {
		opts.AllowOriginFunc = func(*http.Request, string) bool { return true }
	} else {
		opts.AllowedOrigins = origins
	}
	return opts
}

// answerOptions replies 200 to any OPTIONS request that the CORS handler did
// not already treat as a preflight.
func answerOptions(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestIDLogger tags the request logger with chi's request id.
func requestIDLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			zerolog.Ctx(r.Context()).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("req_id", id)
			})
		}
		next.ServeHTTP(w, r)
	})
}

func accessLog(r *http.Request, status, size int, duration time.Duration) {
	level := zerolog.InfoLevel
	if status >= http.StatusInternalServerError {
		level = zerolog.ErrorLevel
	}
	hlog.FromRequest(r).WithLevel(level).
		Str("method", r.Method).
		Stringer("url", r.URL).
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Msg("request")
}
