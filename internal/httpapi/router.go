package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"cippe-prep/internal/logging"
)

// Options tune the HTTP surface. CORSOrigins is the browser origins allowed
// to drive the session; empty disables CORS entirely (same-origin only).
type Options struct {
	CORSOrigins []string
}

func NewRouter(api *API, opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer)
	r.Use(requestLogger(api.log))

	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Get("/state", api.HandleState)
	r.Get("/stats", api.HandleStats)

	r.Post("/practice", api.HandleStartPractice)
	r.Post("/exam", api.HandleStartExam)
	r.Post("/review", api.HandleStartReview)
	r.Post("/home", api.HandleGoHome)

	r.Post("/select", api.HandleSelect)
	r.Post("/confirm", api.HandleConfirm)
	r.Post("/next", api.HandleNext)
	r.Post("/prev", api.HandlePrev)
	r.Post("/jump", api.HandleJump)

	r.Post("/answer", api.HandleAnswer)
	r.Post("/submit", api.HandleSubmit)

	r.Get("/notes/{question_id}", api.HandleGetNote)
	r.Put("/notes/{question_id}", api.HandleSetNote)

	return r
}

func requestLogger(log *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start).String(),
			)
		})
	}
}
