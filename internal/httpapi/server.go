// Package httpapi exposes the journal's session and task operations as a
// JSON HTTP API with a Server-Sent-Events stream for live task
// subscriptions.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/spiralapp/journal/internal/logging"
)

// NewRouter assembles the route tree. Public routes are limited per
// remote host; authenticated routes per profile.
func NewRouter(h *Handlers, secretKey []byte, log logging.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(observe(log, h.metrics))

	limiter := newRateLimiter(rate.Limit(2), 120)
	r.Use(limiter.middleware)

	r.Handle("/metrics", h.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/signup", h.signUp)
		r.Post("/signin", h.signIn)
		r.Get("/forgot-email", h.forgotEmail)
		r.Get("/theme", h.getTheme)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth(secretKey))

			r.Post("/signout", h.signOut)
			r.Delete("/account", h.deleteAccount)
			r.Post("/account/export", h.exportJournal)
			r.Patch("/account/username", h.updateUserName)
			r.Patch("/account/fullname", h.updateFullName)
			r.Patch("/account/email", h.updateEmail)
			r.Patch("/account/password", h.updatePassword)

			r.Get("/dates", h.listDates)
			r.Post("/tasks/clear", h.clearAll)
			r.Get("/tasks/{date}", h.listTasks)
			r.Post("/tasks/{date}", h.addTask)
			r.Delete("/tasks/{date}", h.deleteMatching)
			r.Delete("/tasks/{date}/{entryID}", h.deleteTask)
			r.Get("/tasks/{date}/stream", h.streamTasks)
		})
	})

	return r
}

// Server runs the HTTP API with graceful shutdown.
type Server struct {
	srv *http.Server
	log logging.Logger
}

func NewServer(addr string, handler http.Handler, log logging.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log,
	}
}

// Run serves until ctx is cancelled, then shuts down draining in-flight
// requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.log.Info(ctx, "http server listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.srv.Shutdown(shutdownCtx)
}
