// Package api exposes the reconciliation service over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fgeck/panelsync/internal/models"
	"github.com/fgeck/panelsync/internal/services/reconcile"
	"github.com/fgeck/panelsync/internal/services/servers"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Server routes requests to a reconcile.Service built for the addressed panel.
type Server struct {
	logger   zerolog.Logger
	store    servers.Store
	factory  reconcile.Factory
	notifier Notifier
}

// Notifier is told about reconciliations an operator should review.
type Notifier interface {
	Notify(ctx context.Context, alert models.Alert) <-chan struct{}
}

// New creates an API server.
func New(logger zerolog.Logger, store servers.Store, factory reconcile.Factory) *Server {
	return &Server{
		logger:  logger,
		store:   store,
		factory: factory,
	}
}

// WithNotifier enables alerts for warnings and server-side failures.
func (s *Server) WithNotifier(n Notifier) *Server {
	s.notifier = n
	return s
}

// Routes builds the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/servers", s.handleListServers)

		r.Route("/servers/{serverID}", func(r chi.Router) {
			r.Route("/packages", func(r chi.Router) {
				r.Get("/", s.withService(s.handleListPackages))
				r.Post("/", s.withService(s.handleCreatePackage))
				r.Get("/{name}", s.withService(s.handleGetPackage))
				r.Put("/{name}", s.withService(s.handleUpdatePackage))
				r.Delete("/{name}", s.withService(s.handleDeletePackage))
			})

			r.Route("/users", func(r chi.Router) {
				r.Get("/", s.withService(s.handleListUsers))
				r.Post("/", s.withService(s.handleCreateUser))
				r.Get("/{username}", s.withService(s.handleGetUser))
				r.Put("/{username}", s.withService(s.handleUpdateUser))
				r.Post("/{username}/suspend", s.withService(s.handleSuspendUser))
				r.Post("/{username}/unsuspend", s.withService(s.handleUnsuspendUser))
				r.Delete("/{username}", s.withService(s.handleDeleteUser))
			})

			r.Route("/domains/{domain}/email", func(r chi.Router) {
				r.Get("/", s.withService(s.handleListEmail))
				r.Post("/", s.withService(s.handleCreateEmail))
				r.Put("/{user}/password", s.withService(s.handleUpdateEmailPassword))
				r.Delete("/{user}", s.withService(s.handleDeleteEmail))
			})
		})
	})

	return r
}

// ListenAndServe runs the API until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("API listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info().Msg("shutting down API")
		return srv.Shutdown(shutdownCtx)
	}
}

type serviceHandler func(w http.ResponseWriter, r *http.Request, svc reconcile.Service)

// withService resolves {serverID} and builds a service bound to that panel.
func (s *Server) withService(h serviceHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cred, err := s.store.Get(r.Context(), chi.URLParam(r, "serverID"))
		if err != nil {
			respondError(w, err)
			return
		}
		h(w, r, s.factory(*cred))
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

type serverView struct {
	ID       string `json:"id"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	UseSSL   bool   `json:"use_ssl"`
}

func viewOf(c models.ServerCredential) serverView {
	return serverView{ID: c.ID, Host: c.Host, Port: c.Port, Username: c.Username, UseSSL: c.UseSSL}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, Envelope{
		Success: true,
		Status:  statusSuccess,
		Data:    map[string]int64{"timestamp": time.Now().Unix()},
	})
}

func (s *Server) handleListServers(w http.ResponseWriter, r *http.Request) {
	creds, err := s.store.List(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	views := make([]serverView, 0, len(creds))
	for _, c := range creds {
		views = append(views, viewOf(c))
	}
	respondData(w, views)
}

// finish alerts on outcomes that need review and writes the response.
func (s *Server) finish(w http.ResponseWriter, r *http.Request, op string, out models.Outcome) {
	if s.notifier != nil && needsReview(out) {
		s.notifier.Notify(r.Context(), models.Alert{
			ServerID:  chi.URLParam(r, "serverID"),
			Operation: op,
			Outcome:   out,
			Time:      time.Now(),
		})
	}
	respondOutcome(w, out)
}

func needsReview(out models.Outcome) bool {
	if out.Warning() {
		return true
	}
	return out.Status == models.OutcomeFailure && (out.Err == nil || httpStatus(out.Err) >= http.StatusInternalServerError)
}
