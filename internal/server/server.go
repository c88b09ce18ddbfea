// Package server exposes the session controller to the presentation layer
// over a small HTTP + SSE surface.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/promptdeck/promptdeck/internal/identity"
	"github.com/promptdeck/promptdeck/internal/parser"
	"github.com/promptdeck/promptdeck/internal/prefs"
	"github.com/promptdeck/promptdeck/internal/session"
	"github.com/promptdeck/promptdeck/internal/store"
)

// Server wires the HTTP surface. All state lives in the collaborators.
type Server struct {
	ctrl        *session.Controller
	provider    *identity.TokenProvider
	verifier    *identity.Verifier // nil disables token auth (local mode)
	prefs       *prefs.Store
	broadcaster *broadcaster
	router      chi.Router
	unsubscribe func()
}

// New creates a Server and subscribes it to controller change events.
func New(ctrl *session.Controller, provider *identity.TokenProvider, verifier *identity.Verifier, prefStore *prefs.Store) *Server {
	s := &Server{
		ctrl:        ctrl,
		provider:    provider,
		verifier:    verifier,
		prefs:       prefStore,
		broadcaster: newBroadcaster(),
	}
	s.unsubscribe = ctrl.Subscribe(s.broadcaster.Broadcast)
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Close detaches the server from the controller's event stream.
func (s *Server) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/session", s.handleSignIn)
		r.Delete("/auth/session", s.handleSignOut)
		r.Get("/auth/session", s.handleWhoAmI)

		r.Get("/session", s.handleSnapshot)
		r.Post("/prompt/next", s.handleNext)
		r.Post("/prompt/used", s.handleMarkUsed)
		r.Get("/prompts", s.handleAllPrompts)
		r.Put("/prompts/{index}", s.handleEditPrompt)
		r.Delete("/prompts/{index}", s.handleDeletePrompt)

		r.Get("/lists", s.handleLists)
		r.Post("/lists/builtin/{slug}", s.handleSwitchBuiltIn)
		r.Post("/lists/{id}/select", s.handleSwitchList)
		r.Patch("/lists/current", s.handleRenameList)
		r.Delete("/lists/{id}", s.handleDeleteList)
		r.Post("/upload", s.handleUpload)

		r.Get("/events", s.broadcaster.handleSSE)

		r.Get("/prefs/sidebar", s.handleGetSidebar)
		r.Put("/prefs/sidebar", s.handleSetSidebar)
	})

	return r
}

// requestLogger logs each request at debug level.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	})
}

// httpStatus maps engine errors onto HTTP status codes.
func httpStatus(err error) int {
	var authErr *identity.AuthError
	var storeErr *session.StoreError

	switch {
	case errors.As(err, &authErr):
		return http.StatusUnauthorized
	case errors.Is(err, session.ErrNotSignedIn):
		return http.StatusUnauthorized
	case errors.Is(err, session.ErrNotListOwner):
		return http.StatusForbidden
	case errors.Is(err, session.ErrUnknownList),
		errors.Is(err, session.ErrIndexOutOfRange),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrEmptyPromptText),
		errors.Is(err, session.ErrEmptyListName):
		return http.StatusBadRequest
	case errors.Is(err, parser.ErrNoPrompts):
		return http.StatusUnprocessableEntity
	case errors.Is(err, session.ErrNoListLoaded),
		errors.Is(err, session.ErrNotPersisted):
		return http.StatusConflict
	case errors.As(err, &storeErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
