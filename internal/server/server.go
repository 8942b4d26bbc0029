// Package server assembles all HTTP handlers and starts the server.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"

	"github.com/matthewbaird/nightwatch/internal/activity"
	"github.com/matthewbaird/nightwatch/internal/feed"
	"github.com/matthewbaird/nightwatch/internal/handler"
	"github.com/matthewbaird/nightwatch/internal/logging"
	"github.com/matthewbaird/nightwatch/internal/store"
)

// Config holds server configuration.
type Config struct {
	Port           int
	Store          store.Store
	Activity       activity.Store
	Runner         handler.Runner
	Hub            *feed.Hub
	RunTimeout     time.Duration
	AllowedOrigins []string
}

// NewRouter registers every route.
func NewRouter(cfg Config) http.Handler {
	r := chi.NewRouter()
	r.Use(handler.Recovery, handler.Logging)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	nw := handler.NewNightWatchHandler(cfg.Runner, cfg.RunTimeout)
	ah := handler.NewActivityHandler(cfg.Activity, cfg.Store)
	ph := handler.NewPolicyHandler(cfg.Store)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/nightwatch/run", nw.HandleRun)
		if cfg.Hub != nil {
			r.Get("/nightwatch/feed", feed.NewHandler(cfg.Hub, cfg.Store, originPatterns(cfg.AllowedOrigins)).ServeHTTP)
		}

		r.Get("/activity", ah.HandleList)
		r.Get("/activity/pulse", ah.HandlePulse)

		r.Get("/policies", ph.HandleList)
		r.Post("/policies", ph.HandleCreate)
		r.Delete("/policies/{id}", ph.HandleDelete)
	})

	co := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "X-Actor", "X-Source", "X-Correlation-ID"},
		AllowCredentials: true,
	})
	return co.Handler(r)
}

// originPatterns converts CORS origins to websocket origin patterns, which
// match on host only.
func originPatterns(origins []string) []string {
	var out []string
	for _, o := range origins {
		if o == "*" {
			return []string{"*"}
		}
		o = strings.TrimPrefix(strings.TrimPrefix(o, "https://"), "http://")
		out = append(out, o)
	}
	return out
}

// Run starts the HTTP server with all routes registered and shuts it down
// when ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logging.Logger.WithError(err).Warn("server shutdown")
		}
	}()

	logging.Logger.Infof("starting server on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
