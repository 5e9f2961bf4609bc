package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router - builds the ops routes.
func Router(logger *slog.Logger, handlers Handlers, gatherer prometheus.Gatherer) http.Handler {
	log := logger.With("component", "rest")

	router := httprouter.New()
	router.GET("/ping", handlers.PingHandler)
	router.GET("/scoreboard", handlers.ScoreboardHandler)
	router.GET("/state", handlers.StateHandler)
	router.Handler(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	router.PanicHandler = func(w http.ResponseWriter, r *http.Request, v any) {
		log.Error("recovered from panic", "path", r.URL.Path, "panic", v)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}

	return router
}

// Start - starts the ops HTTP server until ctx is done.
func Start(ctx context.Context, port string, handler http.Handler) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
