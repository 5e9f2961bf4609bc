package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rocketscienceinc/tictactoe-coordinator/internal/config"
	"github.com/rocketscienceinc/tictactoe-coordinator/internal/metrics"
	"github.com/rocketscienceinc/tictactoe-coordinator/internal/repository"
	"github.com/rocketscienceinc/tictactoe-coordinator/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-coordinator/internal/session"
	"github.com/rocketscienceinc/tictactoe-coordinator/transport/rest"
	"github.com/rocketscienceinc/tictactoe-coordinator/transport/websocket"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(registry)

	results, closeResults, err := newResultRepository(ctx, log, conf)
	if err != nil {
		return err
	}
	defer closeResults()

	wsServer := websocket.New(logger, appMetrics, websocket.Options{
		SendBuffer:     conf.Socket.SendBuffer,
		ReadLimit:      conf.Socket.ReadLimit,
		AllowedOrigins: conf.Socket.AllowedOrigins,
	})

	controller := session.NewController(logger, wsServer, appMetrics, results, session.Options{
		ResetDelay:        conf.Match.ResetDelay,
		CountdownInterval: conf.Match.CountdownInterval,
		ChatLimit:         conf.Match.ChatLimit,
	})
	defer controller.Close()

	handlers := rest.NewHandlers(logger, results, controller)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := rest.Start(ctx, conf.HTTPPort, rest.Router(logger, handlers, registry)); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run Websocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		if wsErr := wsServer.Start(ctx, conf.SocketPort, controller); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}

// newResultRepository picks redis when enabled and falls back to memory.
func newResultRepository(ctx context.Context, log *slog.Logger, conf *config.Config) (repository.ResultRepository, func(), error) {
	if !conf.Redis.Enabled {
		log.Info("Redis disabled, match results kept in memory")
		return repository.NewMemoryResultRepository(), func() {}, nil
	}

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return nil, nil, ErrAddrNotFound
	}

	redisStorage, err := storage.NewRedisStorage(ctx, redisAddrString)
	if err != nil {
		return nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
	}

	closeFn := func() {
		if err = redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}

	return repository.NewResultRepository(redisStorage.Connection), closeFn, nil
}
