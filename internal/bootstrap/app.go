package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/agrosathi/agrosathi/internal/domain/notification"
	"github.com/agrosathi/agrosathi/internal/infra/config"
)

const shutdownTimeout = 10 * time.Second

// App encapsulates the HTTP server lifecycle.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	server     *http.Server
	dispatcher *notification.Dispatcher
}

// NewApp is used by Wire to build the runnable app.
func NewApp(cfg *config.Config, logger *slog.Logger, server *http.Server, dispatcher *notification.Dispatcher) *App {
	return &App{
		cfg:        cfg,
		logger:     logger.With("component", "bootstrap"),
		server:     server,
		dispatcher: dispatcher,
	}
}

// Run starts the HTTP server and blocks until shutdown. Pending notifications
// are drained after the server stops accepting requests.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("http server starting", "address", a.cfg.HTTP.Address)
		if err := a.server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutdown signal received")
		serverErr := a.server.Shutdown(shutdownCtx)
		return errors.Join(serverErr, a.drain(shutdownCtx))
	case err := <-errCh:
		drainCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if errors.Is(err, http.ErrServerClosed) {
			return a.drain(drainCtx)
		}
		return errors.Join(err, a.drain(drainCtx))
	}
}

func (a *App) drain(ctx context.Context) error {
	if a.dispatcher == nil {
		return nil
	}
	if err := a.dispatcher.Close(ctx); err != nil {
		a.logger.Error("notification drain incomplete", "error", err)
		return err
	}
	return nil
}
