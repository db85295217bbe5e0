package server

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"SignalDesk/pkg/config"
	xhttp "SignalDesk/pkg/http"
	pkgkafka "SignalDesk/pkg/kafka"
	applogger "SignalDesk/pkg/logger"
)

// App owns the long-running parts of the service: the HTTP API, the
// optional Kafka consumer and every client that must be closed on exit.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	httpServer *xhttp.Server
	consumer   *pkgkafka.Consumer
	closers    []namedCloser
}

type namedCloser struct {
	name string
	c    io.Closer
}

// New creates an App. consumer may be nil when Kafka is not configured.
func New(cfg *config.Config, l *applogger.Logger, httpServer *xhttp.Server, consumer *pkgkafka.Consumer) *App {
	if l == nil {
		l = applogger.NewNop()
	}
	return &App{cfg: cfg, l: l, httpServer: httpServer, consumer: consumer}
}

// AddCloser registers a resource released during shutdown, in reverse
// registration order.
func (a *App) AddCloser(name string, c io.Closer) {
	if c != nil {
		a.closers = append(a.closers, namedCloser{name: name, c: c})
	}
}

// Start launches the HTTP server and the consumer without blocking.
func (a *App) Start() error {
	if a.consumer != nil {
		if err := a.consumer.Start(); err != nil {
			return fmt.Errorf("kafka consumer: %w", err)
		}
	}
	if err := a.httpServer.Start(); err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	a.l.Info("signaldesk started",
		applogger.String("env", a.cfg.Environment),
		applogger.Int("port", a.cfg.Server.Port),
		applogger.Bool("kafka", a.consumer != nil),
	)
	return nil
}

// Run starts the app and blocks until SIGINT or SIGTERM.
func (a *App) Run() error {
	if err := a.Start(); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh
	a.l.Info("shutdown signal received", applogger.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	return a.Shutdown(ctx)
}

// Shutdown stops intake first, then releases clients. It keeps going past
// individual failures and returns the first one.
func (a *App) Shutdown(ctx context.Context) error {
	start := time.Now()
	var first error
	keep := func(err error) {
		if first == nil {
			first = err
		}
	}

	if err := a.httpServer.Stop(ctx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
		keep(err)
	}
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.l.Warn("kafka consumer stop error", applogger.Error(err))
			keep(err)
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		nc := a.closers[i]
		if err := nc.c.Close(); err != nil {
			a.l.Warn("close error", applogger.String("resource", nc.name), applogger.Error(err))
			keep(fmt.Errorf("close %s: %w", nc.name, err))
		}
	}

	a.l.Info("shutdown complete", applogger.Duration("took", time.Since(start)))
	return first
}
