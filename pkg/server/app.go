package server

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	xhttp "AltCredit/pkg/http"
	pkgkafka "AltCredit/pkg/kafka"
	applogger "AltCredit/pkg/logger"
)

// Task is a background loop bound to the application lifetime.
type Task func(ctx context.Context)

// Closer releases an infrastructure client on shutdown.
type Closer struct {
	Name  string
	Close func() error
}

// App encapsulates the entire application lifecycle.
type App struct {
	log             *applogger.Logger
	httpServer      *xhttp.Server
	consumer        *pkgkafka.Consumer
	handlers        []pkgkafka.MessageHandler
	tasks           []Task
	closers         []Closer
	shutdownTimeout time.Duration
}

// Option configures App.
type Option func(*App)

// WithConsumer attaches a Kafka consumer and the handlers it serves.
func WithConsumer(c *pkgkafka.Consumer, handlers ...pkgkafka.MessageHandler) Option {
	return func(a *App) {
		if c != nil {
			a.consumer = c
			a.handlers = append(a.handlers, handlers...)
		}
	}
}

// WithTask runs t in the background until shutdown.
func WithTask(t Task) Option {
	return func(a *App) {
		if t != nil {
			a.tasks = append(a.tasks, t)
		}
	}
}

// WithCloser registers a resource closed during shutdown, in registration order.
func WithCloser(name string, fn func() error) Option {
	return func(a *App) {
		if fn != nil {
			a.closers = append(a.closers, Closer{Name: name, Close: fn})
		}
	}
}

func WithShutdownTimeout(d time.Duration) Option {
	return func(a *App) {
		if d > 0 {
			a.shutdownTimeout = d
		}
	}
}

// New creates a new App instance with all dependencies.
func New(log *applogger.Logger, httpServer *xhttp.Server, opts ...Option) *App {
	if log == nil {
		log = applogger.Nop()
	}
	a := &App{
		log:             log,
		httpServer:      httpServer,
		shutdownTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts every component and blocks until ctx is done.
func (a *App) RunContext(ctx context.Context) error {
	taskCtx, cancelTasks := context.WithCancel(ctx)
	defer cancelTasks()

	for _, t := range a.tasks {
		go t(taskCtx)
	}

	if a.consumer != nil && len(a.handlers) > 0 {
		for _, h := range a.handlers {
			a.consumer.RegisterHandler(h)
		}
		if err := a.consumer.Start(); err != nil {
			a.log.Error("kafka consumer start error", applogger.Error(err))
			return err
		}
	}

	if a.httpServer != nil {
		if err := a.httpServer.Start(); err != nil {
			a.log.Error("http server start error", applogger.Error(err))
			return err
		}
	}

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	cancelTasks()
	return a.shutdown()
}

// shutdown stops intake first, then releases clients.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()

	var errs []error
	if a.httpServer != nil {
		if err := a.httpServer.Stop(ctx); err != nil {
			a.log.Error("http shutdown error", applogger.Error(err))
			errs = append(errs, err)
		}
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
			errs = append(errs, err)
		}
	}

	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.log.Warn("close error", applogger.String("resource", c.Name), applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return errors.Join(errs...)
}
