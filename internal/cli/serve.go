package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/aretw0/flowcanvas/internal/logging"
	httpAdapter "github.com/aretw0/flowcanvas/pkg/adapters/http"
	mcpAdapter "github.com/aretw0/flowcanvas/pkg/adapters/mcp"
	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/aretw0/flowcanvas/pkg/observability"
	"github.com/aretw0/flowcanvas/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

// ShutdownTimeout bounds the graceful shutdown of the servers.
const ShutdownTimeout = 5 * time.Second

// ServeOptions contains the configuration of the serve command.
type ServeOptions struct {
	Options
	Metrics bool
}

// Serve runs the HTTP API on ln until ctx is done, then shuts down gracefully.
func Serve(ctx context.Context, opts ServeOptions, ln net.Listener) error {
	level := slog.LevelInfo
	if opts.Debug {
		level = slog.LevelDebug
	}
	logger := logging.NewJSON(os.Stderr, level)

	b, err := OpenBackend(opts.Options)
	if err != nil {
		return err
	}
	defer b.Close()

	var hooks []domain.SimulatorHooks
	var handlerOpts []httpAdapter.Option
	handlerOpts = append(handlerOpts, httpAdapter.WithLogger(logger))
	if opts.Metrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics, err := observability.NewMetrics(reg)
		if err != nil {
			return err
		}
		hooks = append(hooks, metrics.Hooks())
		handlerOpts = append(handlerOpts, httpAdapter.WithMetrics(reg))
	}

	sessions := newSessions(opts.Options, b, logger, hooks...)
	defer sessions.Close()

	srv := &http.Server{
		Handler:           httpAdapter.NewHandler(sessions, handlerOpts...),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server listening", "address", ln.Addr().String(), "metrics", opts.Metrics)
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			srv.Close()
			return fmt.Errorf("graceful shutdown did not complete in %v: %w", ShutdownTimeout, err)
		}
		return nil
	})
	return g.Wait()
}

// MCPOptions contains the configuration of the mcp command.
type MCPOptions struct {
	Options
	Transport string
	Port      int
}

// ServeMCP runs the MCP server over stdio or SSE.
func ServeMCP(ctx context.Context, opts MCPOptions) error {
	// Stdout carries the protocol, logs go to stderr.
	logger := createLogger(opts.Debug)

	b, err := OpenBackend(opts.Options)
	if err != nil {
		return err
	}
	defer b.Close()

	sessions := newSessions(opts.Options, b, logger)
	defer sessions.Close()

	srv := mcpAdapter.NewServer(sessions, mcpAdapter.WithLogger(logger))
	switch opts.Transport {
	case "", "stdio":
		return srv.ServeStdio()
	case "sse":
		return srv.ServeSSE(ctx, opts.Port)
	default:
		return fmt.Errorf("unknown transport %q (stdio, sse)", opts.Transport)
	}
}

func newSessions(opts Options, b *Backend, logger *slog.Logger, hooks ...domain.SimulatorHooks) *session.Manager {
	sessOpts := []session.Option{
		session.WithLogger(logger),
		session.WithFactory(newWorkspaceFactory(opts, logger, hooks...)),
	}
	if b.Locker != nil {
		sessOpts = append(sessOpts, session.WithLocker(b.Locker))
	}
	return session.NewManager(b.Store, sessOpts...)
}
