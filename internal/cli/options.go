package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/flowcanvas"
	"github.com/aretw0/flowcanvas/pkg/adapters/file"
	"github.com/aretw0/flowcanvas/pkg/adapters/redis"
	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/aretw0/flowcanvas/pkg/persistence/middleware"
	"github.com/aretw0/flowcanvas/pkg/ports"
	"github.com/aretw0/flowcanvas/pkg/session"
	backend "github.com/redis/go-redis/v9"
)

// Options holds the flags shared by every command.
type Options struct {
	Dir         string
	Format      string
	Debug       bool
	Delay       time.Duration
	Strict      bool
	MaxSteps    int
	RedisURL    string
	RedisPrefix string

	// EncryptionKey seals stored graphs with AES-256-GCM (hex or base64, 32 bytes).
	EncryptionKey string
	// RedactSecrets masks credential-like node data before it is stored.
	RedactSecrets bool
}

// Backend is an opened workflow store with its optional distributed locker.
type Backend struct {
	Store  ports.WorkflowStore
	Locker ports.DistributedLocker
	close  func() error
}

// Close releases the backend connections.
func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// OpenBackend selects Redis when a URL is configured and the workflow directory otherwise.
// The store is wrapped with the redaction and encryption middlewares when enabled.
func OpenBackend(opts Options) (*Backend, error) {
	mws, err := storeMiddlewares(opts)
	if err != nil {
		return nil, err
	}
	b, err := openBackend(opts)
	if err != nil {
		return nil, err
	}
	b.Store = middleware.Chain(b.Store, mws...)
	return b, nil
}

func storeMiddlewares(opts Options) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if opts.RedactSecrets {
		mws = append(mws, middleware.NewRedactMiddleware(middleware.DefaultSecretPatterns))
	}
	if opts.EncryptionKey != "" {
		key, err := middleware.ParseKey(opts.EncryptionKey)
		if err != nil {
			return nil, err
		}
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}))
	}
	return mws, nil
}

func openBackend(opts Options) (*Backend, error) {
	if opts.RedisURL != "" {
		ro, err := backend.ParseURL(opts.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		client := backend.NewClient(ro)
		prefix := opts.RedisPrefix
		if prefix == "" {
			prefix = redis.DefaultPrefix
		}
		return &Backend{
			Store:  redis.NewFromClient(client, redis.WithPrefix(prefix)),
			Locker: redis.NewLocker(client, prefix),
			close:  client.Close,
		}, nil
	}

	var fileOpts []file.Option
	switch opts.Format {
	case "", "yaml", "yml":
	case "json":
		fileOpts = append(fileOpts, file.WithFormat(file.FormatJSON))
	default:
		return nil, fmt.Errorf("unknown format %q (yaml, json)", opts.Format)
	}
	store, err := file.New(opts.Dir, fileOpts...)
	if err != nil {
		return nil, err
	}
	return &Backend{Store: store}, nil
}

// workspaceOptions maps the shared flags to workspace options.
func workspaceOptions(opts Options, logger *slog.Logger, hooks ...domain.SimulatorHooks) []flowcanvas.Option {
	wsOpts := []flowcanvas.Option{
		flowcanvas.WithLogger(logger),
		flowcanvas.WithStepDelay(opts.Delay),
	}
	if opts.Strict {
		wsOpts = append(wsOpts, flowcanvas.WithStrictValidation())
	}
	if opts.MaxSteps > 0 {
		wsOpts = append(wsOpts, flowcanvas.WithMaxSteps(opts.MaxSteps))
	}
	if len(hooks) > 0 {
		wsOpts = append(wsOpts, flowcanvas.WithLifecycleHooks(domain.MergeHooks(hooks...)))
	}
	return wsOpts
}

// newWorkspaceFactory creates session workspaces with the CLI conventions.
func newWorkspaceFactory(opts Options, logger *slog.Logger, hooks ...domain.SimulatorHooks) session.Factory {
	return func(id string) *flowcanvas.Workspace {
		return flowcanvas.New(id, workspaceOptions(opts, logger, hooks...)...)
	}
}
