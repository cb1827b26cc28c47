// Package app wires configuration, observability, the Object database and
// its RPC service together for the memorable command.
//
//	cfg, err := app.LoadConfig("memorable.yaml")
//	a, err := app.New(cfg)
//	id, err := a.DB().PushID(obj)
package app

import (
	"context"
	"fmt"

	"connectrpc.com/connect"

	"github.com/tailored-agentic-units/memorable/memo"
	"github.com/tailored-agentic-units/memorable/observability"
	"github.com/tailored-agentic-units/memorable/rpc"
)

// Option overrides a config-created component.
type Option func(*App)

// WithObserver adds an observer that receives every event alongside the
// one named in the config.
func WithObserver(o observability.Observer) Option {
	return func(a *App) { a.extra = append(a.extra, o) }
}

// App holds the components built from a Config.
type App struct {
	cfg      Config
	extra    []observability.Observer
	observer observability.Observer
	db       *rpc.ObjectDB
}

// New resolves the configured observer, applies opts and opens the
// database.
func New(cfg *Config, opts ...Option) (*App, error) {
	a := &App{cfg: *cfg}

	var configured observability.Observer
	if cfg.Observer != "" {
		obs, err := observability.GetObserver(cfg.Observer)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve observer: %w", err)
		}
		configured = obs
	}

	for _, opt := range opts {
		opt(a)
	}
	a.observer = observability.NewMultiObserver(append([]observability.Observer{configured}, a.extra...)...)

	db, err := memo.OpenConfig[memo.Object](&a.cfg.Store, memo.WithObserver(a.observer))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	a.db = db

	return a, nil
}

// DB returns the database. It must not be used once Serve has started.
func (a *App) DB() *rpc.ObjectDB {
	return a.db
}

// Service wraps the database in an RPC service sharing the app's observer.
// A configured request size limit applies to every procedure.
func (a *App) Service() *rpc.Service {
	opts := []rpc.Option{rpc.WithObserver(a.observer)}
	if a.cfg.Server.ReadMaxBytes > 0 {
		opts = append(opts, rpc.WithHandlerOptions(connect.WithReadMaxBytes(a.cfg.Server.ReadMaxBytes)))
	}
	return rpc.NewService(a.db, opts...)
}

// Serve exposes the database on the configured address until ctx is done.
func (a *App) Serve(ctx context.Context) error {
	return rpc.ListenAndServe(ctx, &a.cfg.Server, a.Service().Handler())
}
