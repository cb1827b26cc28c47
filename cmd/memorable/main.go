package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"

	"github.com/tailored-agentic-units/memorable/app"
	"github.com/tailored-agentic-units/memorable/observability"
	"github.com/tailored-agentic-units/memorable/rpc"
)

func main() {
	var (
		configFile = flag.String("config", "", "Path to config file, JSON or YAML (optional)")
		dbPath     = flag.String("db", "", "Path to the database file (overrides config)")
		remote     = flag.String("remote", "", "Base URL of a running server; operate on it instead of a local file")
		push       = flag.String("push", "", "JSON object to store")
		get        = flag.String("get", "", "Identity of the document to print")
		del        = flag.String("del", "", "Identity of the document to delete")
		list       = flag.Bool("list", false, "Print every document")
		serve      = flag.Bool("serve", false, "Serve the database over Connect until interrupted")
		addr       = flag.String("addr", "", "Listen address for -serve (overrides config)")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging to stderr")
	)
	flag.Parse()

	act, err := selectAction(*push, *get, *del, *list, *serve)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, "Usage: memorable [-db <file> | -remote <url>] -push <json> | -get <id> | -del <id> | -list | -serve")
		flag.PrintDefaults()
		os.Exit(1)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	observability.RegisterObserver("slog", observability.NewSlogObserver(logger))

	cfg := app.DefaultConfig()
	if *configFile != "" {
		loaded, err := app.LoadConfig(*configFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = *loaded
	}
	if *dbPath != "" {
		cfg.Store.Path = *dbPath
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var docs documents
	if *remote != "" {
		if act.kind == actionServe {
			log.Fatal("-serve cannot be combined with -remote")
		}
		docs = remoteDocuments{client: rpc.NewClient(http.DefaultClient, *remote)}
	} else {
		a, err := app.New(&cfg)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		if a.DB().Recovered() {
			logger.Warn("database content could not be decoded and was reset", "path", a.DB().Path())
		}
		if act.kind == actionServe {
			logger.Info("serving", "addr", cfg.Server.Addr, "path", a.DB().Path())
			if err := a.Serve(ctx); err != nil {
				log.Fatalf("Server failed: %v", err)
			}
			return
		}
		docs = localDocuments{db: a.DB()}
	}

	if err := act.run(ctx, docs, os.Stdout); err != nil {
		log.Fatalf("%s failed: %v", act.kind, err)
	}
}
