package app_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"connectrpc.com/connect"
	"github.com/google/go-cmp/cmp"
	"github.com/tailored-agentic-units/memorable/app"
	"github.com/tailored-agentic-units/memorable/memo"
	"github.com/tailored-agentic-units/memorable/observability"
	"github.com/tailored-agentic-units/memorable/rpc"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := app.DefaultConfig()

	want := app.Config{
		Store:    memo.DefaultConfig(),
		Server:   rpc.DefaultConfig(),
		Observer: "slog",
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("DefaultConfig() mismatch (-want +got):\n%s", diff)
	}
}

func TestConfig_Merge(t *testing.T) {
	cfg := app.DefaultConfig()

	cfg.Merge(&app.Config{
		Store:    memo.Config{Path: "/data/db.json"},
		Observer: "noop",
	})

	if cfg.Store.Path != "/data/db.json" {
		t.Errorf("got Store.Path %q, want %q", cfg.Store.Path, "/data/db.json")
	}
	if cfg.Store.Indent != "  " {
		t.Errorf("got Store.Indent %q, want default preserved", cfg.Store.Indent)
	}
	if cfg.Server.Addr != rpc.DefaultConfig().Addr {
		t.Errorf("got Server.Addr %q, want default preserved", cfg.Server.Addr)
	}
	if cfg.Observer != "noop" {
		t.Errorf("got Observer %q, want %q", cfg.Observer, "noop")
	}
}

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "json",
			file: "memorable.json",
			content: `{
				"store": {"path": "/tmp/db.json", "indent": "\t"},
				"server": {"addr": ":9000"},
				"observer": "noop"
			}`,
		},
		{
			name: "yaml",
			file: "memorable.yaml",
			content: "store:\n  path: /tmp/db.json\n  indent: \"\\t\"\nserver:\n  addr: \":9000\"\nobserver: noop\n",
		},
		{
			name: "yml",
			file: "memorable.yml",
			content: "store:\n  path: /tmp/db.json\n  indent: \"\\t\"\nserver:\n  addr: \":9000\"\nobserver: noop\n",
		},
	}

	want := &app.Config{
		Store:    memo.Config{Path: "/tmp/db.json", Indent: "\t"},
		Server:   rpc.Config{Addr: ":9000"},
		Observer: "noop",
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := app.LoadConfig(writeConfig(t, tt.file, tt.content))
			if err != nil {
				t.Fatalf("LoadConfig failed: %v", err)
			}
			if diff := cmp.Diff(want, cfg); diff != "" {
				t.Errorf("LoadConfig() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadConfig_PartialKeepsDefaults(t *testing.T) {
	cfg, err := app.LoadConfig(writeConfig(t, "memorable.yaml", "store:\n  path: db.json\n"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Store.Path != "db.json" {
		t.Errorf("got Store.Path %q, want %q", cfg.Store.Path, "db.json")
	}
	if cfg.Observer != "slog" {
		t.Errorf("got Observer %q, want default %q", cfg.Observer, "slog")
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	if _, err := app.LoadConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("LoadConfig(missing) error = nil, want error")
	}
	if _, err := app.LoadConfig(writeConfig(t, "bad.json", "{")); err == nil {
		t.Error("LoadConfig(bad json) error = nil, want error")
	}
	if _, err := app.LoadConfig(writeConfig(t, "bad.yaml", "store: [")); err == nil {
		t.Error("LoadConfig(bad yaml) error = nil, want error")
	}
}

func TestNew_RequiresPath(t *testing.T) {
	cfg := app.DefaultConfig()

	if _, err := app.New(&cfg); !errors.Is(err, memo.ErrEmptyPath) {
		t.Errorf("New() error = %v, want %v", err, memo.ErrEmptyPath)
	}
}

func TestNew_UnknownObserver(t *testing.T) {
	cfg := app.DefaultConfig()
	cfg.Store.Path = filepath.Join(t.TempDir(), "db.json")
	cfg.Observer = "does-not-exist"

	if _, err := app.New(&cfg); err == nil {
		t.Error("New() error = nil, want error")
	}
}

func TestNew_ServiceSharesDatabase(t *testing.T) {
	var events []observability.Event
	obs := observerFunc(func(e observability.Event) { events = append(events, e) })

	cfg := app.DefaultConfig()
	cfg.Store.Path = filepath.Join(t.TempDir(), "db.json")

	a, err := app.New(&cfg, app.WithObserver(obs))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := a.DB().Push(memo.Object{ID: memo.ID{UUID: "seed"}, Fields: map[string]any{"n": 1.0}}); err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	if len(events) != 2 || events[0].Type != memo.EventOpen || events[1].Type != memo.EventPush {
		t.Errorf("events = %+v, want %s then %s", events, memo.EventOpen, memo.EventPush)
	}

	srv := httptest.NewServer(a.Service().Handler())
	defer srv.Close()

	got, err := rpc.NewClient(srv.Client(), srv.URL).Get(context.Background(), "seed")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if diff := cmp.Diff(map[string]any{"uuid": "seed", "n": 1.0}, got); diff != "" {
		t.Errorf("Get() mismatch (-want +got):\n%s", diff)
	}
}

func TestNew_CombinesObservers(t *testing.T) {
	var configured, extra []observability.EventType
	observability.RegisterObserver("app-test", observerFunc(func(e observability.Event) { configured = append(configured, e.Type) }))

	cfg := app.DefaultConfig()
	cfg.Store.Path = filepath.Join(t.TempDir(), "db.json")
	cfg.Observer = "app-test"

	if _, err := app.New(&cfg, app.WithObserver(observerFunc(func(e observability.Event) { extra = append(extra, e.Type) }))); err != nil {
		t.Fatalf("New() error = %v", err)
	}

	want := []observability.EventType{memo.EventOpen}
	if diff := cmp.Diff(want, configured); diff != "" {
		t.Errorf("configured observer events mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, extra); diff != "" {
		t.Errorf("added observer events mismatch (-want +got):\n%s", diff)
	}
}

func TestService_ReadMaxBytes(t *testing.T) {
	cfg := app.DefaultConfig()
	cfg.Store.Path = filepath.Join(t.TempDir(), "db.json")
	cfg.Observer = "noop"
	cfg.Server.ReadMaxBytes = 256

	a, err := app.New(&cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	srv := httptest.NewServer(a.Service().Handler())
	defer srv.Close()
	client := rpc.NewClient(srv.Client(), srv.URL)

	if _, err := client.Push(context.Background(), map[string]any{"note": "short"}); err != nil {
		t.Fatalf("Push(small) error = %v", err)
	}
	_, err = client.Push(context.Background(), map[string]any{"note": strings.Repeat("x", 1024)})
	if code := connect.CodeOf(err); code != connect.CodeResourceExhausted {
		t.Errorf("Push(large) code = %v, want %v", code, connect.CodeResourceExhausted)
	}
}

type observerFunc func(observability.Event)

func (f observerFunc) OnEvent(_ context.Context, e observability.Event) { f(e) }
