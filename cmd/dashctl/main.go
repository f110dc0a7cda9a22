package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"

	"github.com/goliatone/go-dashgrid/components/dashboard"
	"github.com/goliatone/go-dashgrid/components/dashboard/migration"
	"github.com/goliatone/go-dashgrid/pkg/logging"
)

type cli struct {
	Config   string `short:"c" type:"path" help:"Optional dashctl YAML config file."`
	LogLevel string `name:"log-level" help:"Log level (debug, info, warn, error). Overrides the config file."`

	Migrate   migrateCmd   `cmd:"" help:"Upgrade dashboards to the latest schema and write their persisted form."`
	Repeat    repeatCmd    `cmd:"" help:"Select variable values and print the expanded panel layout."`
	Validate  validateCmd  `cmd:"" help:"Check that dashboards upgrade to a valid persisted form."`
	Provision provisionCmd `cmd:"" help:"Load every dashboard of a manifest and write snapshots."`
	Serve     serveCmd     `cmd:"" help:"Serve the dashboard API over HTTP and WebSocket."`
}

// runtime is bound into every command's Run method.
type runtime struct {
	ctx    context.Context
	cfg    *config
	out    io.Writer
	logger logging.Logger

	okColor   *color.Color
	failColor *color.Color
}

func main() {
	var app cli
	kctx := kong.Parse(&app,
		kong.Name("dashctl"),
		kong.Description("Dashboard document tooling for go-dashgrid."),
		kong.UsageOnError(),
	)
	rt, err := app.runtime(context.Background(), os.Stdout, os.Stderr)
	kctx.FatalIfErrorf(err)
	kctx.FatalIfErrorf(kctx.Run(rt))
}

func (c *cli) runtime(ctx context.Context, out, logOut io.Writer) (*runtime, error) {
	cfg, err := readConfig(c.Config)
	if err != nil {
		return nil, err
	}
	if c.LogLevel != "" {
		cfg.LogLevel = c.LogLevel
	}
	switch cfg.Color {
	case "always":
		color.NoColor = false
	case "never":
		color.NoColor = true
	}
	handler := slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: logging.ParseLevel(cfg.LogLevel)})
	return &runtime{
		ctx:       ctx,
		cfg:       cfg,
		out:       out,
		logger:    logging.NewSlog(slog.New(handler)).With("component", "dashctl"),
		okColor:   color.New(color.FgGreen),
		failColor: color.New(color.FgRed, color.Bold),
	}, nil
}

func (rt *runtime) okf(format string, args ...any) {
	rt.okColor.Fprint(rt.out, "✓ ")
	fmt.Fprintf(rt.out, format+"\n", args...)
}

func (rt *runtime) failf(format string, args ...any) {
	rt.failColor.Fprint(rt.out, "✗ ")
	fmt.Fprintf(rt.out, format+"\n", args...)
}

func (rt *runtime) migrator() *migration.Migrator {
	return migration.New(migration.Options{Logger: rt.logger})
}

func (rt *runtime) outputDir(flag string) string {
	if flag != "" {
		return flag
	}
	return rt.cfg.OutputDir
}

func (rt *runtime) encode(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", strings.Repeat(" ", rt.cfg.Indent))
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func (rt *runtime) writeJSON(dir, name string, v any) (string, error) {
	data, err := rt.encode(v)
	if err != nil {
		return "", fmt.Errorf("dashctl: encode %s: %w", name, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("dashctl: mkdir %s: %w", dir, err)
	}
	target := filepath.Join(dir, name+".json")
	if err := os.WriteFile(target, data, 0o644); err != nil { //nolint:gosec
		return "", fmt.Errorf("dashctl: write %s: %w", target, err)
	}
	return target, nil
}

func loadFile(path string, migrator *migration.Migrator) (*dashboard.Document, error) {
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("dashctl: read %s: %w", path, err)
	}
	doc, err := dashboard.Load(data, dashboard.WithMigrator(migrator))
	if err != nil {
		return nil, fmt.Errorf("dashctl: load %s: %w", path, err)
	}
	return doc, nil
}
