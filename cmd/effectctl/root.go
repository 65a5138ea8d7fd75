package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/udisondev/effectlang/internal/config"
	"github.com/udisondev/effectlang/internal/data"
	"github.com/udisondev/effectlang/internal/effect"
	"github.com/udisondev/effectlang/internal/effect/describe"
	"github.com/udisondev/effectlang/internal/engine"
	"github.com/udisondev/effectlang/internal/telemetry"
)

const Version = "0.1.0"

// app is the state shared by all subcommands, built once in
// PersistentPreRunE.
type app struct {
	configPath string

	cfg       config.Engine
	reg       *data.Registry
	parser    *effect.Parser
	describer *describe.Describer
	shutdown  func(context.Context) error
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           "effectctl",
		Short:         "Effect expression toolkit",
		Long:          "effectctl parses, describes and executes card-game effect strings.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.close(cmd.Context())
		},
	}
	cmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")

	defPath := ConfigPath
	if p := os.Getenv("EFFECTLANG_CONFIG"); p != "" {
		defPath = p
	}
	cmd.PersistentFlags().StringVar(&a.configPath, "config", defPath, "config file (YAML)")

	cmd.AddCommand(
		newParseCmd(a),
		newDescribeCmd(a),
		newRunCmd(a),
		newFireCmd(a),
		newReplCmd(a),
	)
	return cmd
}

func (a *app) init(ctx context.Context) error {
	cfg, err := config.LoadEngine(a.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	a.cfg = cfg

	level, err := cfg.SlogLevel()
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))

	a.shutdown, err = telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("setting up telemetry: %w", err)
	}

	a.reg, err = data.LoadRegistry(cfg.Registry)
	if err != nil {
		return fmt.Errorf("loading registry: %w", err)
	}
	a.parser = effect.NewParser(a.reg)
	a.describer = describe.New(a.parser)

	slog.Debug("effectctl initialised",
		"registry", cfg.Registry,
		"attributes", len(a.reg.Attributes()),
		"triggers", len(a.reg.Triggers()),
		"driver", cfg.Database.Driver)
	return nil
}

func (a *app) close(ctx context.Context) error {
	if a.shutdown == nil {
		return nil
	}
	if err := a.shutdown(ctx); err != nil {
		return fmt.Errorf("flushing traces: %w", err)
	}
	return nil
}

func (a *app) executor(ents engine.Entities, opts ...engine.Option) *engine.Executor {
	opts = append([]engine.Option{engine.WithConfig(engine.Config{
		MaxDepth: a.cfg.MaxDepth,
		Strict:   a.cfg.Strict,
	})}, opts...)
	return engine.New(a.parser, ents, opts...)
}
