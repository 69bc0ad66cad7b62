package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"simplehub/internal/attach"
	"simplehub/internal/config"
	"simplehub/internal/hub"
	"simplehub/internal/storage"
	"simplehub/internal/ui"
)

type options struct {
	configPath string
	storePath  string
	ephemeral  bool
}

// app is everything a command needs once flags are parsed.
type app struct {
	cfg     config.Config
	log     *slog.Logger
	hub     *hub.Hub
	enc     *attach.Encoder
	closers []io.Closer
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i].Close()
	}
}

func NewRootCmd() *cobra.Command {
	opts := &options{}
	var a *app

	root := &cobra.Command{
		Use:   "simplehub",
		Short: "Notes and a task checklist in your terminal.",
		Long: heredoc.Doc(`
			SimpleHub keeps short notes, with files attached inline, next to a
			simple checklist of tasks. Everything is stored locally.

			Run without arguments to open the interactive view.
		`),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			a, err = setup(cmd.Context(), opts)
			return err
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a != nil {
				a.Close()
			}
		},
		RunE: func(*cobra.Command, []string) error {
			return ui.Run(a.hub, a.enc, a.cfg, a.log)
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default is $SIMPLEHUB_CONFIG or the user config dir)")
	root.PersistentFlags().StringVar(&opts.storePath, "store", "", "override the store path from the config")
	root.PersistentFlags().BoolVar(&opts.ephemeral, "ephemeral", false, "keep everything in memory for this run")

	current := func() *app { return a }
	root.AddCommand(newTaskCmd(current), newNoteCmd(current))
	return root
}

func Execute() {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func setup(ctx context.Context, opts *options) (*app, error) {
	path := opts.configPath
	if path == "" {
		path = config.ResolveConfigPath()
	}
	cfg, err := config.LoadOrCreate(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if opts.storePath != "" {
		cfg.StorePath = opts.storePath
	}

	a := &app{cfg: cfg, enc: attach.NewEncoder()}
	logger, logFile, err := openLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open log: %w", err)
	}
	a.log = logger
	a.closers = append(a.closers, logFile)

	var kv storage.KV
	if opts.ephemeral {
		kv = storage.NewMemory(storage.Options{MaxValueBytes: cfg.MaxValueBytes})
	} else {
		store, err := storage.Open(cfg.StorePath, storage.Options{MaxValueBytes: cfg.MaxValueBytes})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to open store: %w", err)
		}
		a.closers = append(a.closers, store)
		kv = store
	}

	a.hub, err = hub.Load(ctx, kv, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to load data: %w", err)
	}
	return a, nil
}

func openLogger(cfg config.Config) (*slog.Logger, *os.File, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.LogPath), 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(cfg.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}
	handler := slog.NewTextHandler(f, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)})
	return slog.New(handler), f, nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
