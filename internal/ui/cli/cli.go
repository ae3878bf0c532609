// Package cli implements the crossref command line: indexing a project,
// querying references and watching for changes.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"crossref/internal/core/config"
	"crossref/internal/shared/observability"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X crossref/internal/ui/cli.Version=...".
var Version = "dev"

var (
	configPath string
	rootFlag   string
	logLevel   string
	verbose    bool
)

// level backs the default logger so that config reloads can change it.
var level = new(slog.LevelVar)

var rootCmd = &cobra.Command{
	Use:   "crossref",
	Short: "crossref - a cross-reference index for Java sources",
	Long: `crossref indexes the declarations of a Java project and the places that
extend, invoke, read or write them, including scripts embedded in HTML pages.`,
	SilenceUsage: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "Path to config file (default ./"+config.DefaultFile+" when present)")
	flags.StringVarP(&rootFlag, "root", "r", "", "Project root (default: nearest directory with a project marker)")
	flags.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// Execute runs the root command until ctx is cancelled or the command ends.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// session is the resolved configuration of one command invocation.
type session struct {
	cfg        *config.Config
	root       string
	configPath string
	shutdown   func(context.Context) error
}

// newSession loads the config, sets up logging on w and starts tracing.
func newSession(ctx context.Context, w io.Writer) (*session, error) {
	path := configPath
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		if _, statErr := os.Stat(config.DefaultFile); statErr == nil {
			path = config.DefaultFile
		}
		cfg, err = config.LoadOrDefault(path)
	}
	if err != nil {
		return nil, err
	}

	if rootFlag != "" {
		cfg.Root = rootFlag
	}
	switch {
	case verbose:
		cfg.Log.Level = "debug"
	case logLevel != "":
		cfg.Log.Level = logLevel
	}
	if err := configureLogging(w, cfg.Log); err != nil {
		return nil, err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	root, err := config.ResolveRoot(cfg, cwd)
	if err != nil {
		return nil, err
	}

	shutdown, err := observability.InitTracing(ctx, observability.TracingConfig{
		ServiceName:  cfg.Observability.ServiceName,
		OTLPEndpoint: cfg.Observability.OTLPEndpoint,
		Insecure:     cfg.Observability.OTLPInsecure,
	})
	if err != nil {
		return nil, err
	}

	slog.Debug("session ready", "root", root, "config", path)
	return &session{cfg: cfg, root: root, configPath: path, shutdown: shutdown}, nil
}

func (s *session) close(ctx context.Context) {
	if err := s.shutdown(ctx); err != nil {
		slog.Warn("tracing shutdown failed", "error", err)
	}
}

func parseLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", raw)
}

// configureLogging installs the default logger. Logs go to w so that command
// output on stdout stays machine readable.
func configureLogging(w io.Writer, cfg config.Log) error {
	lvl, err := parseLevel(cfg.Level)
	if err != nil {
		return err
	}
	level.Set(lvl)

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

// applyReload adopts the parts of a reloaded config that can change while
// running.
func applyReload(cfg *config.Config) {
	lvl, err := parseLevel(cfg.Log.Level)
	if err != nil {
		slog.Warn("ignoring reloaded log level", "error", err)
		return
	}
	level.Set(lvl)
}
