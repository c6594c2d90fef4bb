// Package cli wires the docgrip command line: the TUI and the one-shot list
// and search commands.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	"github.com/spf13/cobra"

	"docgrip/internal/config"
	"docgrip/internal/discovery"
	"docgrip/internal/eventbus"
	"docgrip/internal/log"
	"docgrip/internal/registry"
)

// options are the persistent flags shared by every command
type options struct {
	configPath string
	docsets    []string
	logFile    string
	logLevel   string
}

// NewRootCommand builds the command tree. The root command runs the TUI.
func NewRootCommand() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "docgrip",
		Short: "Browse offline documentation in the terminal",
		Long: `docgrip searches installed Dash/Zeal docsets and shows their pages in a
tabbed terminal browser. Type to search every docset at once, or prefix the
query with a docset keyword ("python:split") to narrow it down.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), opts)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/docgrip/config.toml)")
	flags.StringArrayVar(&opts.docsets, "docsets", nil, "directory holding docsets, repeatable (overrides docset_paths)")
	flags.StringVar(&opts.logFile, "log-file", "", "log file (default: docgrip.log)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(newListCommand(opts), newSearchCommand(opts))
	return root
}

// Execute runs the command line until it finishes or the process is
// interrupted
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "docgrip: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies flag overrides
func loadConfig(opts *options) (*config.Config, error) {
	svc := config.NewConfigService()
	if opts.configPath != "" {
		svc = config.NewConfigServiceAt(opts.configPath)
	}

	cfg, err := svc.Load()
	if err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	if len(opts.docsets) > 0 {
		cfg.DocsetPaths = append([]string(nil), opts.docsets...)
	}
	if opts.logFile != "" {
		cfg.Log.File = opts.logFile
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	cfg.Normalize()
	return cfg, nil
}

// app holds the long-lived services shared by the commands
type app struct {
	cfg       *config.Config
	bus       eventbus.EventBus
	registry  *registry.Registry
	discovery discovery.DiscoveryService
}

func newApp(opts *options) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	if err := log.Setup(cfg.Log.File, cfg.Log.Level); err != nil {
		return nil, errors.Wrap(err, "setup logger")
	}
	log.Logger.Info("starting",
		zap.Strings("docset_paths", cfg.DocsetPaths),
		zap.Bool("watch", cfg.Watch))

	bus := eventbus.New()
	reg := registry.New(bus, registry.WithMaxResults(cfg.Search.MaxResults))
	return &app{
		cfg:       cfg,
		bus:       bus,
		registry:  reg,
		discovery: discovery.NewDiscoveryService(bus, reg),
	}, nil
}

// loadDocsets scans the configured directories once, synchronously
func (a *app) loadDocsets(ctx context.Context) error {
	if _, err := a.discovery.Scan(ctx, a.cfg.DocsetPaths); err != nil {
		return errors.Wrap(err, "scan docsets")
	}
	return nil
}

func (a *app) close() {
	a.discovery.StopScan()
	if err := a.registry.Close(); err != nil {
		log.Logger.Warn("close registry", zap.Error(err))
	}
	a.bus.Close()
	log.Sync()
}
