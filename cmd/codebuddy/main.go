package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eringen/codebuddy"
	"github.com/eringen/codebuddy/catalog"
	"github.com/eringen/codebuddy/views"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	configPath  string
	verbose     bool
	addr        string
	catalogFile string

	cfg    codebuddy.SiteConfig
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "codebuddy",
	Short:         "CodeBuddy - learn to code by fixing real bugs",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		var err error
		cfg, err = codebuddy.LoadConfig(configPath)
		if err != nil {
			return err
		}
		logger, err = newLogger(cfg.Logging, verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server",
	RunE:  runServe,
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Replace the stored catalog",
	Long: `Loads a catalog YAML file (or the built-in catalog when --catalog is
omitted) and makes it the catalog served by the site.`,
	RunE: runSeed,
}

var contactsCmd = &cobra.Command{
	Use:   "contacts",
	Short: "List contact form messages, newest first",
	RunE:  runContacts,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the codebuddy version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "codebuddy %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	serveCmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	seedCmd.Flags().StringVar(&catalogFile, "catalog", "", "catalog YAML file (default: built-in catalog)")

	rootCmd.AddCommand(serveCmd, seedCmd, contactsCmd, versionCmd)
}

func newLogger(lc codebuddy.LoggingConfig, verbose bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	if lc.Format == "console" {
		config.Encoding = "console"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	level, err := zapcore.ParseLevel(lc.Level)
	if err != nil {
		return nil, err
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	config.Level = zap.NewAtomicLevelAt(level)
	return config.Build()
}

func runServe(cmd *cobra.Command, args []string) error {
	if addr != "" {
		cfg.Addr = addr
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := codebuddy.New(cfg, views.Default(), codebuddy.WithLogger(logger))
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn("close", zap.Error(err))
		}
	}()
	if err := app.Init(ctx); err != nil {
		return err
	}

	if cfg.CatalogPath != "" {
		go func() {
			if err := app.WatchCatalog(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("catalog watcher stopped", zap.Error(err))
			}
		}()
	}
	return app.Start(ctx)
}

func runSeed(cmd *cobra.Command, args []string) error {
	c, err := loadCatalog(catalogFile)
	if err != nil {
		return err
	}
	store, err := codebuddy.NewStore(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.SeedCatalog(cmd.Context(), c); err != nil {
		return err
	}
	logger.Info("catalog seeded",
		zap.String("database", cfg.DatabasePath),
		zap.Int("challenges", len(c.Challenges)),
		zap.Int("projects", len(c.Projects)),
		zap.Int("lessons", len(c.Lessons)),
		zap.Int("roadmaps", len(c.Roadmaps)),
	)
	return nil
}

func loadCatalog(path string) (catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.LoadFile(path)
}

func runContacts(cmd *cobra.Command, args []string) error {
	store, err := codebuddy.NewStore(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	msgs, err := store.ListContacts(cmd.Context())
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RECEIVED\tFROM\tSUBJECT")
	for _, m := range msgs {
		fmt.Fprintf(tw, "%s\t%s <%s>\t%s\n", m.CreatedAt, m.Name, m.Email, m.Subject)
	}
	return tw.Flush()
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
