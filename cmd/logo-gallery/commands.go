package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ironsheep/logo-gallery/internal/config"
	"github.com/ironsheep/logo-gallery/internal/features"
	"github.com/ironsheep/logo-gallery/internal/guard"
	"github.com/ironsheep/logo-gallery/internal/httpapi"
	"github.com/ironsheep/logo-gallery/internal/logging"
	"github.com/ironsheep/logo-gallery/internal/metrics"
	"github.com/ironsheep/logo-gallery/internal/server"
	"github.com/ironsheep/logo-gallery/internal/store"
)

type globalFlags struct {
	configPath string
	logLevel   string
}

func rootCmd() *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Upload validation backend for a logo gallery",
		Long: `logo-gallery stores logos uploaded by their owners and rejects
byte-identical duplicates and near-duplicates.

Each upload is fingerprinted (average and perceptual hashes, dominant
colors) and compared against the owner's existing logos.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level override (debug, info, warn, error)")

	cmd.AddCommand(
		serveCmd(&flags),
		mcpCmd(&flags),
		extractCmd(),
		compareCmd(),
		versionCmd(),
	)
	return cmd
}

// app is the wiring shared by the long-running commands.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	store    store.Store
	guard    *guard.Guard
	registry *prometheus.Registry
}

func newApp(ctx context.Context, flags *globalFlags) (*app, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Storage.Driver, err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := guard.OptionsFromConfig(cfg)
	opts.Logger = logger.Named("guard")
	opts.Observer = metrics.New(registry)

	logger.Info("Starting",
		zap.String("version", Version),
		zap.String("commit", GitCommit),
		zap.String("storage", cfg.Storage.Driver),
		zap.Int64("max_upload_bytes", cfg.Upload.MaxBytes),
		zap.Int64("max_upload_pixels", cfg.Upload.MaxPixels),
		zap.Bool("allow_system_duplicates", cfg.Policy.AllowSystemDuplicates),
		zap.Bool("allow_similar_images", cfg.Policy.AllowSimilarImages))

	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    st,
		guard:    guard.New(st, opts),
		registry: registry,
	}, nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("Failed to close store", zap.Error(err))
	}
	_ = a.logger.Sync()
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func serveCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			a, err := newApp(ctx, flags)
			if err != nil {
				return err
			}
			defer a.close()

			gin.SetMode(gin.ReleaseMode)
			router := httpapi.NewRouter(httpapi.Deps{
				Guard:          a.guard,
				Store:          a.store,
				Logger:         a.logger.Named("http"),
				Gatherer:       a.registry,
				AllowedOrigins: a.cfg.Server.AllowedOrigins,
			})
			return httpapi.ListenAndServe(ctx, a.cfg.Server, router, a.logger)
		},
	}
}

func mcpCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the MCP tools over stdio",
		Long: `Runs a Model Context Protocol server on stdin/stdout exposing
logo_extract_features, logo_compare and logo_check_duplicate.
Logs go to stderr.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			a, err := newApp(ctx, flags)
			if err != nil {
				return err
			}
			defer a.close()

			server.ServerVersion = Version
			return server.New(a.guard, a.logger).Run(ctx)
		},
	}
}

func extractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <file>",
		Short: "Print the features of an image file as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			f, err := features.Extract(data)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			return writeJSON(cmd.OutOrStdout(), map[string]interface{}{
				"path":        args[0],
				"contentHash": guard.ContentHash(data),
				"features":    f,
			})
		},
	}
}

func compareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compare <file-a> <file-b>",
		Short: "Print the similarity of two image files as JSON",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cache := features.NewFeatureCache()
			a, err := cache.Load(args[0])
			if err != nil {
				return err
			}
			b, err := cache.Load(args[1])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), server.Breakdown(a, b))
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n", appName, Version)
			fmt.Fprintf(out, "  Build time: %s\n", BuildTime)
			fmt.Fprintf(out, "  Git commit: %s\n", GitCommit)
		},
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
