package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/huangsam/storefront/internal/cartstore"
	"github.com/huangsam/storefront/internal/catalog"
	"github.com/huangsam/storefront/internal/catalogapi"
	"github.com/huangsam/storefront/internal/contract"
	"github.com/huangsam/storefront/internal/iocache"
	"github.com/huangsam/storefront/internal/querycache"
	"github.com/huangsam/storefront/internal/telemetry"
	"github.com/huangsam/storefront/schema"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// serviceName identifies this client in traces.
const serviceName = "storefront"

// rootCtx is the root context for all operations.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = &contract.Config{}

// input holds the raw, unvalidated configuration from all sources (file, env, flags).
// Viper will unmarshal into this struct.
var input = &contract.ConfigRawInput{}

// app holds the components built by sharedSetup for the running command.
var app struct {
	logger   *zap.Logger
	stores   *iocache.StoreManager
	cache    *querycache.Cache
	catalog  *catalog.Service
	cart     *cartstore.Store
	shutdown telemetry.ShutdownFunc
}

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:                "storefront",
	Short:              "Browse a product catalog and manage a persistent shopping cart.",
	Long:               `Storefront talks to a REST product catalog through a query cache and keeps your cart in durable storage between runs.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// initConfig reads in .env, config file and ENV variables if set.
func initConfig() {
	// A missing .env is the common case
	_ = godotenv.Load()

	setConfigPaths()

	// Set environment variable prefix
	viper.SetEnvPrefix("STOREFRONT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // Read in environment variables that match

	// Set defaults in Viper
	viper.SetDefault("api-base-url", contract.DefaultAPIBaseURL)
	viper.SetDefault("api-timeout", contract.DefaultAPITimeout.String())
	viper.SetDefault("stale-time", contract.DefaultStaleTime.String())
	viper.SetDefault("retry-delay", contract.DefaultRetryDelay.String())
	viper.SetDefault("storage-backend", schema.SQLiteBackend)
	viper.SetDefault("storage-db-connect", "")
	viper.SetDefault("cart-key", contract.DefaultCartKey)
	viper.SetDefault("output", schema.TextOut)
	viper.SetDefault("precision", contract.DefaultPrecision)
	viper.SetDefault("color", "yes")
}

// setConfigPaths points Viper at the explicit config file or the default search paths.
func setConfigPaths() {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
		return
	}
	viper.SetConfigName(".storefront") // Name of config file (without extension)
	viper.SetConfigType("yaml")        // We'll use YAML format
	viper.AddConfigPath(".")           // Look in the current directory
	viper.AddConfigPath("$HOME")       // Look in the home directory
}

// loadConfig merges defaults, file, env and flags, then validates the result into cfg.
func loadConfig() error {
	// 1. Read config file. This merges defaults, file, env, and flags.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			// Config file was found but another error was produced
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, which is fine; we'll use defaults/env/flags.
	}

	// 2. Unmarshal all resolved values from Viper into our raw input struct.
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}

	// 3. Run all validation and parsing.
	if err := contract.ProcessAndValidate(cfg, input); err != nil {
		return err
	}
	if !cfg.UseColors {
		color.NoColor = true
	}
	return nil
}

// sharedSetup validates config and builds the logger, storage, catalog and cart.
func sharedSetup(ctx context.Context, _ *cobra.Command, _ []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	logger, err := contract.NewLogger(cfg.Verbose)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	app.logger = logger

	shutdown, err := telemetry.InitTracing(ctx, cfg.OTelEndpoint, serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	app.shutdown = shutdown

	stores, err := iocache.NewStoreManager(cfg.StorageBackend, cfg.StorageDBConnect)
	if err != nil {
		return err
	}
	app.stores = stores

	client := catalogapi.NewClient(cfg.APIBaseURL, cfg.APITimeout, catalogapi.WithLogger(logger))
	app.cache = querycache.New(querycache.Options{
		StaleTime:  cfg.StaleTime,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	app.catalog = catalog.NewService(client, app.cache, logger)
	app.cart = cartstore.New(ctx, stores.GetKVStore(), cfg.CartKey, cartstore.WithLogger(logger))

	logger.Debug("setup complete",
		zap.String("api", cfg.APIBaseURL),
		zap.String("storage", string(cfg.StorageBackend)),
		zap.String("cart_key", cfg.CartKey),
	)
	return nil
}

// sharedSetupWrapper wraps sharedSetup to provide context for Cobra's PreRunE.
func sharedSetupWrapper(cmd *cobra.Command, args []string) error {
	return sharedSetup(rootCtx, cmd, args)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// Cleanup flushes traces and closes storage opened by sharedSetup.
func Cleanup() error {
	var errs []error
	if app.logger != nil && app.cache != nil {
		stats := app.cache.Stats()
		app.logger.Debug("query cache",
			zap.Int("entries", stats.Entries),
			zap.Int64("hits", stats.Hits),
			zap.Int64("misses", stats.Misses),
			zap.Int64("fetches", stats.Fetches),
			zap.Int64("errors", stats.Errors),
		)
	}
	if app.shutdown != nil {
		errs = append(errs, app.shutdown(rootCtx))
	}
	if app.stores != nil {
		errs = append(errs, app.stores.Close())
	}
	if app.logger != nil {
		_ = app.logger.Sync()
	}
	return errors.Join(errs...)
}
