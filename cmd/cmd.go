// Package cmd defines the command-line interface for storefront.
package cmd

import (
	"github.com/huangsam/storefront/internal/contract"
	"github.com/huangsam/storefront/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(productsCmd)
	rootCmd.AddCommand(cartCmd)
	rootCmd.AddCommand(storageCmd)
	rootCmd.AddCommand(fakestoreCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the products subcommands to the parent products command
	productsCmd.AddCommand(productsListCmd)
	productsCmd.AddCommand(productsGetCmd)
	productsCmd.AddCommand(productsCategoryCmd)
	productsCmd.AddCommand(productsCreateCmd)
	productsCmd.AddCommand(productsUpdateCmd)
	productsCmd.AddCommand(productsDeleteCmd)

	// Add the cart subcommands to the parent cart command
	cartCmd.AddCommand(cartShowCmd)
	cartCmd.AddCommand(cartAddCmd)
	cartCmd.AddCommand(cartRemoveCmd)
	cartCmd.AddCommand(cartUpdateCmd)
	cartCmd.AddCommand(cartClearCmd)
	cartCmd.AddCommand(cartTotalCmd)

	// Add the storage subcommands to the parent storage command
	storageCmd.AddCommand(storageStatusCmd)
	storageCmd.AddCommand(storageClearCmd)
	storageCmd.AddCommand(storageMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("api-base-url", contract.DefaultAPIBaseURL, "Base URL of the product catalog API")
	rootCmd.PersistentFlags().String("api-timeout", contract.DefaultAPITimeout.String(), "Timeout for each catalog request")
	rootCmd.PersistentFlags().String("stale-time", contract.DefaultStaleTime.String(), "How long a cached query is served without refetching")
	rootCmd.PersistentFlags().String("retry-delay", contract.DefaultRetryDelay.String(), "Delay before retrying a failed catalog request")
	rootCmd.PersistentFlags().String("storage-backend", string(schema.SQLiteBackend), "Cart storage backend: sqlite or mysql or postgresql or redis or none")
	rootCmd.PersistentFlags().String("storage-db-connect", "", "Connection string for mysql/postgresql/redis, or the SQLite file path")
	rootCmd.PersistentFlags().String("cart-key", contract.DefaultCartKey, "Storage key the cart is persisted under")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for prices")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Write debug logs to stderr")
	rootCmd.PersistentFlags().String("otel-endpoint", "", "OTLP gRPC collector address, or 'stdout' to print spans")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Flags for products list
	productsListCmd.Flags().StringP("search", "s", "", "Only show products whose title contains this text")
	productsListCmd.Flags().StringP("category", "c", schema.AllCategories, "Only show products of this category")
	productsListCmd.Flags().Float64("min-price", 0, "Inclusive lower price bound")
	productsListCmd.Flags().Float64("max-price", 0, "Inclusive upper price bound")
	productsListCmd.Flags().IntP("limit", "l", 0, "Number of results to display (0 = all)")

	// Flags for products create and update
	for _, c := range []*cobra.Command{productsCreateCmd, productsUpdateCmd} {
		c.Flags().String("title", "", "Product title")
		c.Flags().Float64("price", 0, "Product price")
		c.Flags().String("description", "", "Product description")
		c.Flags().String("category", "", "Product category")
		c.Flags().String("image", "", "Product image URL")
	}

	// Flags for cart add
	cartAddCmd.Flags().IntP("quantity", "q", 1, "Units to add")

	// Flags for storage migrate
	storageMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")

	// Flags for fakestore
	fakestoreCmd.Flags().String("addr", "127.0.0.1:8080", "Address to listen on")
	fakestoreCmd.Flags().Duration("delay", 0, "Artificial latency added to every response")
}
