package cmd

import (
	"fmt"
	"strconv"

	"github.com/huangsam/storefront/internal/catalog"
	"github.com/huangsam/storefront/internal/filterview"
	"github.com/huangsam/storefront/internal/outwriter"
	"github.com/huangsam/storefront/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// productsCmd groups the catalog commands.
var productsCmd = &cobra.Command{
	Use:     "products",
	Aliases: []string{"p"},
	Short:   "Browse and edit the product catalog",
	Long: `Read products from the catalog API and send catalog edits.

Reads go through the query cache, so repeated lookups within a command are
served from memory. Edits invalidate the affected cached queries.

Examples:
  # Cheap jewelery
  storefront products list --category jewelery --max-price 50

  # One product as JSON
  storefront products get 3 --output json`,
}

// productsListCmd lists and filters the catalog.
var productsListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List products, optionally filtered",
	PreRunE: sharedSetupWrapper,
	RunE: func(cmd *cobra.Command, _ []string) error {
		view := filterview.New()
		flags := cmd.Flags()
		search, _ := flags.GetString("search")
		category, _ := flags.GetString("category")
		view.SetSearchQuery(search)
		view.SetCategory(category)
		view.SetPriceRange(changedFloat(flags, "min-price"), changedFloat(flags, "max-price"))

		derived := filterview.Derive(view, app.catalog.Cache(), catalog.ProductsKey())
		defer derived.Close()
		if _, err := app.catalog.Products(rootCtx); err != nil {
			return fmt.Errorf("failed to load products: %w", err)
		}
		products := derived.Products()
		if limit, _ := flags.GetInt("limit"); limit > 0 && limit < len(products) {
			products = products[:limit]
		}
		return outwriter.NewOutWriter().WriteProducts(products, cfg)
	},
}

// productsGetCmd shows one product.
var productsGetCmd = &cobra.Command{
	Use:     "get <id>",
	Short:   "Show one product",
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		product, err := app.catalog.Product(rootCtx, id)
		if err != nil {
			return err
		}
		return outwriter.NewOutWriter().WriteProduct(product, cfg)
	},
}

// productsCategoryCmd lists one category.
var productsCategoryCmd = &cobra.Command{
	Use:     "category <name>",
	Short:   "List the products of one category",
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, args []string) error {
		products, err := app.catalog.ProductsByCategory(rootCtx, args[0])
		if err != nil {
			return fmt.Errorf("failed to load category %q: %w", args[0], err)
		}
		return outwriter.NewOutWriter().WriteProducts(products, cfg)
	},
}

// productsCreateCmd adds a product.
var productsCreateCmd = &cobra.Command{
	Use:     "create",
	Short:   "Create a product",
	PreRunE: sharedSetupWrapper,
	RunE: func(cmd *cobra.Command, _ []string) error {
		flags := cmd.Flags()
		var draft schema.ProductDraft
		draft.Title, _ = flags.GetString("title")
		draft.Price, _ = flags.GetFloat64("price")
		draft.Description, _ = flags.GetString("description")
		draft.Category, _ = flags.GetString("category")
		draft.Image, _ = flags.GetString("image")
		if draft.Title == "" {
			return fmt.Errorf("--title is required")
		}
		if draft.Price < 0 {
			return fmt.Errorf("--price cannot be negative (received %v)", draft.Price)
		}

		created, err := app.catalog.Create(rootCtx, draft)
		if err != nil {
			return err
		}
		return outwriter.NewOutWriter().WriteProduct(created, cfg)
	},
}

// productsUpdateCmd patches a product with the flags that were set.
var productsUpdateCmd = &cobra.Command{
	Use:     "update <id>",
	Short:   "Update fields of a product",
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		patch := schema.ProductPatch{
			Title:       changedString(flags, "title"),
			Price:       changedFloat(flags, "price"),
			Description: changedString(flags, "description"),
			Category:    changedString(flags, "category"),
			Image:       changedString(flags, "image"),
		}
		updated, err := app.catalog.Update(rootCtx, id, patch)
		if err != nil {
			return err
		}
		return outwriter.NewOutWriter().WriteProduct(updated, cfg)
	},
}

// productsDeleteCmd removes a product.
var productsDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Short:   "Delete a product",
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := app.catalog.Delete(rootCtx, id); err != nil {
			return err
		}
		cmd.Printf("Deleted product %d\n", id)
		return nil
	},
}

// parseID parses a positive product id argument.
func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid product id %q: must be a positive integer", s)
	}
	return id, nil
}

// changedString returns the flag value only when the user set it.
func changedString(flags *pflag.FlagSet, name string) *string {
	if !flags.Changed(name) {
		return nil
	}
	v, _ := flags.GetString(name)
	return &v
}

// changedFloat returns the flag value only when the user set it.
func changedFloat(flags *pflag.FlagSet, name string) *float64 {
	if !flags.Changed(name) {
		return nil
	}
	v, _ := flags.GetFloat64(name)
	return &v
}
