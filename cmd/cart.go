package cmd

import (
	"fmt"
	"strconv"

	"github.com/huangsam/storefront/internal/outwriter"
	"github.com/spf13/cobra"
)

// cartCmd groups the shopping cart commands.
var cartCmd = &cobra.Command{
	Use:   "cart",
	Short: "Manage the persistent shopping cart",
	Long: `Add, change and remove cart lines. Every change is written through to the
configured storage backend, so the cart survives between runs.

A write failure is reported but the change still applies for the rest of the
command.

Examples:
  storefront cart add 3 --quantity 2
  storefront cart update 3 1
  storefront cart show --output csv`,
}

// cartShowCmd prints the cart.
var cartShowCmd = &cobra.Command{
	Use:     "show",
	Short:   "Show the cart lines and total",
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return writeCart()
	},
}

// cartAddCmd adds a catalog product to the cart.
var cartAddCmd = &cobra.Command{
	Use:     "add <id>",
	Short:   "Add a product to the cart",
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		quantity, _ := cmd.Flags().GetInt("quantity")
		if quantity < 1 {
			return fmt.Errorf("--quantity must be at least 1 (received %d)", quantity)
		}

		product, err := app.catalog.Product(rootCtx, id)
		if err != nil {
			return err
		}
		if err := app.cart.AddItemN(rootCtx, product.ToLineItem(), quantity); err != nil {
			return err
		}
		return writeCart()
	},
}

// cartRemoveCmd drops a line.
var cartRemoveCmd = &cobra.Command{
	Use:     "remove <id>",
	Short:   "Remove a product line from the cart",
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := app.cart.RemoveItem(rootCtx, id); err != nil {
			return err
		}
		return writeCart()
	},
}

// cartUpdateCmd sets the quantity of a line.
var cartUpdateCmd = &cobra.Command{
	Use:     "update <id> <quantity>",
	Short:   "Set the quantity of a cart line (0 removes it)",
	Args:    cobra.ExactArgs(2),
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		quantity, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid quantity %q: %w", args[1], err)
		}
		if err := app.cart.UpdateQuantity(rootCtx, id, quantity); err != nil {
			return err
		}
		return writeCart()
	},
}

// cartClearCmd empties the cart.
var cartClearCmd = &cobra.Command{
	Use:     "clear",
	Short:   "Remove every line from the cart",
	PreRunE: sharedSetupWrapper,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := app.cart.ClearCart(rootCtx); err != nil {
			return err
		}
		cmd.Println("Cart cleared")
		return nil
	},
}

// cartTotalCmd prints the unit count and total price.
var cartTotalCmd = &cobra.Command{
	Use:     "total",
	Short:   "Print the number of units and the total price",
	PreRunE: sharedSetupWrapper,
	RunE: func(cmd *cobra.Command, _ []string) error {
		total := app.cart.TotalPrice()
		cmd.Printf("%d items, total %s\n", app.cart.Count(), total.StringFixed(int32(cfg.Precision)))
		return nil
	},
}

// writeCart prints the current cart in the configured format.
func writeCart() error {
	return outwriter.NewOutWriter().WriteCart(app.cart.Items(), app.cart.TotalPrice(), cfg)
}
