package outwriter

import (
	"os"

	"github.com/huangsam/storefront/internal/contract"
	"golang.org/x/term"
)

// getMaxTableTitleWidth calculates the maximum width for product titles in
// table output based on terminal width and the fixed columns.
func getMaxTableTitleWidth(cfg *contract.Config, fixedColumns int) int {
	termWidth := cfg.Width
	if termWidth == 0 { // Not set by override
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			// Conservative default for narrow terminals and CI
			termWidth = 80
		} else {
			termWidth = detectedWidth
		}
	}

	// Table borders, separators and padding
	available := termWidth - fixedColumns - 20
	if available < 15 {
		return 15
	}
	if available > 70 {
		return 70
	}
	return available
}
