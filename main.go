// main is the entry point for the storefront CLI.
package main

import (
	"os"

	"github.com/huangsam/storefront/cmd"
	"github.com/huangsam/storefront/internal/contract"
)

func main() {
	err := cmd.Execute()
	if cerr := cmd.Cleanup(); cerr != nil {
		contract.LogWarn("Cleanup failed", cerr)
	}
	if err != nil {
		contract.LogWarn("Command failed", err)
		os.Exit(1)
	}
}
