package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "prosektor-api",
	Short: "Prosektor API - Multi-tenant auth and tenant resolution service",
	Long:  `Authentication and authorization service with custom token issuance, tenant resolution, and rate limiting.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
