/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/eshop-api/products/config"
	"github.com/eshop-api/products/internal/mq"
	"github.com/eshop-api/products/internal/services"
	"github.com/eshop-api/products/internal/storage"
)

// workerCmd represents the worker command
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Starts the catalog events worker",
	Long: `Starts the catalog events worker. It consumes catalog events and
removes images of deleted products from object storage. Usage:

	eshop-api worker
`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.LoadConfig()

		images, err := storage.Open(cmd.Context(), cfg.Storage)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open image storage: %v\n", err)
			os.Exit(1)
		}
		if images == nil {
			fmt.Fprintln(os.Stderr, "STORAGE_BACKEND is required for the worker")
			os.Exit(1)
		}

		broker, err := mq.Open(cmd.Context(), cfg.MQ)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open event broker: %v\n", err)
			os.Exit(1)
		}
		if broker == nil {
			fmt.Fprintln(os.Stderr, "MQ_BACKEND is required for the worker")
			os.Exit(1)
		}
		defer func() {
			_ = broker.Close()
		}()

		janitor := services.NewImageJanitor(images, broker, nil)
		if err := janitor.Run(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "worker error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
