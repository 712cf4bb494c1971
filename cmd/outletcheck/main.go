// Command outletcheck connects to every outlet database in the directory and
// reports which ones are reachable. It exits non-zero when any outlet fails.
package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"pos-coupon/internal/config"
	"pos-coupon/internal/outlet"
)

func main() {
	failed, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func run() (int, error) {
	cfg, err := config.LoadOutlets()
	if err != nil {
		return 0, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	directory, err := outlet.LoadDirectory(ctx, cfg.S3, cfg.Outlets.File, logger)
	if err != nil {
		return 0, fmt.Errorf("failed to load outlet directory: %w", err)
	}

	registry := outlet.NewRegistry(directory, outlet.PoolConfig{
		UserOverride:     cfg.Outlets.UserOverride,
		PasswordOverride: cfg.Outlets.PasswordOverride,
		MaxConnections:   1,
	}, logger)
	defer registry.Close()

	fmt.Printf("Checking %d outlet databases...\n\n", directory.Len())

	results := registry.CheckAll(ctx)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "OUTLET\tHOST\tSTATUS\tMESSAGE")

	failed := 0
	for _, res := range results {
		if res.Status != outlet.StatusSuccess {
			failed++
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", res.Outlet, res.Host, res.Status, res.Message)
	}
	if err := w.Flush(); err != nil {
		return 0, fmt.Errorf("failed to write report: %w", err)
	}

	fmt.Printf("\nTotal: %d  Success: %d  Failed: %d\n", len(results), len(results)-failed, failed)

	return failed, nil
}
