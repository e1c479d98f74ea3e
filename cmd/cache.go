package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspects and clears stored statistics",
}

var cacheShowCmd = &cobra.Command{
	Use:   "show owner/repo",
	Short: "Shows the stored statistics of a repository",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		logger := newLogger(cmd)
		repos, err := parseRepositories(args)
		if err != nil {
			return err
		}
		cfg, err := loadConfig(cmd, logger)
		if err != nil {
			return err
		}
		cache, closeStore, err := openStore(ctx, cfg.Store, logger)
		if err != nil {
			return err
		}
		defer closeStore()

		record, found, err := cache.Load(ctx, repos[0])
		if err != nil {
			return err
		}
		if !found {
			fmt.Printf("No statistics stored for %s.\n", repos[0])
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "EVENT TYPE\tAVERAGE TIME (S)")
		for _, eventType := range record.EventTypes() {
			fmt.Fprintf(w, "%s\t%.1f\n", eventType, record[eventType])
		}
		return w.Flush()
	},
}

// Statistics never expire, so clearing is the way to force a new fetch.
var cacheClearCmd = &cobra.Command{
	Use:   "clear owner/repo [owner/repo...]",
	Short: "Removes stored statistics so they are fetched again",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		logger := newLogger(cmd)
		repos, err := parseRepositories(args)
		if err != nil {
			return err
		}
		cfg, err := loadConfig(cmd, logger)
		if err != nil {
			return err
		}
		cache, closeStore, err := openStore(ctx, cfg.Store, logger)
		if err != nil {
			return err
		}
		defer closeStore()

		for _, repo := range repos {
			if err := cache.Delete(ctx, repo); err != nil {
				return err
			}
			fmt.Printf("Cleared %s.\n", repo)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheShowCmd, cacheClearCmd)
}
