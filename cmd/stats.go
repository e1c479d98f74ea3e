package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/naka-gawa/repo-event-stats/internal/domain"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats owner/repo [owner/repo...]",
	Short: "Computes event statistics for repositories and outputs them as JSON",
	Long: `Computes the average time between events of each type for up to five
repositories and outputs the result in JSON format. Repositories that were
computed before are read from the store instead of being fetched again.`,
	Args: cobra.RangeArgs(1, domain.MaxRepositories),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		logger := newLogger(cmd)

		repos, err := parseRepositories(args)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		cfg, err := loadConfig(cmd, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}

		// Inject dependencies and run the main business logic.
		aggregator, closeStore, err := newAggregator(ctx, cfg, nil, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		defer closeStore()

		results, err := aggregator.GetStatistics(ctx, repos)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to compute stats: %v\n", err)
			closeStore()
			os.Exit(1)
		}

		// Marshal the results into a pretty-printed JSON string.
		jsonData, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to marshal results to JSON: %v\n", err)
			os.Exit(1)
		}

		// Print the final JSON to standard output.
		fmt.Println(string(jsonData))
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
