package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load tenants, chain configs, research and documents from a YAML fixture",
	RunE: func(cmd *cobra.Command, _ []string) error {
		application, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer application.Close()

		sum, err := application.Seed(cmd.Context(), seedFile)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d tenants, %d chain rows, %d research rows, %d topic clusters, %d documents\n",
			sum.Tenants, sum.ChainRows, sum.Research, sum.TopicClusters, sum.Documents)
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		application, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer application.Close()

		if err := application.Migrate(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
		return nil
	},
}

var runsFlags struct {
	casino string
	limit  int
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded pipeline runs for a casino",
	RunE: func(cmd *cobra.Command, _ []string) error {
		application, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer application.Close()

		runs, err := application.RecentRuns(cmd.Context(), runsFlags.casino, runsFlags.limit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(runs) == 0 {
			fmt.Fprintln(out, "no runs recorded")
			return nil
		}
		for _, r := range runs {
			status := "ok"
			if !r.Success {
				status = "failed"
			}
			if r.DryRun {
				status += " (dry run)"
			}
			fmt.Fprintf(out, "%s  %s  %-18s %5d words  %3.0f%%  %s\n",
				r.CreatedAt.Format(time.RFC3339), r.RunID, status, r.WordCount, r.ComplianceScore*100, r.PublishedURL)
		}
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedFile, "file", "seed.yaml", "YAML fixture path")
	runsCmd.Flags().StringVar(&runsFlags.casino, "casino", "", "casino slug")
	runsCmd.Flags().IntVar(&runsFlags.limit, "limit", 10, "maximum number of runs")
	_ = runsCmd.MarkFlagRequired("casino")
	rootCmd.AddCommand(seedCmd, migrateCmd, runsCmd)
}
