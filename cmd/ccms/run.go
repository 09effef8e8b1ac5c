package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ccms/internal/domain"
	"ccms/internal/usecase"
)

var runFlags struct {
	tenant         string
	casino         string
	locale         string
	dryRun         bool
	skipCompliance bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Research, write and publish one casino review",
	Example: `  ccms run --tenant crashcasino --casino viage --locale en-GB
  ccms run --tenant crashcasino --casino napoleon-games --dry-run`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		application, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer application.Close()

		if runFlags.skipCompliance {
			logger.Warn("compliance gate disabled, not suitable for production")
		}
		if runFlags.dryRun {
			logger.Info("dry run, nothing will be published")
		}

		result, err := application.Run(ctx, domain.RunRequest{
			TenantSlug:     runFlags.tenant,
			CasinoSlug:     runFlags.casino,
			Locale:         runFlags.locale,
			DryRun:         runFlags.dryRun,
			SkipCompliance: runFlags.skipCompliance,
		})
		if err != nil {
			printFailure(cmd.OutOrStdout(), result, err)
			if usecase.IsComplianceError(err) {
				logger.Error("publication blocked by compliance", zap.Error(err))
				return withCode(exitCompliance, err)
			}
			return err
		}
		printSummary(cmd.OutOrStdout(), result)
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runFlags.tenant, "tenant", "", "tenant slug, e.g. crashcasino")
	runCmd.Flags().StringVar(&runFlags.casino, "casino", "", "casino slug, e.g. viage")
	runCmd.Flags().StringVar(&runFlags.locale, "locale", "en-GB", "locale code")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "preview only, do not publish")
	runCmd.Flags().BoolVar(&runFlags.skipCompliance, "skip-compliance", false, "publish even when blocking compliance issues exist")
	_ = runCmd.MarkFlagRequired("tenant")
	_ = runCmd.MarkFlagRequired("casino")
	rootCmd.AddCommand(runCmd)
}

func printSummary(w io.Writer, r domain.RunResult) {
	rule := strings.Repeat("=", 60)
	status := "SUCCESS"
	if !r.Success {
		status = "FAILED"
	}
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "CCMS PIPELINE COMPLETED")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Run:        %s\n", r.RunID)
	fmt.Fprintf(w, "Tenant:     %s\n", r.TenantSlug)
	fmt.Fprintf(w, "Casino:     %s\n", r.CasinoSlug)
	fmt.Fprintf(w, "Locale:     %s\n", r.Locale)
	fmt.Fprintf(w, "Status:     %s\n", status)
	if r.PublishedURL != "" {
		fmt.Fprintf(w, "URL:        %s\n", r.PublishedURL)
	}
	fmt.Fprintf(w, "Words:      %d\n", r.ContentDraft.WordCount)
	fmt.Fprintf(w, "Images:     %d\n", r.MediaAssets.Total())
	fmt.Fprintf(w, "Duration:   %dms\n", r.TotalDurationMS)
	fmt.Fprintf(w, "Events:     %d pipeline events\n", len(r.Events))
	fmt.Fprintf(w, "Compliance: %.1f%%\n", r.ComplianceScore*100)
	if r.ComplianceReport.Bypassed {
		fmt.Fprintln(w, "            (gate bypassed)")
	}
	fmt.Fprintln(w, rule)
}

// printFailure reports how far a failed run got before it stopped.
func printFailure(w io.Writer, r domain.RunResult, err error) {
	rule := strings.Repeat("=", 60)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "CCMS PIPELINE FAILED")
	fmt.Fprintln(w, rule)
	if r.RunID != "" {
		fmt.Fprintf(w, "Run:        %s\n", r.RunID)
	}
	fmt.Fprintf(w, "Tenant:     %s\n", r.TenantSlug)
	fmt.Fprintf(w, "Casino:     %s\n", r.CasinoSlug)
	if len(r.Events) == 0 {
		fmt.Fprintln(w, "Steps:      none")
	} else {
		names := make([]string, 0, len(r.Events))
		for _, e := range r.Events {
			names = append(names, e.Name)
		}
		fmt.Fprintf(w, "Steps:      %s\n", strings.Join(names, ", "))
	}
	if r.ComplianceReport.Checks > 0 {
		fmt.Fprintf(w, "Compliance: %.1f%%\n", r.ComplianceScore*100)
	}
	fmt.Fprintf(w, "Error:      %v\n", err)
	fmt.Fprintln(w, rule)
}
