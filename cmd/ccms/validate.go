package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"ccms/internal/usecase"
)

var validateFlags struct {
	tenant string
	casino string
	locale string
	json   bool
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check whether a casino has enough research to run the pipeline",
	RunE: func(cmd *cobra.Command, _ []string) error {
		application, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer application.Close()

		report, err := application.Validate(cmd.Context(), validateFlags.tenant, validateFlags.casino, validateFlags.locale)
		if err != nil {
			return err
		}
		if validateFlags.json {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				return err
			}
		} else {
			printReadiness(cmd.OutOrStdout(), report)
		}
		if report.Blocked() {
			return withCode(exitCompliance, errors.New("blocking research facts are missing"))
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateFlags.tenant, "tenant", "crashcasino", "tenant slug")
	validateCmd.Flags().StringVar(&validateFlags.casino, "casino", "", "casino slug")
	validateCmd.Flags().StringVar(&validateFlags.locale, "locale", "en-GB", "locale code")
	validateCmd.Flags().BoolVar(&validateFlags.json, "json", false, "print the report as JSON")
	_ = validateCmd.MarkFlagRequired("casino")
	rootCmd.AddCommand(validateCmd)
}

func printReadiness(w io.Writer, r usecase.ReadinessReport) {
	yes := func(b bool) string {
		if b {
			return "yes"
		}
		return "no"
	}
	fmt.Fprintf(w, "Casino:        %s (%s, tenant %s)\n", r.CasinoSlug, r.Locale, r.TenantSlug)
	fmt.Fprintf(w, "Research:      %s\n", yes(r.ResearchPresent))
	fmt.Fprintf(w, "Fields:        %d (collection below %d)\n", r.TotalFields, r.MinFields)
	fmt.Fprintf(w, "License:       %s\n", yes(r.LicensePresent))
	fmt.Fprintf(w, "Wagering:      %s\n", yes(r.WageringPresent))
	fmt.Fprintf(w, "Fact score:    %.0f%%\n", r.Compliance.Score*100)
	for _, b := range r.Compliance.Blocking {
		fmt.Fprintf(w, "  blocking     %s\n", b)
	}
	for _, warn := range r.Compliance.Warnings {
		fmt.Fprintf(w, "  warning      %s\n", warn)
	}
	if r.Blocked() {
		fmt.Fprintln(w, "Ready:         no")
		return
	}
	fmt.Fprintln(w, "Ready:         yes")
}
