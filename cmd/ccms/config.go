package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ccms/internal/usecase"
)

var configFlags struct {
	tenant string
	casino string
	locale string
	format string
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the resolved chain configuration for a tenant",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if configFlags.format != "table" && configFlags.format != "json" {
			return fmt.Errorf("--format must be table or json, got %q", configFlags.format)
		}
		application, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer application.Close()

		res, err := application.ResolveConfig(cmd.Context(), configFlags.tenant, configFlags.casino, configFlags.locale)
		if err != nil {
			return err
		}
		if configFlags.format == "json" {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}
		return printConfigTable(cmd.OutOrStdout(), res)
	},
}

func init() {
	configCmd.Flags().StringVar(&configFlags.tenant, "tenant", "", "tenant slug")
	configCmd.Flags().StringVar(&configFlags.casino, "casino", "", "casino slug, includes its overrides")
	configCmd.Flags().StringVar(&configFlags.locale, "locale", "", "locale code (default: tenant locale)")
	configCmd.Flags().StringVar(&configFlags.format, "format", "table", "output format: table or json")
	_ = configCmd.MarkFlagRequired("tenant")
	rootCmd.AddCommand(configCmd)
}

func printConfigTable(w io.Writer, res usecase.Resolution) error {
	fmt.Fprintf(w, "Tenant: %s (%s)  locale=%s  jurisdiction=%s\n\n",
		res.Tenant.BrandName, res.Tenant.Slug, res.Tenant.Locale, res.Tenant.Jurisdiction)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CHAIN\tKEY\tVALUE")
	for _, chain := range res.Merged.Names() {
		opts := res.Merged.Chain(chain)
		keys := make([]string, 0, len(opts))
		for k := range opts {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			raw, err := json.Marshal(opts[k])
			if err != nil {
				return fmt.Errorf("encode %s.%s: %w", chain, k, err)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", chain, k, raw)
		}
	}
	return tw.Flush()
}
