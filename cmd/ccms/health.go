package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"ccms/internal/app"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check environment, database, vector store and WordPress",
	RunE: func(cmd *cobra.Command, _ []string) error {
		out := cmd.OutOrStdout()
		application, err := openApp(cmd.Context())
		if err != nil {
			report := app.HealthReport{Env: app.CheckEnv(), DatabaseError: err.Error()}
			printHealth(out, report)
			return withCode(exitFailure, errors.New("unhealthy"))
		}
		defer application.Close()

		report := application.Health(cmd.Context())
		printHealth(out, report)
		if !report.Healthy() {
			return withCode(exitFailure, errors.New("unhealthy"))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

func printHealth(w io.Writer, r app.HealthReport) {
	fmt.Fprintln(w, "Environment:")
	for _, c := range r.Env {
		mark := "ok"
		switch {
		case !c.Present && c.Required:
			mark = "MISSING"
		case !c.Present:
			mark = "not set (optional)"
		}
		fmt.Fprintf(w, "  %-24s %s\n", c.Name, mark)
	}

	fmt.Fprint(w, "Database:     ")
	if r.DatabaseError != "" {
		fmt.Fprintln(w, "unreachable:", r.DatabaseError)
	} else {
		fmt.Fprintln(w, "ok")
	}

	fmt.Fprint(w, "Vector store: ")
	if r.VectorError != "" {
		fmt.Fprintln(w, r.VectorError)
	} else {
		fmt.Fprintf(w, "%d documents\n", r.VectorCount)
	}

	if r.WordPressErr != "" {
		fmt.Fprintln(w, "WordPress:   ", r.WordPressErr)
	}
	for _, d := range r.Disabled {
		fmt.Fprintln(w, "Disabled:    ", d)
	}
}
