package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "goaltracker",
		Short:         "Track yearly goals with daily check-ins",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), configPath)
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file (defaults to $CONFIG_FILE)")

	root.AddCommand(newServeCmd(&configPath))
	root.AddCommand(newSyncCmd(&configPath))
	root.AddCommand(newMigrateCmd(&configPath))
	root.AddCommand(newReportCmd(&configPath))
	return root
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Load the task catalog and serve the web UI and API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), *configPath)
		},
	}
}

func newSyncCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Apply migrations and load the task catalog into the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer a.close()

			res, err := a.catalog.SyncFile(cmd.Context(), a.cfg.TasksFile)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "catalog %s: %d created, %d updated\n", a.cfg.TasksFile, res.Created, res.Updated)
			return err
		},
	}
}

func newMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and print the history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer a.close()

			history, err := a.migrationHistory()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, rec := range history {
				if _, err := fmt.Fprintf(out, "%3d  %-24s %s\n", rec.Version, rec.Name, rec.AppliedAt.Format("2006-01-02 15:04:05")); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newReportCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Print today's progress summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer a.close()

			text, err := a.reminders.DailySummary(cmd.Context())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
			return err
		},
	}
}
