package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/siteaudit/siteaudit/internal/config"
	"github.com/siteaudit/siteaudit/internal/database"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [site]",
		Short: "List past audits from the local history database",
		Long: `History lists audits recorded by previous runs, newest first.

With a site argument, only that site's audits are shown.

Examples:
  # List all recorded audits
  siteaudit history

  # List audits of one site
  siteaudit history example.com

  # Show only the five most recent audits
  siteaudit history --limit 5`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", 0,
		"Maximum number of audits to list (0 for all)")
	cmd.Flags().String("db-dir", "",
		"Directory for the audit history database (default: XDG data dir)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	var site string
	if len(args) == 1 {
		site = targetHost(args[0])
		if site == "" {
			site = args[0]
		}
	}

	db, err := database.Open(dbDir, database.Options{EnableWAL: true})
	if err != nil {
		return fmt.Errorf("no audit history found (run an audit first): %w", err)
	}
	defer db.Close()

	history, err := db.GetHistory(cmd.Context(), site, limit)
	if err != nil {
		return fmt.Errorf("failed to read audit history: %w", err)
	}

	if len(history) == 0 {
		if site != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "No audits recorded for %s.\n", site)
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "No audits recorded yet.")
		}
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tSITE\tSTATUS\tPAGES\tFORMS\tAUDIT ID")
	for _, meta := range history {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
			meta.Timestamp.Format("2006-01-02 15:04"),
			meta.Site,
			meta.Status,
			meta.PagesAnalyzed,
			meta.TotalForms,
			meta.AuditID,
		)
	}
	return w.Flush()
}
