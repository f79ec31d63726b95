package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lineforge/weekboard/internal/ledger"
	"github.com/lineforge/weekboard/internal/platform/postgres"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "list installed run manifests from the ledger",
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := postgres.ConfigFromEnv()
	if err != nil {
		return &configError{err: err}
	}
	if !cfg.Enabled() {
		return &configError{err: errors.New("WEEKBOARD_DATABASE_URL is not configured")}
	}
	db, err := postgres.Open(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := ledger.EnsureSchema(cmd.Context(), db); err != nil {
		return err
	}
	manifests, err := ledger.List(cmd.Context(), db)
	if err != nil {
		return err
	}
	for _, m := range manifests {
		fmt.Fprintf(cmd.OutOrStdout(), "%s  week=%d  tag=%s  rev=%.12s  digest=%.12s  installed=%s\n",
			m.RunID, m.Week, m.WeekTag, m.Revision, m.Digest,
			m.CreatedAt.Format("2006-01-02T15:04:05Z"))
	}
	return nil
}
