package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/lineforge/weekboard/internal/platform/objectstore"
	"github.com/lineforge/weekboard/internal/publish"
)

var publishWeek int

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "mirror an installed week partition to object storage",
	RunE:  runPublish,
}

func init() {
	publishCmd.Flags().IntVar(&publishWeek, "week", 0, "week number to publish")
	_ = publishCmd.MarkFlagRequired("week")
	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	window, err := resolveWindow(publishWeek)
	if err != nil {
		return err
	}

	cfg, err := objectstore.ConfigFromEnv()
	if err != nil {
		return &configError{err: err}
	}
	if !cfg.Enabled() {
		return &configError{err: errors.New("WEEKBOARD_S3_ENDPOINT is not configured")}
	}
	client, err := objectstore.NewMinIOClient(cfg)
	if err != nil {
		return err
	}
	if err := objectstore.EnsureBucket(cmd.Context(), client, cfg); err != nil {
		return err
	}
	store, err := objectstore.NewMinioStoreWithClient(client)
	if err != nil {
		return err
	}

	publisher := &publish.Publisher{Logger: logger, Store: store, Bucket: cfg.Bucket}
	return publisher.Publish(cmd.Context(), flagOutRoot, flagReportsRoot, window.WeekTag)
}
