package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

func newJobsCmd(rt *ctl) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Enqueue background jobs",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "purge-posts",
			Short: "Hard-delete posts soft-deleted past POST_RETENTION",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				client, err := rt.jobs()
				if err != nil {
					return err
				}
				defer func() { _ = client.Close() }()
				info, err := client.EnqueuePostsPurge(cmd.Context(), rt.cfg.PostRetention)
				if err != nil {
					return err
				}
				rt.logger.Info("purge enqueued", slog.String("task_id", info.ID))
				return nil
			},
		},
		&cobra.Command{
			Use:   "train",
			Short: "Trigger a model training run",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				client, err := rt.jobs()
				if err != nil {
					return err
				}
				defer func() { _ = client.Close() }()
				id, err := client.EnqueueModelTrain(cmd.Context())
				if err != nil {
					return err
				}
				rt.logger.Info("training enqueued", slog.String("request_id", id))
				return nil
			},
		},
	)
	return cmd
}
