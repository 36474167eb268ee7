package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"newsreel/internal/logging"
	"newsreel/internal/settings"
)

func newTopicsCommand(ctx *commandContext) *cobra.Command {
	topicsCmd := &cobra.Command{
		Use:   "topics",
		Short: "Manage the saved topic list",
		Long:  "The saved topic list overrides the trending feed for triggered runs.\nAn empty list means runs pull topics from the feed.",
	}

	topicsCmd.AddCommand(newTopicsListCommand(ctx))
	topicsCmd.AddCommand(newTopicsSetCommand(ctx))
	topicsCmd.AddCommand(newTopicsClearCommand(ctx))

	return topicsCmd
}

func openTopicStore(ctx *commandContext) (*settings.Store, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	store, err := settings.Open(cfg.TopicsFilePath(), cfg.Topics.Defaults, logging.NewNop())
	if err != nil {
		return nil, fmt.Errorf("open topic settings: %w", err)
	}
	return store, nil
}

func newTopicsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the saved topic list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openTopicStore(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			topics := store.Topics()
			if len(topics) == 0 {
				fmt.Fprintln(out, "No saved topics; runs use the trending feed")
				return nil
			}

			rows := make([][]string, 0, len(topics))
			for i, topic := range topics {
				rows = append(rows, []string{strconv.Itoa(i + 1), topic})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"#", "Topic"},
				rows,
				[]columnAlignment{alignRight, alignLeft},
			))
			return nil
		},
	}
}

func newTopicsSetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set TOPIC...",
		Short: "Replace the saved topic list",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openTopicStore(ctx)
			if err != nil {
				return err
			}
			if err := store.Replace(args); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %d topics\n", len(store.Topics()))
			return nil
		},
	}
}

func newTopicsClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Empty the saved topic list so runs use the feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openTopicStore(ctx)
			if err != nil {
				return err
			}
			if err := store.Replace(nil); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Cleared saved topics")
			return nil
		},
	}
}
