package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"newsreel/internal/encoding"
	"newsreel/internal/history"
	"newsreel/internal/images"
	"newsreel/internal/logging"
	"newsreel/internal/pipeline"
	"newsreel/internal/settings"
	"newsreel/internal/speech"
	"newsreel/internal/topics"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var topicFlags []string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline once and print the resulting video path",
		Long:  "Runs the full pipeline: acquire topics, compose the script, synthesize\nspeech, fetch a background image, and render the video.\n\nTopic precedence: --topic flags, then the saved topic list, then the feed.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, ctx, topicFlags)
		},
	}

	cmd.Flags().StringArrayVarP(&topicFlags, "topic", "t", nil, "Topic to narrate instead of the feed (repeatable)")
	return cmd
}

// runPipeline is the one-shot path shared by the root command and `run`.
func runPipeline(cmd *cobra.Command, ctx *commandContext, overrides []string) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := history.Open(cfg)
	if err != nil {
		return fmt.Errorf("open history store: %w", err)
	}
	defer store.Close()

	topicStore, err := settings.Open(cfg.TopicsFilePath(), cfg.Topics.Defaults, logger)
	if err != nil {
		return fmt.Errorf("open topic settings: %w", err)
	}

	encoder, err := encoding.New(cfg, logger)
	if err != nil {
		return err
	}

	orch := pipeline.New(cfg, logger,
		topics.NewRedditSource(cfg, logger),
		speech.NewHTTPSynthesizer(cfg, logger),
		images.NewHTTPFetcher(cfg, logger),
		encoder,
		pipeline.WithHistory(store),
		pipeline.WithProber(encoder),
	)

	if len(overrides) == 0 {
		overrides = topicStore.Topics()
	}

	result, err := orch.Run(signalCtx, overrides)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Narrated %d topics\n", len(result.Topics))
	fmt.Fprintf(out, "Video created: %s\n", result.Artifacts.Video)
	return nil
}
