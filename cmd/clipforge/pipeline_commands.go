package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"clipforge/internal/config"
	"clipforge/internal/pipeline"
	"clipforge/internal/state"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var topicFlag string
	var dryRunFlag bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Draft, produce, and upload one topic end to end",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withOrchestrator(func(cfg *config.Config, store *state.Store, orchestrator *pipeline.Orchestrator) error {
				unit, err := orchestrator.Run(cmd.Context(), topicFlag, dryRunFlag)
				if err != nil {
					return err
				}
				if dryRunFlag {
					fmt.Fprintf(cmd.OutOrStdout(), "Drafted %s: %s (dry run, stopping)\n", unit.ID, unit.Topic)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Completed %s: %s\n", unit.ID, unit.Topic)
				return printUploadResults(cmd, cfg, store, unit)
			})
		},
	}
	cmd.Flags().StringVar(&topicFlag, "topic", "", "Topic to produce (discovered automatically when omitted)")
	cmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Stop after the draft phase")
	return cmd
}

func newDraftCommand(ctx *commandContext) *cobra.Command {
	var topicFlag string

	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Create a work unit and write its script draft",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withOrchestrator(func(cfg *config.Config, store *state.Store, orchestrator *pipeline.Orchestrator) error {
				unit, err := orchestrator.Draft(cmd.Context(), topicFlag)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Drafted %s: %s\n", unit.ID, unit.Topic)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&topicFlag, "topic", "", "Topic to draft (discovered automatically when omitted)")
	return cmd
}

func newProduceCommand(ctx *commandContext) *cobra.Command {
	var forceFlag bool

	cmd := &cobra.Command{
		Use:   "produce <unit-id>",
		Short: "Render the finished video for every configured language",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withOrchestrator(func(cfg *config.Config, store *state.Store, orchestrator *pipeline.Orchestrator) error {
				if err := orchestrator.Produce(cmd.Context(), args[0], forceFlag); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Produced %s\n", args[0])
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&forceFlag, "force", false, "Reset and rerun the produce stages")
	return cmd
}

func newUploadCommand(ctx *commandContext) *cobra.Command {
	var forceFlag bool

	cmd := &cobra.Command{
		Use:   "upload <unit-id>",
		Short: "Publish the finished video for every configured language",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withOrchestrator(func(cfg *config.Config, store *state.Store, orchestrator *pipeline.Orchestrator) error {
				if err := orchestrator.Upload(cmd.Context(), args[0], forceFlag); err != nil {
					return err
				}
				unit, err := store.GetUnit(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printUploadResults(cmd, cfg, store, unit)
			})
		},
	}
	cmd.Flags().BoolVar(&forceFlag, "force", false, "Reset and rerun the upload stages")
	return cmd
}

func printUploadResults(cmd *cobra.Command, cfg *config.Config, store *state.Store, unit *state.Unit) error {
	languages := cfg.Languages
	if len(languages) == 0 {
		languages = []string{"en"}
	}
	for _, variant := range languages {
		snapshot, err := store.Snapshot(cmd.Context(), unit.ID, variant)
		if err != nil {
			return err
		}
		if url := snapshot.Output(state.StageUpload); url != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", variant, url)
		}
	}
	return nil
}
