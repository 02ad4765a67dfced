package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"clipforge/internal/state"
	"clipforge/internal/textutil"
	"clipforge/internal/topics"
)

func newTopicsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "topics",
		Short: "Discover and rank topic candidates without drafting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := state.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			engine := topics.NewEngine(cfg.Topics,
				topics.WithHistory(topics.NewHistory(store)),
				topics.WithLogger(ctx.logger(cfg)))
			candidates, err := engine.Discover(cmd.Context())
			if err != nil {
				return err
			}
			if len(candidates) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No topic candidates found. Check source configuration or try again later.")
				return nil
			}

			rows := make([][]string, 0, len(candidates))
			for i, candidate := range candidates {
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					textutil.Truncate(candidate.Text, 60),
					candidate.Source,
					fmt.Sprintf("%.2f", candidate.Score),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"#", "Topic", "Source", "Score"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight}))
			return nil
		},
	}
	return cmd
}
