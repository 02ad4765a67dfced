package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"clipforge/internal/config"
	"clipforge/internal/state"
	"clipforge/internal/textutil"
)

const (
	ansiGreen = "\x1b[32m"
	ansiRed   = "\x1b[31m"
	ansiReset = "\x1b[0m"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status [unit-id]",
		Short: "Show work units, or one unit's stage progress",
		Args:  cobra.MaximumNArgs(1),
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

			if len(args) == 0 {
				return printUnits(cmd, store)
			}
			return printUnitStatus(cmd, cfg, store, args[0])
		},
	}
	return cmd
}

func printUnits(cmd *cobra.Command, store *state.Store) error {
	units, err := store.ListUnits(cmd.Context())
	if err != nil {
		return err
	}
	if len(units) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No work units yet. Start one with 'clipforge draft'.")
		return nil
	}
	rows := make([][]string, 0, len(units))
	for _, unit := range units {
		rows = append(rows, []string{
			unit.ID,
			textutil.Truncate(unit.Topic, 50),
			unit.CreatedAt.Local().Format(time.DateTime),
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"Unit", "Topic", "Created"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft}))
	return nil
}

func printUnitStatus(cmd *cobra.Command, cfg *config.Config, store *state.Store, unitID string) error {
	unit, err := store.GetUnit(cmd.Context(), unitID)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %s\n", unit.ID, unit.Topic)

	languages := cfg.Languages
	if len(languages) == 0 {
		languages = []string{"en"}
	}
	colorize := shouldColorize(out)
	for _, variant := range languages {
		snapshot, err := store.Snapshot(cmd.Context(), unit.ID, variant)
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(snapshot.Records()))
		for _, record := range snapshot.Records() {
			detail := record.OutputRef
			if record.Status == state.StatusFailed {
				detail = record.Error
			}
			rows = append(rows, []string{
				string(record.Name),
				statusLabel(record.Status, colorize),
				textutil.Truncate(detail, 60),
			})
		}
		fmt.Fprintf(out, "\nVariant %s\n", variant)
		fmt.Fprintln(out, renderTable(
			[]string{"Stage", "Status", "Detail"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft}))
	}
	return nil
}

func statusLabel(status state.Status, colorize bool) string {
	if !colorize {
		return string(status)
	}
	switch status {
	case state.StatusDone:
		return ansiGreen + string(status) + ansiReset
	case state.StatusFailed:
		return ansiRed + string(status) + ansiReset
	default:
		return string(status)
	}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
