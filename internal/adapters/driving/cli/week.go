package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/schedmaker/internal/core/domain"
)

var (
	weekStartFlag  string
	weekAnchorFlag string
	weekScaleFlag  float64
)

var weekCmd = &cobra.Command{
	Use:   "week",
	Short: "Update week and export settings",
	Long:  `Updates the first day of the week, the week shown, and the export scale.`,
	Example: `  schedmaker week --start sun
  schedmaker week --anchor 2025-09-01 --scale 3`,
	Args: cobra.NoArgs,
	RunE: runWeek,
}

func init() {
	weekCmd.Flags().StringVar(&weekStartFlag, "start", "", "first day of the week (sun or mon)")
	weekCmd.Flags().StringVar(&weekAnchorFlag, "anchor", "", "any date within the week, YYYY-MM-DD")
	weekCmd.Flags().Float64Var(&weekScaleFlag, "scale", 0, "export pixel ratio")
	rootCmd.AddCommand(weekCmd)
}

func runWeek(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	if !flags.Changed("start") && !flags.Changed("anchor") && !flags.Changed("scale") {
		return fmt.Errorf("%w: nothing to change, see --help for flags", domain.ErrInvalidInput)
	}
	if flags.Changed("anchor") {
		if _, err := time.Parse(time.DateOnly, weekAnchorFlag); err != nil {
			return fmt.Errorf("%w: anchor must be YYYY-MM-DD, got %q", domain.ErrInvalidInput, weekAnchorFlag)
		}
	}

	s, err := currentSession(cmd.Context())
	if err != nil {
		return err
	}
	err = s.State.Update(func(state *domain.ConfigState) error {
		if flags.Changed("start") {
			if err := state.SetWeekStart(domain.WeekStart(weekStartFlag)); err != nil {
				return err
			}
		}
		if flags.Changed("anchor") {
			state.Week.WeekAnchorDate = weekAnchorFlag
		}
		if flags.Changed("scale") {
			if err := state.SetExportScale(weekScaleFlag); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to update week: %w", err)
	}
	if err := checkSaved(s); err != nil {
		return err
	}
	cmd.Println("Week updated.")
	return nil
}
