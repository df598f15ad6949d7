package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/schedmaker/internal/core/domain"
)

var resetDaysOnly bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the default configuration",
	Long: `Restores the default configuration and removes every stored image.

With --days only the day plans are reset; the hero image and week settings
are kept.`,
	Args: cobra.NoArgs,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().BoolVar(&resetDaysOnly, "days", false, "reset only the day plans")
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, _ []string) error {
	s, err := currentSession(cmd.Context())
	if err != nil {
		return err
	}

	if resetDaysOnly {
		err = s.State.Update(func(state *domain.ConfigState) error {
			state.ResetDays()
			return nil
		})
	} else {
		s.State.Replace(domain.DefaultConfig())
	}
	if err != nil {
		return fmt.Errorf("failed to reset: %w", err)
	}
	if err := checkSaved(s); err != nil {
		return err
	}

	if resetDaysOnly {
		cmd.Println("Day plans reset.")
	} else {
		cmd.Println("Configuration reset to defaults.")
	}
	return nil
}
