package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var gcCmd = &cobra.Command{
	Use:   "gc",
	Short: "Remove images no longer referenced",
	Long: `Deletes stored images that the saved configuration no longer refers to.

Images are normally removed as soon as they are replaced or cleared; gc
reclaims any left behind by interrupted runs or failed deletions.`,
	Args: cobra.NoArgs,
	RunE: runGC,
}

func init() {
	rootCmd.AddCommand(gcCmd)
}

func runGC(cmd *cobra.Command, _ []string) error {
	s, err := currentSession(cmd.Context())
	if err != nil {
		return err
	}

	removed, err := s.Sweep(cmd.Context())
	if err != nil {
		return fmt.Errorf("gc failed: %w", err)
	}

	if removed == 0 {
		cmd.Println("No unreferenced images.")
		return nil
	}
	cmd.Printf("Removed %d unreferenced image(s).\n", removed)
	return nil
}
