package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/schedmaker/internal/core/domain"
)

var heroCmd = &cobra.Command{
	Use:   "hero",
	Short: "Manage the hero image",
}

var heroSetCmd = &cobra.Command{
	Use:   "set [file|url]",
	Short: "Set the hero image",
	Long: `Sets the hero image shown at the top of the graphic.

A file is stored in the image database; an http(s) URL is kept as a link.`,
	Args: cobra.ExactArgs(1),
	RunE: runHeroSet,
}

var heroClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the hero image",
	Args:  cobra.NoArgs,
	RunE:  runHeroClear,
}

func init() {
	heroCmd.AddCommand(heroSetCmd)
	heroCmd.AddCommand(heroClearCmd)
	rootCmd.AddCommand(heroCmd)
}

func runHeroSet(cmd *cobra.Command, args []string) error {
	asset, err := assetFromArg(args[0])
	if err != nil {
		return err
	}
	if err := setHero(cmd, asset); err != nil {
		return err
	}
	cmd.Printf("Hero image set: %s\n", describeAsset(asset))
	return nil
}

func runHeroClear(cmd *cobra.Command, _ []string) error {
	if err := setHero(cmd, domain.EmptyAsset()); err != nil {
		return err
	}
	cmd.Println("Hero image removed.")
	return nil
}

func setHero(cmd *cobra.Command, asset domain.Asset) error {
	s, err := currentSession(cmd.Context())
	if err != nil {
		return err
	}
	err = s.State.Update(func(state *domain.ConfigState) error {
		state.HeroURL = asset
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to update hero: %w", err)
	}
	return checkSaved(s)
}
