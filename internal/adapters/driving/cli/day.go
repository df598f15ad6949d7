package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/schedmaker/internal/core/domain"
)

var (
	dayEnabled  bool
	dayGame     string
	dayTime     string
	dayTimezone string
	dayLogo     string
	dayGraphic  string
)

var dayCmd = &cobra.Command{
	Use:   "day",
	Short: "Manage the plan for a day",
}

var daySetCmd = &cobra.Command{
	Use:   "set [day]",
	Short: "Update the plan for a day",
	Long: `Updates the plan for a day. Only the given flags are changed.

Days can be given as a key (mon) or name (Monday). Images accept a file, an
http(s) URL, or "none" to remove the image.`,
	Example: `  schedmaker day set fri --enabled --game Chess --time 20:00 --timezone Europe/London
  schedmaker day set fri --logo ./chess.png --graphic https://example.com/board.png
  schedmaker day set sun --enabled=false`,
	Args: cobra.ExactArgs(1),
	RunE: runDaySet,
}

var dayClearCmd = &cobra.Command{
	Use:   "clear [day]",
	Short: "Reset a day to its defaults",
	Args:  cobra.ExactArgs(1),
	RunE:  runDayClear,
}

func init() {
	daySetCmd.Flags().BoolVar(&dayEnabled, "enabled", false, "show the day on the schedule")
	daySetCmd.Flags().StringVar(&dayGame, "game", "", "game played on the day")
	daySetCmd.Flags().StringVar(&dayTime, "time", "", "start time, 24h HH:MM")
	daySetCmd.Flags().StringVar(&dayTimezone, "timezone", "", "IANA timezone of the start time")
	daySetCmd.Flags().StringVar(&dayLogo, "logo", "", "logo image file or URL")
	daySetCmd.Flags().StringVar(&dayGraphic, "graphic", "", "graphic image file or URL")
	dayCmd.AddCommand(daySetCmd)
	dayCmd.AddCommand(dayClearCmd)
	rootCmd.AddCommand(dayCmd)
}

func runDaySet(cmd *cobra.Command, args []string) error {
	key, err := parseDay(args[0])
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	var patches []func(*domain.DayPlan)

	if flags.Changed("enabled") {
		enabled := dayEnabled
		patches = append(patches, func(d *domain.DayPlan) { d.Enabled = enabled })
	}
	if flags.Changed("game") {
		game := dayGame
		patches = append(patches, func(d *domain.DayPlan) { d.GameName = game })
	}
	if flags.Changed("time") {
		if dayTime != "" {
			if _, err := time.Parse("15:04", dayTime); err != nil {
				return fmt.Errorf("%w: time must be HH:MM, got %q", domain.ErrInvalidInput, dayTime)
			}
		}
		start := dayTime
		patches = append(patches, func(d *domain.DayPlan) { d.Time = start })
	}
	if flags.Changed("timezone") {
		if _, err := time.LoadLocation(dayTimezone); err != nil || dayTimezone == "" {
			return fmt.Errorf("%w: unknown timezone %q", domain.ErrInvalidInput, dayTimezone)
		}
		zone := dayTimezone
		patches = append(patches, func(d *domain.DayPlan) { d.Timezone = zone })
	}
	if flags.Changed("logo") {
		logo, err := assetFromArg(dayLogo)
		if err != nil {
			return err
		}
		patches = append(patches, func(d *domain.DayPlan) { d.LogoURL = logo })
	}
	if flags.Changed("graphic") {
		graphic, err := assetFromArg(dayGraphic)
		if err != nil {
			return err
		}
		patches = append(patches, func(d *domain.DayPlan) { d.GraphicURL = graphic })
	}

	if len(patches) == 0 {
		return fmt.Errorf("%w: nothing to change, see --help for flags", domain.ErrInvalidInput)
	}

	if err := updateDay(cmd, key, func(d *domain.DayPlan) {
		for _, patch := range patches {
			patch(d)
		}
	}); err != nil {
		return err
	}
	cmd.Printf("%s updated.\n", key.Label())
	return nil
}

func runDayClear(cmd *cobra.Command, args []string) error {
	key, err := parseDay(args[0])
	if err != nil {
		return err
	}
	if err := updateDay(cmd, key, func(d *domain.DayPlan) { *d = domain.DefaultDay() }); err != nil {
		return err
	}
	cmd.Printf("%s reset.\n", key.Label())
	return nil
}

func updateDay(cmd *cobra.Command, key domain.DayKey, patch func(*domain.DayPlan)) error {
	s, err := currentSession(cmd.Context())
	if err != nil {
		return err
	}
	err = s.State.Update(func(state *domain.ConfigState) error {
		return state.UpdateDay(key, patch)
	})
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", key, err)
	}
	return checkSaved(s)
}
