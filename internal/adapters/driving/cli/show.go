package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/schedmaker/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/schedmaker/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/schedmaker/internal/adapters/driven/storage/unavailable"
	"github.com/custodia-labs/schedmaker/internal/core/domain"
	"github.com/custodia-labs/schedmaker/internal/core/services"
)

var showJSON bool

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current schedule",
	Long: `Shows the week plan, images and export settings, along with where
they are stored.`,
	Args: cobra.NoArgs,
	RunE: runShow,
}

func init() {
	showCmd.Flags().BoolVar(&showJSON, "json", false, "output the configuration as JSON")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, _ []string) error {
	s, err := currentSession(cmd.Context())
	if err != nil {
		return err
	}
	state := s.State.Get()

	if showJSON {
		data, err := json.MarshalIndent(state, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal configuration: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Print(renderState(state, stylesFor(cmd.OutOrStdout())))
	cmd.Println()
	cmd.Println(renderStorage(s, stylesFor(cmd.OutOrStdout())))
	return nil
}

// renderState formats the schedule for display.
func renderState(state domain.ConfigState, st *Styles) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", st.Title.Render("Weekly Schedule"))
	fmt.Fprintf(&b, "%s %s (starts %s)\n", st.Label.Render("Week of   "),
		orNone(state.Week.WeekAnchorDate), weekStartDay(state.WeekStart).Label())
	fmt.Fprintf(&b, "%s %s, export scale %gx\n", st.Label.Render("Template  "), state.Template, state.ExportScale)
	fmt.Fprintf(&b, "%s %s\n", st.Label.Render("Hero      "), describeAsset(state.HeroURL))
	b.WriteString("\n")

	for _, key := range orderedDays(state.WeekStart) {
		day := state.Day(key)
		name := st.Subtitle.Render(fmt.Sprintf("%-10s", key.Label()))
		if !day.Enabled {
			fmt.Fprintf(&b, "%s %s\n", name, st.Muted.Render("off"))
		} else {
			fmt.Fprintf(&b, "%s %s at %s (%s)\n", name, orNone(day.GameName), orNone(day.Time), orNone(day.Timezone))
		}
		if !day.LogoURL.IsZero() {
			fmt.Fprintf(&b, "%s %s\n", st.Label.Render("  logo    "), describeAsset(day.LogoURL))
		}
		if !day.GraphicURL.IsZero() {
			fmt.Fprintf(&b, "%s %s\n", st.Label.Render("  graphic "), describeAsset(day.GraphicURL))
		}
	}

	return b.String()
}

// renderStorage describes where state is kept and how it was restored.
func renderStorage(s *services.Session, st *Styles) string {
	var b strings.Builder

	switch store := blobStore.(type) {
	case *sqlite.Store:
		fmt.Fprintf(&b, "%s images in %s\n", st.Label.Render("Storage   "), store.Path())
	case *memory.BlobStore:
		fmt.Fprintf(&b, "%s %s\n", st.Label.Render("Storage   "),
			st.Warning.Render("images kept in memory for this run only"))
	case *unavailable.BlobStore:
		fmt.Fprintf(&b, "%s %s\n", st.Label.Render("Storage   "),
			st.Warning.Render(fmt.Sprintf("images are not saved (%v)", store.Cause())))
	}
	if fallbackStore != nil {
		fmt.Fprintf(&b, "%s %s\n", st.Label.Render("Document  "), fallbackStore.PathFor(s.Key()))
	}

	switch s.Outcome.Source {
	case services.SourcePersisted:
		b.WriteString(st.Success.Render("Restored saved configuration."))
	case services.SourceAbsent:
		b.WriteString(st.Muted.Render("No saved configuration yet, showing defaults."))
	default:
		b.WriteString(st.Error.Render(fmt.Sprintf("Saved configuration unreadable, showing defaults: %v", s.Outcome.Err)))
	}
	return b.String()
}

// describeAsset summarises an image field.
func describeAsset(a domain.Asset) string {
	switch a.Kind {
	case domain.AssetRaw:
		mediaType := a.MediaType
		if mediaType == "" {
			mediaType = "image"
		}
		return fmt.Sprintf("%s, %s", mediaType, formatBytes(len(a.Data)))
	case domain.AssetReference:
		return "stored image " + a.ID
	case domain.AssetExternal:
		return a.URL
	default:
		return "none"
	}
}

// formatBytes renders n in binary units.
func formatBytes(n int) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := unit, 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGT"[exp])
}

// orderedDays returns the days of the week starting at start.
func orderedDays(start domain.WeekStart) []domain.DayKey {
	days := domain.AllDayKeys()
	if start != domain.WeekStartMonday {
		return days
	}
	return append(days[1:], days[0])
}

func weekStartDay(start domain.WeekStart) domain.DayKey {
	if start == domain.WeekStartSunday {
		return domain.DaySunday
	}
	return domain.DayMonday
}

func orNone(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
