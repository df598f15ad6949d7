package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/schedmaker/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure where and how the schedule is stored.

Use subcommands to change a single setting or run the interactive wizard.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Change a setting",
	Long: `Change a single setting.

Available keys:
  storage.data_dir              - directory for images.db and the configuration document
  storage.blob_driver           - image store: sqlite, memory or none
  storage.fallback_quota_bytes  - size limit of the configuration store
  storage.gc_timeout_seconds    - time allowed for removing replaced images
  storage.load_concurrency      - images resolved in parallel on startup

Flags must come before the key; anything after it is taken as the value.`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Run an interactive wizard to configure storage step by step.`,
	RunE:  runSettingsWizard,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	// Values such as -1 must reach validation instead of the flag parser.
	settingsSetCmd.Flags().SetInterspersed(false)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	st := settings.Storage

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Storage]")
	dataDir := st.DataDir
	if dataDir == "" {
		dataDir = "(default)"
	}
	cmd.Printf("  Data directory: %s\n", dataDir)
	cmd.Printf("  Image store: %s\n", st.BlobDriver.Description())
	cmd.Printf("  Document quota: %s\n", formatBytes(st.FallbackQuotaBytes))
	cmd.Printf("  GC timeout: %s\n", st.GCTimeout)
	cmd.Printf("  Load concurrency: %d\n", st.LoadConcurrency)
	cmd.Println()

	if dataDirFlag != "" {
		cmd.Printf("Note: --data-dir overrides the data directory with %s\n", dataDirFlag)
	}

	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key, value := args[0], args[1]
	if err := settingsService.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	cmd.Printf("Set %s to %s\n", key, value)
	return nil
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Schedmaker Settings Wizard")
	cmd.Println("==========================")
	cmd.Println()

	reader := bufio.NewReader(cmd.InOrStdin())

	// Step 1: Image store
	cmd.Println("Step 1: Select Image Store")
	cmd.Println("--------------------------")
	drivers := domain.AllBlobDrivers()
	current := 1
	for i, driver := range drivers {
		if driver == settings.Storage.BlobDriver {
			current = i + 1
		}
		cmd.Printf("  %d. %s\n", i+1, driver.Description())
	}
	cmd.Printf("\nEnter choice [%d]: ", current)
	settings.Storage.BlobDriver = drivers[parseChoice(readLine(reader), len(drivers), current)-1]
	cmd.Printf("Image store: %s\n\n", settings.Storage.BlobDriver.Description())

	// Step 2: Data directory
	cmd.Println("Step 2: Data Directory")
	cmd.Println("----------------------")
	cmd.Printf("Enter directory [%s]: ", orDefault(settings.Storage.DataDir))
	if dir := readLine(reader); dir != "" {
		settings.Storage.DataDir = dir
	}
	cmd.Println()

	// Step 3: Document quota
	cmd.Println("Step 3: Document Quota")
	cmd.Println("----------------------")
	cmd.Printf("Enter size in bytes [%d]: ", settings.Storage.FallbackQuotaBytes)
	if input := readLine(reader); input != "" {
		quota, err := strconv.Atoi(input)
		if err != nil || quota <= 0 {
			return fmt.Errorf("%w: quota must be a positive integer, got %q", domain.ErrInvalidInput, input)
		}
		settings.Storage.FallbackQuotaBytes = quota
	}
	cmd.Println()

	if err := settingsService.Save(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	cmd.Println("Settings saved.")
	return nil
}

func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

func orDefault(s string) string {
	if s == "" {
		return "default"
	}
	return s
}
