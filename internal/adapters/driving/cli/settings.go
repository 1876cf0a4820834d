package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/chatrelay/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change chatrelay settings.

Settings are stored in config.toml inside the configuration directory.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting",
	Long: `Change one setting by its dotted key.

Keys:
  browser.url                   DevTools endpoint, e.g. http://127.0.0.1:9222
  transfer.wait_timeout_ms      how long to wait for page elements
  transfer.page_load_timeout_ms how long to wait for the destination to load
  transfer.settle_delay_ms      pause after load before injecting
  export.enabled                write a JSON export before each transfer
  export.dir                    directory for exports
  storage.backend               sqlite, memory or redis
  storage.redis_addr            Redis address when storage.backend is redis`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNotConfigured("settings service")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Browser]")
	cmd.Printf("  URL: %s\n", settings.Browser.URL)
	cmd.Println()

	cmd.Println("[Transfer]")
	cmd.Printf("  Wait timeout: %s\n", settings.Transfer.WaitTimeout)
	cmd.Printf("  Page load timeout: %s\n", settings.Transfer.PageLoadTimeout)
	cmd.Printf("  Settle delay: %s\n", settings.Transfer.SettleDelay)
	cmd.Println()

	cmd.Println("[Export]")
	if settings.Export.Enabled {
		cmd.Printf("  Enabled: yes\n")
		cmd.Printf("  Directory: %s\n", settings.Export.Dir)
	} else {
		cmd.Printf("  Enabled: no\n")
	}
	cmd.Println()

	cmd.Println("[Storage]")
	cmd.Printf("  Backend: %s\n", settings.Storage.Backend.Description())
	if settings.Storage.Backend == domain.StorageRedis {
		cmd.Printf("  Redis: %s\n", settings.Storage.RedisAddr)
	}
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'chatrelay settings set <key> <value>' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errNotConfigured("settings service")
	}

	if err := settingsService.Set(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}
	cmd.Printf("Set %s = %s\n", args[0], args[1])
	return nil
}
