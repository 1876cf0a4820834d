// Package cli provides the cobra command tree for chatrelay.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/chatrelay/internal/core/ports/driven"
	"github.com/custodia-labs/chatrelay/internal/core/ports/driving"
	"github.com/custodia-labs/chatrelay/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Global flags.
var (
	verbose    bool
	configDir  string
	browserURL string
)

// Services bundles the driving ports the commands use.
type Services struct {
	Transfer     driving.TransferService
	Orchestrator driving.TransferOrchestrator
	Messages     driving.MessageHandler
	Settings     driving.SettingsService

	// Registry resolves site adapters for offline scrapes.
	Registry driven.AdapterRegistry
}

// Options carries the global flags into a Bootstrap function.
type Options struct {
	ConfigDir  string
	BrowserURL string
}

// Bootstrap builds the services for one invocation. The returned cleanup
// runs after the command finishes.
type Bootstrap func(ctx context.Context, opts Options) (*Services, func(), error)

var (
	bootstrap Bootstrap
	cleanup   func()

	transferService driving.TransferService
	orchestrator    driving.TransferOrchestrator
	messageHandler  driving.MessageHandler
	settingsService driving.SettingsService
	adapterRegistry driven.AdapterRegistry
)

var rootCmd = &cobra.Command{
	Use:   "chatrelay",
	Short: "Carry a conversation from one AI chat site to another",
	Long: `chatrelay reads the conversation open in one AI chat site and hands it to
another as a formatted prompt.

It drives your own browser over the DevTools protocol, so start Chrome with
--remote-debugging-port=9222 and sign in to the sites you use.

Supported sites: chatgpt, deepseek, claude, gemini, poe.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) {
		teardown()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.chatrelay)")
	rootCmd.PersistentFlags().StringVar(&browserURL, "browser-url", "", "DevTools endpoint of the browser (overrides settings)")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetBootstrap installs the function that builds services before a command
// runs.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetServices installs services directly, bypassing Bootstrap.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	transferService = s.Transfer
	orchestrator = s.Orchestrator
	messageHandler = s.Messages
	settingsService = s.Settings
	adapterRegistry = s.Registry
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	defer teardown()
	return rootCmd.ExecuteContext(ctx)
}

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if bootstrap == nil || transferService != nil {
		return nil
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	s, done, err := bootstrap(ctx, Options{ConfigDir: configDir, BrowserURL: browserURL})
	if err != nil {
		return fmt.Errorf("starting chatrelay: %w", err)
	}
	SetServices(s)
	cleanup = done
	return nil
}

func teardown() {
	if cleanup != nil {
		cleanup()
		cleanup = nil
	}
}

// errNotConfigured reports a service the command needs but was not wired.
func errNotConfigured(name string) error {
	return errors.New(name + " not configured")
}
