package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/chatrelay/internal/adapters/driven/browser/file"
	"github.com/custodia-labs/chatrelay/internal/core/domain"
)

var (
	scrapeFile   string
	scrapeJSON   bool
	transferJSON bool
	historyLimit int
	historyJSON  bool
)

var previewCmd = &cobra.Command{
	Use:   "preview <source>",
	Short: "Preview the conversation open on a site",
	Long: `Reads the conversation in the open tab of the source site and shows the
first few messages.`,
	Args: cobra.ExactArgs(1),
	RunE: runPreview,
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape <source>",
	Short: "Print the full conversation open on a site",
	Long: `Reads the conversation in the open tab of the source site.

With --file, reads a page saved from the site instead of the live tab. If
the conversation is not in the file yet, chatrelay waits for the file to be
saved again until the wait timeout.`,
	Args: cobra.ExactArgs(1),
	RunE: runScrape,
}

var transferCmd = &cobra.Command{
	Use:   "transfer <source> <destination>",
	Short: "Move the conversation from one site to another",
	Long: `Reads the conversation open on the source site, exports it, then opens
or focuses the destination site and types the conversation into its input.

Example:
  chatrelay transfer chatgpt claude`,
	Args: cobra.ExactArgs(2),
	RunE: runTransfer,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current or last transfer",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent transfers",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	scrapeCmd.Flags().StringVarP(&scrapeFile, "file", "f", "", "read a saved page instead of the live tab")
	scrapeCmd.Flags().BoolVar(&scrapeJSON, "json", false, "output as JSON")
	transferCmd.Flags().BoolVar(&transferJSON, "json", false, "output as JSON")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of transfers")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "output as JSON")

	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(scrapeCmd)
	rootCmd.AddCommand(transferCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(historyCmd)
}

func parseSite(arg string) (domain.SiteDescriptor, error) {
	site, err := domain.LookupSite(domain.SiteID(arg))
	if err != nil {
		return domain.SiteDescriptor{}, fmt.Errorf("%w: %q (see 'chatrelay sites')", domain.ErrUnsupportedSite, arg)
	}
	return site, nil
}

func runPreview(cmd *cobra.Command, args []string) error {
	if transferService == nil {
		return errNotConfigured("transfer service")
	}
	site, err := parseSite(args[0])
	if err != nil {
		return err
	}

	preview, err := transferService.Preview(cmd.Context(), site.ID)
	if err != nil {
		return fmt.Errorf("preview failed: %w", err)
	}

	cmd.Printf("%s conversation (%d messages)\n\n", site.DisplayName, preview.Total)
	for _, item := range preview.Items {
		cmd.Printf("  %s: %s\n", item.Label, item.Content)
	}
	if more := preview.MoreText(); more != "" {
		cmd.Printf("\n  %s\n", more)
	}
	return nil
}

func runScrape(cmd *cobra.Command, args []string) error {
	site, err := parseSite(args[0])
	if err != nil {
		return err
	}

	var conv domain.Conversation
	if scrapeFile != "" {
		conv, err = scrapeSavedPage(cmd, site, scrapeFile)
	} else {
		if transferService == nil {
			return errNotConfigured("transfer service")
		}
		conv, err = transferService.Scrape(cmd.Context(), site.ID)
	}
	if err != nil {
		return fmt.Errorf("scrape failed: %w", err)
	}

	if scrapeJSON {
		return printJSON(cmd, conv)
	}
	printConversation(cmd, conv)
	return nil
}

func scrapeSavedPage(cmd *cobra.Command, site domain.SiteDescriptor, path string) (domain.Conversation, error) {
	if adapterRegistry == nil {
		return nil, errNotConfigured("adapter registry")
	}
	adapter, err := adapterRegistry.Adapter(site.ID)
	if err != nil {
		return nil, err
	}

	page, err := file.Open(path, file.Options{URL: site.BaseURL})
	if err != nil {
		return nil, err
	}
	defer func() { _ = page.Close() }()

	return adapter.Extract(cmd.Context(), page)
}

func printConversation(cmd *cobra.Command, conv domain.Conversation) {
	if len(conv) == 0 {
		cmd.Println("No messages found.")
		return
	}
	for i, m := range conv {
		cmd.Printf("[%d] %s:\n%s\n\n", i+1, m.Role.Label(), m.Content)
	}
	cmd.Printf("%d messages\n", len(conv))
}

func runTransfer(cmd *cobra.Command, args []string) error {
	if transferService == nil {
		return errNotConfigured("transfer service")
	}

	result, err := transferService.Initiate(cmd.Context(), args[0], args[1])
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			return verr
		}
		return fmt.Errorf("transfer failed: %w", err)
	}

	if transferJSON {
		return printJSON(cmd, result)
	}

	dst := domain.SiteID(args[1]).DisplayName()
	cmd.Printf("Transfer %s %s: %d messages\n", result.ID, result.State, result.Messages)
	if result.Delivered {
		cmd.Printf("Conversation typed into %s.\n", dst)
	} else {
		cmd.Printf("%s does not accept typed input; paste the exported conversation manually.\n", dst)
	}
	if result.ExportPath != "" {
		cmd.Printf("Exported to %s\n", result.ExportPath)
	}
	return nil
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if orchestrator == nil {
		return errNotConfigured("transfer orchestrator")
	}

	status, err := orchestrator.Status(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}

	if status.ID != "" {
		printStatus(cmd, *status)
		return nil
	}

	// Nothing ran in this process; the history log outlives it.
	cmd.Printf("State: %s\n", status.State)
	if transferService == nil {
		return nil
	}
	last, err := transferService.History(cmd.Context(), 1)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	if len(last) > 0 {
		cmd.Println()
		cmd.Println("Last attempt:")
		printStatus(cmd, last[0])
	}
	return nil
}

func printStatus(cmd *cobra.Command, s domain.TransferStatus) {
	cmd.Printf("Transfer: %s\n", s.ID)
	cmd.Printf("  Route:   %s -> %s\n", s.Source.DisplayName(), s.Destination.DisplayName())
	cmd.Printf("  State:   %s\n", s.State)
	if !s.StartedAt.IsZero() {
		cmd.Printf("  Started: %s\n", s.StartedAt.Local().Format("2006-01-02 15:04:05"))
	}
	if s.State == domain.StateCompleted {
		cmd.Printf("  Delivered: %t\n", s.Delivered)
	}
	if s.Error != "" {
		cmd.Printf("  Error:   %s\n", s.Error)
	}
}

func runHistory(cmd *cobra.Command, _ []string) error {
	if transferService == nil {
		return errNotConfigured("transfer service")
	}

	transfers, err := transferService.History(cmd.Context(), historyLimit)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	if historyJSON {
		if transfers == nil {
			transfers = []domain.TransferStatus{}
		}
		return printJSON(cmd, transfers)
	}

	if len(transfers) == 0 {
		cmd.Println("No transfers yet.")
		return nil
	}
	for i := range transfers {
		printStatus(cmd, transfers[i])
		cmd.Println()
	}
	return nil
}
