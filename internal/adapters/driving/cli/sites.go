package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/chatrelay/internal/core/domain"
)

var sitesJSON bool

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "List supported chat sites",
	Args:  cobra.NoArgs,
	RunE:  runSites,
}

func init() {
	sitesCmd.Flags().BoolVar(&sitesJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(sitesCmd)
}

type siteJSON struct {
	ID      domain.SiteID `json:"id"`
	Name    string        `json:"name"`
	BaseURL string        `json:"base_url"`
}

func runSites(cmd *cobra.Command, _ []string) error {
	sites := domain.Sites()

	if sitesJSON {
		out := make([]siteJSON, 0, len(sites))
		for _, s := range sites {
			out = append(out, siteJSON{ID: s.ID, Name: s.DisplayName, BaseURL: s.BaseURL})
		}
		return printJSON(cmd, out)
	}

	cmd.Println("Supported sites:")
	cmd.Println()
	for _, s := range sites {
		cmd.Printf("  %-10s %-10s %s\n", s.ID, s.DisplayName, s.BaseURL)
	}
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
