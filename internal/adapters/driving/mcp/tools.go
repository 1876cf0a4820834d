package mcp

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/chatrelay/internal/core/domain"
)

// ListSitesInput is the input schema for the list_sites tool.
type ListSitesInput struct{}

// ListSitesOutput is the output schema for the list_sites tool.
type ListSitesOutput struct {
	Sites []SiteOutput `json:"sites"`
}

// SiteOutput describes one supported site.
type SiteOutput struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	BaseURL string `json:"base_url"`
}

// SourceInput selects the site to read from.
type SourceInput struct {
	Source string `json:"source" jsonschema:"site to read from: chatgpt, deepseek, claude, gemini or poe"`
}

// PreviewOutput is the output schema for the preview_conversation tool.
type PreviewOutput struct {
	Items     []domain.PreviewItem `json:"items"`
	Remaining int                  `json:"remaining"`
	Total     int                  `json:"total"`
}

// ScrapeOutput is the output schema for the scrape_conversation tool.
type ScrapeOutput struct {
	Messages []domain.Message `json:"messages"`
	Count    int              `json:"count"`
}

// InjectInput is the input schema for the inject_conversation tool.
type InjectInput struct {
	Destination string `json:"destination" jsonschema:"site whose open page receives the stored conversation"`
}

// InjectOutput is the output schema for the inject_conversation tool.
type InjectOutput struct {
	Success bool `json:"success"`
}

// TransferInput is the input schema for the transfer_conversation tool.
type TransferInput struct {
	Source      string `json:"source" jsonschema:"site to read the conversation from"`
	Destination string `json:"destination" jsonschema:"site to continue the conversation on"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_sites",
		Description: "List the chat sites conversations can be moved between",
	}, s.handleListSites)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "preview_conversation",
		Description: "Summarise the conversation open on a source site",
	}, s.handlePreview)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "scrape_conversation",
		Description: "Read the full conversation open on a source site",
	}, s.handleScrape)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "inject_conversation",
		Description: "Type the stored conversation into the open page of a destination site",
	}, s.handleInject)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "transfer_conversation",
		Description: "Scrape a conversation from one site and continue it on another",
	}, s.handleTransfer)
}

// handleListSites handles the list_sites tool invocation.
func (s *Server) handleListSites(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ ListSitesInput,
) (*mcp.CallToolResult, ListSitesOutput, error) {
	sites := domain.Sites()
	output := ListSitesOutput{Sites: make([]SiteOutput, len(sites))}
	for i, d := range sites {
		output.Sites[i] = SiteOutput{
			ID:      d.ID.String(),
			Name:    d.DisplayName,
			BaseURL: d.BaseURL,
		}
	}
	return nil, output, nil
}

// handlePreview handles the preview_conversation tool invocation.
func (s *Server) handlePreview(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SourceInput,
) (*mcp.CallToolResult, PreviewOutput, error) {
	preview, err := s.ports.Transfer.Preview(ctx, domain.SiteID(input.Source))
	if err != nil {
		return nil, PreviewOutput{}, err
	}
	return nil, PreviewOutput{
		Items:     preview.Items,
		Remaining: preview.Remaining,
		Total:     preview.Total,
	}, nil
}

// handleScrape handles the scrape_conversation tool invocation.
func (s *Server) handleScrape(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SourceInput,
) (*mcp.CallToolResult, ScrapeOutput, error) {
	conv, err := s.ports.Transfer.Scrape(ctx, domain.SiteID(input.Source))
	if err != nil {
		return nil, ScrapeOutput{}, err
	}
	return nil, ScrapeOutput{Messages: conv, Count: len(conv)}, nil
}

// handleInject handles the inject_conversation tool invocation.
func (s *Server) handleInject(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input InjectInput,
) (*mcp.CallToolResult, InjectOutput, error) {
	if s.ports.Messages == nil {
		return nil, InjectOutput{}, errors.New("inject is not available")
	}

	resp := s.ports.Messages.Handle(ctx, domain.PageRequest{
		Action:      domain.ActionInject,
		Destination: domain.SiteID(input.Destination),
	})
	if resp.Error != "" {
		return nil, InjectOutput{}, errors.New(resp.Error)
	}
	return nil, InjectOutput{Success: resp.Success}, nil
}

// handleTransfer handles the transfer_conversation tool invocation.
func (s *Server) handleTransfer(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input TransferInput,
) (*mcp.CallToolResult, domain.TransferResult, error) {
	result, err := s.ports.Transfer.Initiate(ctx, input.Source, input.Destination)
	if err != nil {
		return nil, domain.TransferResult{}, err
	}
	return nil, *result, nil
}
