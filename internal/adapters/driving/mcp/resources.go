package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// URIScheme is the custom URI scheme for chatrelay resources.
	uriScheme = "chatrelay://"

	// historyLimit caps the transfers resource.
	historyLimit = 20
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "transfers",
		Name:        "transfers",
		Description: "Recent transfer attempts, newest first",
		MIMEType:    "application/json",
	}, s.handleTransfersResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "transfers/current",
		Name:        "current-transfer",
		Description: "State of the running or most recent transfer",
		MIMEType:    "application/json",
	}, s.handleCurrentTransferResource)
}

// handleTransfersResource returns recorded transfer attempts.
func (s *Server) handleTransfersResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	history, err := s.ports.Transfer.History(ctx, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("listing transfers: %w", err)
	}
	if history == nil {
		return jsonResource(req.Params.URI, []any{})
	}
	return jsonResource(req.Params.URI, history)
}

// handleCurrentTransferResource returns the orchestrator's status.
func (s *Server) handleCurrentTransferResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Orchestrator == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	status, err := s.ports.Orchestrator.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting transfer status: %w", err)
	}
	return jsonResource(req.Params.URI, status)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
