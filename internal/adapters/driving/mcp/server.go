package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/chatrelay/internal/logger"
)

// Version is the MCP server version.
const Version = "0.1.0"

// instructions is sent to clients on initialisation.
const instructions = `chatrelay moves a conversation between AI chat sites open in the user's browser.
Call list_sites for valid site ids. preview_conversation and scrape_conversation read the open source tab.
transfer_conversation scrapes the source, then types the conversation into the destination tab;
only one transfer runs at a time. inject_conversation re-sends the staged conversation to a destination tab.
Read chatrelay://transfers for past attempts.`

var log = logger.Scope("mcp")

// Server exposes chatrelay to MCP clients. Tools cover the page actions
// (list_sites, preview_conversation, scrape_conversation,
// inject_conversation, transfer_conversation); resources expose transfer
// history and the current transfer when an orchestrator is wired.
type Server struct {
	ports  *Ports
	server *mcp.Server
}

// NewServer registers the chatrelay tools and resources over ports.
// Only the transfer service is required.
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	impl := &mcp.Implementation{
		Name:    "chatrelay",
		Version: Version,
	}

	s := &Server{
		ports:  ports,
		server: mcp.NewServer(impl, &mcp.ServerOptions{Instructions: instructions}),
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Run serves one client over stdin/stdout until ctx is cancelled or the
// client disconnects.
func (s *Server) Run(ctx context.Context) error {
	log.Debug("serving over stdio")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves streamable HTTP clients on addr until ctx is cancelled.
// Every session shares the same transfer orchestrator, so concurrent
// transfer_conversation calls still run one at a time.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Warn("shutdown: %v", err)
		}
	}()

	log.Info("listening on %s", addr)
	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
