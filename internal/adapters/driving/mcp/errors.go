// Package mcp provides an MCP (Model Context Protocol) server adapter for
// chatrelay. It lets AI assistants list supported sites, read the
// conversation open in the browser and move it to another site.
package mcp

import "errors"

// ErrMissingTransferService is returned when the transfer service is not provided.
var ErrMissingTransferService = errors.New("mcp: transfer service is required")
