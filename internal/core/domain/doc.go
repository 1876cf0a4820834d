// Package domain defines the core business entities for chatrelay.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Conversation: An ordered list of role-tagged messages scraped from a page
//   - SiteDescriptor: A supported chat site and how to recognise it
//   - TransferRequest / TransferPayload: One hand-off between two sites
//   - PageRequest / PageResponse: Messages exchanged with a page agent
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
