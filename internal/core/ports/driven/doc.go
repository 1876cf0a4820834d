// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - Browser: Tab discovery, activation, opening and page messaging
//   - Page: DOM access to one loaded page
//   - PageAgent: Answers action requests on behalf of a page
//   - SiteAdapter: Per-site extraction and injection
//   - AdapterRegistry: Maps a page URL to its SiteAdapter
//   - TransientStore: Single-slot hand-off of the pending payload
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - Exporter: Writes the payload to a JSON file. Without it, no file is written.
//   - TransferLog: Records finished attempts. Without it, history is empty.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or site package
package driven
