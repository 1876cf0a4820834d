// Package browser groups the implementations of the driven.Browser and
// driven.Page ports.
//
// Adapters:
//   - cdp: A real Chromium-family browser driven over the DevTools Protocol
//   - memory: An in-process browser whose pages are parsed HTML documents
//   - file: A saved HTML file exposed as a page, reloaded when the file changes
package browser
