// Package dom holds the page helpers shared by the site adapters:
// snapshotting a page into a queryable document, cleaning captured markup,
// assembling transcripts and filling chat inputs.
package dom
