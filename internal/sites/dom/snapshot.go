package dom

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/custodia-labs/chatrelay/internal/core/ports/driven"
)

// Snapshot waits for selector to match, then parses the page's current HTML.
// A timeout surfaces as domain.ErrTimeout from the page.
func Snapshot(ctx context.Context, page driven.Page, selector string, timeout time.Duration) (*goquery.Document, error) {
	if err := page.WaitForSelector(ctx, selector, timeout); err != nil {
		return nil, err
	}

	raw, err := page.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing page: %w", err)
	}
	return doc, nil
}

// Pre-compiled expressions for markup cleanup.
var (
	buttonTag    = regexp.MustCompile(`(?is)<button[^>]*>.*?</button>`)
	svgTag       = regexp.MustCompile(`(?is)<svg[^>]*>.*?</svg>`)
	htmlComments = regexp.MustCompile(`(?s)<!--.*?-->`)
)

// CleanHTML removes buttons, inline icons and comments from captured markup.
func CleanHTML(markup string) string {
	markup = buttonTag.ReplaceAllString(markup, "")
	markup = svgTag.ReplaceAllString(markup, "")
	markup = htmlComments.ReplaceAllString(markup, "")
	return strings.TrimSpace(markup)
}

// InnerHTML returns the cleaned inner markup of the first node in sel.
func InnerHTML(sel *goquery.Selection) string {
	markup, err := sel.First().Html()
	if err != nil {
		return ""
	}
	return CleanHTML(markup)
}

// Text returns the trimmed text content of sel.
func Text(sel *goquery.Selection) string {
	return strings.TrimSpace(sel.Text())
}

// JoinText returns the trimmed text of every node in sel, joined by sep.
// Nodes with no text are skipped.
func JoinText(sel *goquery.Selection, sep string) string {
	var parts []string
	sel.Each(func(_ int, s *goquery.Selection) {
		if t := Text(s); t != "" {
			parts = append(parts, t)
		}
	})
	return strings.Join(parts, sep)
}
