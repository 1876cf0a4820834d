package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/chatrelay/internal/core/domain"
	"github.com/custodia-labs/chatrelay/internal/core/ports/driven"
)

// findSitePage returns the first open page that belongs to site.
// Pages are matched on every fragment the site is known by, so a tab
// still on a legacy domain is found too.
func findSitePage(ctx context.Context, browser driven.Browser, site domain.SiteDescriptor) (domain.PageInfo, error) {
	pages, err := browser.QueryPages(ctx, "")
	if err != nil {
		return domain.PageInfo{}, fmt.Errorf("%w: %w", domain.ErrBrowserUnavailable, err)
	}
	for _, p := range pages {
		if site.Matches(p.URL) {
			return p, nil
		}
	}
	return domain.PageInfo{}, &domain.ValidationError{
		Message: fmt.Sprintf("Please navigate to %s first", site.BaseURL),
	}
}

// pageContext derives a context that is cancelled with
// domain.ErrPageUnavailable as soon as page closes or navigates.
func pageContext(parent context.Context, page driven.Page) (context.Context, context.CancelCauseFunc) {
	ctx, cancel := context.WithCancelCause(parent)
	go func() {
		select {
		case <-page.Done():
			cancel(domain.ErrPageUnavailable)
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// pageError attaches domain.ErrPageUnavailable to err when ctx ended
// because the page went away.
func pageError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	cause := context.Cause(ctx)
	if errors.Is(cause, domain.ErrPageUnavailable) && !errors.Is(err, domain.ErrPageUnavailable) {
		return fmt.Errorf("%w: %w", domain.ErrPageUnavailable, err)
	}
	return err
}

// sleepContext waits for d or until ctx ends.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// responseError turns a failed page response into an error.
func responseError(resp domain.PageResponse, fallback string) error {
	if resp.Error != "" {
		return errors.New(resp.Error)
	}
	return errors.New(fallback)
}
