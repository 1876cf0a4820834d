package dom

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/chatrelay/internal/core/domain"
	"github.com/custodia-labs/chatrelay/internal/core/ports/driven"
)

// Fill types text into the input matching input and clicks submit.
//
// The value is assigned through the native setter and the input event is
// dispatched as its own step; chat UIs built on virtual DOM frameworks
// ignore assignments they were not told about.
func Fill(ctx context.Context, page driven.Page, input, submit, text string, timeout time.Duration) error {
	if err := page.WaitForSelector(ctx, input, timeout); err != nil {
		if errors.Is(err, domain.ErrTimeout) {
			return fmt.Errorf("%w: %w", domain.ErrInputNotFound, err)
		}
		return err
	}

	if err := page.SetValue(ctx, input, text); err != nil {
		return fmt.Errorf("setting input: %w", err)
	}

	if err := page.DispatchInput(ctx, input); err != nil {
		return fmt.Errorf("dispatching input event: %w", err)
	}

	clicked, err := page.Click(ctx, submit)
	if err != nil {
		return fmt.Errorf("clicking submit: %w", err)
	}
	if !clicked {
		return fmt.Errorf("%w: %s", domain.ErrSubmitControlNotFound, submit)
	}
	return nil
}
