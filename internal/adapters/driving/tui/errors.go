package tui

import "errors"

// ErrMissingTransferService is returned when the transfer service is not provided.
var ErrMissingTransferService = errors.New("tui: transfer service is required")

// ErrInvalidPorts is returned when ports validation fails.
var ErrInvalidPorts = errors.New("tui: invalid ports configuration")
