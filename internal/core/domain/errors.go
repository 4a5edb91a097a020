package domain

import (
	"errors"
	"fmt"
)

var (
	// Conversation-level outcomes. Recoverable: the dialog re-prompts.
	ErrNoMatch           = errors.New("no matching experiments")
	ErrUnknownIdentifier = errors.New("unknown experiment identifier")

	// Collaborator failures, surfaced to the user with a manual fallback.
	ErrCatalogUnavailable   = errors.New("experiment catalog unavailable")
	ErrDirectoryUnavailable = errors.New("experiment directory unavailable")
	ErrDownloadFailed       = errors.New("download failed")

	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrTemporary       = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
