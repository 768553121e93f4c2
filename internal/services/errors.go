package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyResult   = errors.New("empty result")
	ErrTransport     = errors.New("transport failure")
	ErrFilesystem    = errors.New("filesystem failure")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransport
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Classify maps an error to the short status label recorded in run history.
func Classify(err error) string {
	switch {
	case err == nil:
		return "succeeded"
	case errors.Is(err, ErrEmptyResult):
		return "empty"
	case errors.Is(err, ErrTransport):
		return "transport_failed"
	case errors.Is(err, ErrFilesystem):
		return "filesystem_failed"
	case errors.Is(err, ErrValidation), errors.Is(err, ErrConfiguration):
		return "invalid"
	default:
		return "failed"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
