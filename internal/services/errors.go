package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingSegment marks a chapter segment UID that no sibling file
	// resolves to.
	ErrMissingSegment = errors.New("missing segment")
	// ErrNoSuchEdition marks a requested edition index outside the chapter
	// tree's edition list.
	ErrNoSuchEdition = errors.New("no such edition")
	// ErrMalformedChapters marks chapter XML the parser cannot interpret.
	ErrMalformedChapters = errors.New("malformed chapter structure")
	// ErrExternalTool marks a non-zero exit or unusable output from an
	// external binary.
	ErrExternalTool = errors.New("external tool error")
	// ErrValidation marks rejected configuration or input values.
	ErrValidation = errors.New("validation error")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Classify maps a pipeline error to a short outcome label for batch
// summaries.
func Classify(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrMissingSegment):
		return "missing-segment"
	case errors.Is(err, ErrNoSuchEdition):
		return "no-such-edition"
	case errors.Is(err, ErrMalformedChapters):
		return "malformed-chapters"
	case errors.Is(err, ErrExternalTool):
		return "tool-failure"
	case errors.Is(err, ErrValidation):
		return "invalid-input"
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
		return "processing failure"
	}
	return strings.Join(parts, ": ")
}
