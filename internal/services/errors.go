package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrSourceUnavailable    = errors.New("topic source unavailable")
	ErrSynthesisFailed      = errors.New("speech synthesis failed")
	ErrImageFetchFailed     = errors.New("image fetch failed")
	ErrEncodingFailed       = errors.New("video encoding failed")
	ErrBusy                 = errors.New("pipeline busy")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrTimeout              = errors.New("operation timed out")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = errors.New("stage failure")
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Classify promotes context deadline errors to the timeout marker so callers
// can distinguish a slow collaborator from a broken one. Other errors pass
// through unchanged.
func Classify(marker error, stage, operation string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return Wrap(ErrTimeout, stage, operation, "deadline exceeded", err)
	}
	return Wrap(marker, stage, operation, "", err)
}

// Kind returns a short stable name for the taxonomy marker carried by err,
// or "internal" when the error carries no marker.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrSourceUnavailable):
		return "source_unavailable"
	case errors.Is(err, ErrSynthesisFailed):
		return "synthesis_failed"
	case errors.Is(err, ErrImageFetchFailed):
		return "image_fetch_failed"
	case errors.Is(err, ErrEncodingFailed):
		return "encoding_failed"
	case errors.Is(err, ErrBusy):
		return "busy"
	case errors.Is(err, ErrAuthenticationFailed):
		return "authentication_failed"
	default:
		return "internal"
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
