package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

var (
	// ErrTransient marks failures worth retrying (network, rate limits).
	ErrTransient = errors.New("transient failure")
	// ErrExternalTool marks failures reported by an external command.
	ErrExternalTool = errors.New("external tool error")
	// ErrValidation marks bad input or malformed collaborator output.
	ErrValidation = errors.New("validation error")
	// ErrConfiguration marks missing or unusable configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrNotFound marks missing work units or artifacts.
	ErrNotFound = errors.New("not found")
	// ErrStageDependency marks an attempt to run a stage whose predecessor
	// has not completed. Always fatal; indicates caller misuse.
	ErrStageDependency = errors.New("stage dependency not satisfied")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsTransient reports whether an error should be retried. Everything tagged
// ErrTransient qualifies, as do timeouts and temporary network conditions.
// Context cancellation is never retryable: the caller gave up.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrValidation) || errors.Is(err, ErrConfiguration) ||
		errors.Is(err, ErrNotFound) || errors.Is(err, ErrStageDependency) {
		return false
	}
	if errors.Is(err, ErrTransient) {
		return true
	}
	if statusErr, ok := AsStatusError(err); ok {
		return statusErr.Transient()
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
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
