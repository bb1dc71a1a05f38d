package service

import (
	"context"
	"errors"
	"fmt"

	apperrors "statues/internal/errors"
)

// storeErr wraps a repository failure for the caller. Timeouts and
// cancellations are reported as ErrUnavailable; everything else stays an
// internal error.
func storeErr(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w: %v", op, apperrors.ErrUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
