package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/neuroresume/internal/common"
	"github.com/google/uuid"
)

// validID reports whether id can name a row. Anything else is treated as a
// missing resource rather than a malformed request.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// callUpstream runs fn under timeout and classifies its failure.
// Validation errors pass through unchanged.
func callUpstream(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	err := fn(ctx)
	if err == nil {
		return nil
	}
	if errors.Is(err, common.ErrValidation) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", common.ErrUpstreamTimeout, err)
	}
	return fmt.Errorf("%w: %v", common.ErrUpstreamFailure, err)
}
