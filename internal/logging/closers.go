package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// CloseLogged closes a resource that was only read from. A close failure
// cannot affect the data already consumed, so it is logged with the logger
// carried by ctx and dropped.
func CloseLogged(ctx context.Context, c io.Closer, resource string) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		LogError(FromContext(ctx), "close failed", err,
			slog.String("resource", resource))
	}
}

// CloseInto closes a resource that was written to and joins a close failure
// into *errp. Both failures are reported when the write had already failed.
func CloseInto(ctx context.Context, errp *error, c io.Closer, resource string) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		LogError(FromContext(ctx), "close failed", err,
			slog.String("resource", resource))
		*errp = errors.Join(*errp, fmt.Errorf("closing %s: %w", resource, err))
	}
}
