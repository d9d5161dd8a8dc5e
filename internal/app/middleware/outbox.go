package middleware

import (
	"context"

	"homestay/internal/app/commands"
	"homestay/internal/app/outbox"
)

// OutboxFlush drains the outbox once a command succeeds, so booking and
// payment events recorded by the handler are handed to the publisher as
// soon as the surrounding transaction is done.
func OutboxFlush(events outbox.Outbox) CommandMiddleware {
	if events == nil {
		panic("middleware: outbox required")
	}
	return func(next commands.Bus) commands.Bus {
		dispatch := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := dispatch(ctx, cmd)
			if err != nil {
				return nil, err
			}
			if err := events.Flush(ctx); err != nil {
				return nil, err
			}
			return res, nil
		})
	}
}
