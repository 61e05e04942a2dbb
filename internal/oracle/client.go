package oracle

import "context"

// Client sends a single prompt to the reasoning service and returns its raw
// text completion. Implementations may retry internally but must honour ctx.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
