package queue

import "context"

// Client enqueues apply jobs. A nil Client means reviews are applied inline.
type Client interface {
	Send(ctx context.Context, msg Message) error
}
