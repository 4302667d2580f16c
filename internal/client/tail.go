package client

import (
	"context"
	"time"
)

type TailOptions struct {
	ConversationID int64
	AfterID        int64
	Interval       time.Duration
	// OnMessage is called for every new message in id order.
	OnMessage func(Message)
	// OnAdvance is called after each page that moved the cursor.
	OnAdvance func(afterID int64)
	// OnError is called for failed polls; tailing continues afterwards.
	OnError func(error)
}

// Tail polls for new messages until ctx is done, advancing the cursor to the
// highest id seen. Full pages are fetched back to back.
func (c *Client) Tail(ctx context.Context, opts TailOptions) error {
	interval := opts.Interval
	if interval <= 0 {
		interval = time.Second
	}
	after := opts.AfterID

	for {
		page, err := c.Pull(ctx, opts.ConversationID, after, 100)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if opts.OnError != nil {
				opts.OnError(err)
			}
		} else {
			advanced := false
			for _, m := range page.List {
				if opts.OnMessage != nil {
					opts.OnMessage(m)
				}
				if m.ID > after {
					after = m.ID
					advanced = true
				}
			}
			if advanced && opts.OnAdvance != nil {
				opts.OnAdvance(after)
			}
			if page.HasMore {
				continue
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}
