package audit

import (
	"context"
	"log/slog"
	"time"

	"pesa/pkg/requestcontext"
)

// Publisher captures structured audit events. Implementations must be cheap
// on the caller's path; persistence happens out of band.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// Store is the persistence port for audit events. Append-only.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByAccount(ctx context.Context, accountID string) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}

// ChannelPublisher hands events to a buffered channel drained by a Worker,
// keeping audit I/O off the request path. A full channel drops the event and
// reports it through the logger rather than blocking settlement.
type ChannelPublisher struct {
	inbox  chan Event
	logger *slog.Logger
}

func NewChannelPublisher(buffer int, logger *slog.Logger) *ChannelPublisher {
	if buffer <= 0 {
		buffer = 256
	}
	return &ChannelPublisher{
		inbox:  make(chan Event, buffer),
		logger: logger,
	}
}

// Inbox exposes the receive side for the Worker.
func (p *ChannelPublisher) Inbox() <-chan Event {
	return p.inbox
}

func (p *ChannelPublisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	select {
	case p.inbox <- event:
		return nil
	default:
		if p.logger != nil {
			p.logger.WarnContext(ctx, "audit inbox full, dropping event",
				"action", event.Action,
				"account_id", event.AccountID,
			)
		}
		return nil
	}
}

// Tee fans an event out to several publishers; the first failure wins but
// every sink still sees the event.
func Tee(publishers ...Publisher) Publisher {
	return teePublisher(publishers)
}

type teePublisher []Publisher

func (t teePublisher) Emit(ctx context.Context, event Event) error {
	var firstErr error
	for _, p := range t {
		if err := p.Emit(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Log emits an event and mirrors it to the structured log so a missing sink
// never means a missing trail. Nil publisher and nil logger are both allowed.
func Log(ctx context.Context, logger *slog.Logger, pub Publisher, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if logger != nil {
		logger.InfoContext(ctx, event.Action,
			"log_type", "audit",
			"account_id", event.AccountID,
			"subject", event.Subject,
			"decision", event.Decision,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	if pub != nil {
		_ = pub.Emit(ctx, event)
	}
}
