package notify

import (
	"context"
	"time"
)

// Store resolves the rows the dispatcher needs to address a notification.
type Store interface {
	GetOrder(ctx context.Context, id string) (*OrderRow, error)
	GetCustomer(ctx context.Context, id string) (*Customer, error)
	GetWorker(ctx context.Context, id string) (*Worker, error)
}

// Notifier delivers one notification request. Callers treat delivery as
// best-effort: errors are logged, never retried.
type Notifier interface {
	Send(ctx context.Context, req NotificationRequest) error
}

// ToastSink surfaces a transient user-visible message.
type ToastSink interface {
	Push(t Toast)
}

// Feed is one open change feed. Events closes when the feed is released
// or the connection drops. Close must be safe to call more than once.
type Feed interface {
	Events() <-chan ChangeEvent
	Close() error
}

// FeedOpener opens the two logical feeds bound to one order.
type FeedOpener interface {
	OpenOrderFeed(orderID string) (Feed, error)
	OpenSurveyFeed(orderID string) (Feed, error)
}

type RouterConfig struct {
	Production    bool
	CacheEnabled  bool
	MaxCacheSize  int
	LookupTimeout time.Duration
	NotifyTimeout time.Duration
}
