package notify

import (
	"context"

	"github.com/juju/pubsub/v2"
)

// Router is the assembled change notification core: tracker, dispatcher,
// hub, and the feed opener, wired together by the builder.
type Router struct {
	store      Store
	hub        *pubsub.SimpleHub
	dispatcher *Dispatcher
	tracker    *Tracker
	logger     Logger
	cancel     context.CancelFunc
}

// Watch begins observing an order's change feeds.
func (r *Router) Watch(orderID string) error {
	return r.tracker.Watch(orderID)
}

// Release stops observing an order.
func (r *Router) Release(orderID string) {
	r.tracker.Release(orderID)
}

// Watching reports the currently observed order IDs.
func (r *Router) Watching() []string {
	return r.tracker.Watching()
}

// Hub exposes the broadcast hub so consumers (SSE bridges, tests) can
// subscribe to refresh signals and toasts.
func (r *Router) Hub() *pubsub.SimpleHub {
	return r.hub
}

// Store exposes the data store lookups behind the router.
func (r *Router) Store() Store {
	return r.store
}

// Close releases every active observation. In-flight notification sends
// run to completion; only future event delivery stops.
func (r *Router) Close() {
	r.tracker.Close()
	if r.cancel != nil {
		r.cancel()
	}
}
