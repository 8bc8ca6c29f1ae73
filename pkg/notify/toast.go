package notify

import (
	"github.com/juju/pubsub/v2"
)

// hubToasts publishes toasts on the process-wide hub. Whoever renders
// them (SSE bridge, dashboard) subscribes to TopicToast.
type hubToasts struct {
	hub *pubsub.SimpleHub
}

func NewHubToasts(hub *pubsub.SimpleHub) ToastSink {
	return hubToasts{hub: hub}
}

func (s hubToasts) Push(t Toast) {
	s.hub.Publish(TopicToast, t)
}
