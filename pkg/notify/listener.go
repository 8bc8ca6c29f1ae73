package notify

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/lib/pq"
)

// Channel naming matches the trigger functions in storage.go. Each
// observed order gets its own pair of channels, so the database does
// the filtering and the listener forwards everything it receives.
const (
	orderChannelPrefix  = "order_update_"
	surveyChannelPrefix = "survey_change_"
)

// PQFeedOpener opens LISTEN/NOTIFY feeds over lib/pq. Each feed owns
// its own listener connection; feeds are never shared across observers.
type PQFeedOpener struct {
	connStr      string
	logger       Logger
	minReconnect time.Duration
	maxReconnect time.Duration
}

func NewPQFeedOpener(connStr string, logger Logger) *PQFeedOpener {
	if logger == nil {
		logger = noopLogger{}
	}
	return &PQFeedOpener{
		connStr:      connStr,
		logger:       logger,
		minReconnect: 10 * time.Second,
		maxReconnect: time.Minute,
	}
}

func (o *PQFeedOpener) OpenOrderFeed(orderID string) (Feed, error) {
	return o.open(orderChannelPrefix + orderID)
}

func (o *PQFeedOpener) OpenSurveyFeed(orderID string) (Feed, error) {
	return o.open(surveyChannelPrefix + orderID)
}

func (o *PQFeedOpener) open(channel string) (Feed, error) {
	l := pq.NewListener(o.connStr, o.minReconnect, o.maxReconnect, o.connEvent)
	if err := l.Listen(channel); err != nil {
		l.Close()
		return nil, fmt.Errorf("failed to listen on %s: %w", channel, err)
	}

	f := &pqFeed{
		listener: l,
		channel:  channel,
		events:   make(chan ChangeEvent, 16),
		closed:   make(chan struct{}),
		logger:   o.logger,
	}
	go f.run()
	return f, nil
}

func (o *PQFeedOpener) connEvent(ev pq.ListenerEventType, err error) {
	if err != nil {
		o.logger.Error("feed connection event %d: %v", ev, err)
	}
}

type pqFeed struct {
	listener *pq.Listener
	channel  string
	events   chan ChangeEvent
	closed   chan struct{}
	logger   Logger
	once     sync.Once
}

func (f *pqFeed) run() {
	defer close(f.events)
	for {
		select {
		case n, ok := <-f.listener.Notify:
			if !ok {
				return
			}
			if n == nil {
				// Reconnect marker from lib/pq; nothing to deliver.
				continue
			}
			var ev ChangeEvent
			if err := json.Unmarshal([]byte(n.Extra), &ev); err != nil {
				f.logger.Error("dropping malformed payload on %s: %v", n.Channel, err)
				continue
			}
			select {
			case f.events <- ev:
			case <-f.closed:
				return
			}
		case <-f.closed:
			return
		}
	}
}

func (f *pqFeed) Events() <-chan ChangeEvent {
	return f.events
}

func (f *pqFeed) Close() error {
	var err error
	f.once.Do(func() {
		close(f.closed)
		err = f.listener.Close()
	})
	return err
}
