package notify

import (
	"context"
	"sync"
)

// State of one observation handle. A released handle is never reused; a
// new observation creates a new Observer.
type State int

const (
	Idle State = iota
	Subscribed
	Released
)

// Observer owns the pair of feeds bound to one order and the event loop
// draining them. Both feeds are acquired together and released together,
// exactly once.
type Observer struct {
	orderID    string
	dispatcher *Dispatcher
	logger     Logger
	metrics    *Metrics

	// dispatchCtx outlives the observer: releasing the subscription must
	// not cancel a notification already in flight.
	dispatchCtx context.Context

	orderFeed  Feed
	surveyFeed Feed

	stop chan struct{}
	done chan struct{}
	once sync.Once

	mu    sync.Mutex
	state State
}

func newObserver(orderID string, dispatcher *Dispatcher, dispatchCtx context.Context, logger Logger, metrics *Metrics) *Observer {
	return &Observer{
		orderID:     orderID,
		dispatcher:  dispatcher,
		dispatchCtx: dispatchCtx,
		logger:      logger,
		metrics:     metrics,
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// start acquires both feeds as a pair. If the second open fails the
// first is closed before returning, so a failed start leaks nothing.
func (o *Observer) start(opener FeedOpener) error {
	orderFeed, err := opener.OpenOrderFeed(o.orderID)
	if err != nil {
		return &RouteError{Op: "Watch", OrderID: o.orderID, Err: err}
	}
	surveyFeed, err := opener.OpenSurveyFeed(o.orderID)
	if err != nil {
		orderFeed.Close()
		return &RouteError{Op: "Watch", OrderID: o.orderID, Err: err}
	}

	o.orderFeed = orderFeed
	o.surveyFeed = surveyFeed
	o.setState(Subscribed)
	go o.loop()
	return nil
}

func (o *Observer) loop() {
	defer close(o.done)

	orderCh := o.orderFeed.Events()
	surveyCh := o.surveyFeed.Events()

	for orderCh != nil || surveyCh != nil {
		select {
		case ev, ok := <-orderCh:
			if !ok {
				orderCh = nil
				continue
			}
			o.handle(ev)
		case ev, ok := <-surveyCh:
			if !ok {
				surveyCh = nil
				continue
			}
			o.handle(ev)
		case <-o.stop:
			return
		}
	}
}

func (o *Observer) handle(ev ChangeEvent) {
	if o.metrics != nil {
		o.metrics.EventsReceived.WithLabelValues(ev.Table).Inc()
	}
	if err := ValidateEvent(ev); err != nil {
		o.logger.Debug("ignoring event for order %s: %v", o.orderID, err)
		return
	}

	out := Diff(ev)
	if out.Kind == NoChange {
		return
	}
	if o.metrics != nil {
		o.metrics.Transitions.WithLabelValues(ev.Table).Inc()
	}
	o.logger.Info("order %s: %s transition to %q", o.orderID, ev.Table, out.Status)

	// Side effects run off the event loop; other feed events may be
	// processed while this one is in flight.
	go o.dispatcher.Handle(o.dispatchCtx, ev, out)
}

// Stop releases both feeds. Safe to call more than once; only the first
// call does anything. It returns after the event loop has drained.
func (o *Observer) Stop() {
	o.once.Do(func() {
		close(o.stop)
		o.orderFeed.Close()
		o.surveyFeed.Close()
		o.setState(Released)
	})
	<-o.done
}

func (o *Observer) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Observer) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

// Tracker owns the active observers, one per order. It guarantees the
// release-exactly-once contract even when consumers switch orders in
// rapid succession.
type Tracker struct {
	opener      FeedOpener
	dispatcher  *Dispatcher
	logger      Logger
	metrics     *Metrics
	dispatchCtx context.Context

	mu        sync.Mutex
	observers map[string]*Observer
	closed    bool
}

func NewTracker(opener FeedOpener, dispatcher *Dispatcher, dispatchCtx context.Context, logger Logger, metrics *Metrics) *Tracker {
	if logger == nil {
		logger = noopLogger{}
	}
	if dispatchCtx == nil {
		dispatchCtx = context.Background()
	}
	return &Tracker{
		opener:      opener,
		dispatcher:  dispatcher,
		dispatchCtx: dispatchCtx,
		logger:      logger,
		metrics:     metrics,
		observers:   make(map[string]*Observer),
	}
}

// Watch begins observing an order. Watching an order that is already
// being observed is a caller error.
func (t *Tracker) Watch(orderID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return &RouteError{Op: "Watch", OrderID: orderID, Err: ErrRouterClosed}
	}
	if _, ok := t.observers[orderID]; ok {
		return &RouteError{Op: "Watch", OrderID: orderID, Err: ErrAlreadyWatching}
	}

	obs := newObserver(orderID, t.dispatcher, t.dispatchCtx, t.logger, t.metrics)
	if err := obs.start(t.opener); err != nil {
		return err
	}
	t.observers[orderID] = obs
	t.logger.Info("watching order %s", orderID)
	return nil
}

// Release stops observing an order. Releasing an order that is not
// being observed is a no-op.
func (t *Tracker) Release(orderID string) {
	t.mu.Lock()
	obs, ok := t.observers[orderID]
	if ok {
		delete(t.observers, orderID)
	}
	t.mu.Unlock()

	if ok {
		obs.Stop()
		t.logger.Info("released order %s", orderID)
	}
}

// Watching reports the currently observed order IDs.
func (t *Tracker) Watching() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	ids := make([]string, 0, len(t.observers))
	for id := range t.observers {
		ids = append(ids, id)
	}
	return ids
}

// Close releases every observer and rejects further Watch calls.
func (t *Tracker) Close() {
	t.mu.Lock()
	t.closed = true
	observers := t.observers
	t.observers = make(map[string]*Observer)
	t.mu.Unlock()

	for _, obs := range observers {
		obs.Stop()
	}
}
