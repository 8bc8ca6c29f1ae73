package notify

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/juju/pubsub/v2"
)

// Dispatcher applies the side effects for one diff outcome: best-effort
// notification, schedule:refresh broadcast, and a toast. Failures on
// the notification path are logged and swallowed; the broadcast and the
// toast always go out.
type Dispatcher struct {
	store         Store
	notifier      Notifier
	hub           *pubsub.SimpleHub
	toasts        ToastSink
	cache         *recipientCache
	logger        Logger
	metrics       *Metrics
	lookupTimeout time.Duration
	notifyTimeout time.Duration
}

func NewDispatcher(store Store, notifier Notifier, hub *pubsub.SimpleHub, toasts ToastSink, logger Logger) *Dispatcher {
	if logger == nil {
		logger = noopLogger{}
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &Dispatcher{
		store:         store,
		notifier:      notifier,
		hub:           hub,
		toasts:        toasts,
		cache:         newRecipientCache(false, 0),
		logger:        logger,
		lookupTimeout: 5 * time.Second,
		notifyTimeout: 10 * time.Second,
	}
}

// Handle processes one non-trivial outcome. It is safe to call from
// multiple goroutines; independent events may complete out of order.
func (d *Dispatcher) Handle(ctx context.Context, ev ChangeEvent, out Outcome) {
	switch out.Kind {
	case OrderStatusChanged:
		d.handleOrderChange(ctx, ev, out.Status)
	case SurveyStatusChanged:
		d.handleSurveyChange(out.Status)
	}
}

func (d *Dispatcher) handleOrderChange(ctx context.Context, ev ChangeEvent, status string) {
	req, err := d.buildRequest(ctx, ev, status)
	if err != nil {
		// Lookup failures abort only the notification step.
		d.logger.Error("skipping notification: %v", err)
		if d.metrics != nil {
			d.metrics.NotificationsFailed.Inc()
		}
	} else {
		go d.send(*req)
	}

	d.broadcast()
	d.toasts.Push(Toast{
		Title:       "Order status updated",
		Description: "Status changed to: " + humanStatus(status),
	})
}

func (d *Dispatcher) handleSurveyChange(status string) {
	d.toasts.Push(surveyToast(status))
	d.broadcast()
}

func (d *Dispatcher) buildRequest(ctx context.Context, ev ChangeEvent, status string) (*NotificationRequest, error) {
	var row OrderRow
	if err := json.Unmarshal(ev.New, &row); err != nil {
		return nil, &RouteError{Op: "BuildRequest", Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, d.lookupTimeout)
	defer cancel()

	cust, err := d.customer(ctx, row.CustomerID)
	if err != nil {
		return nil, &RouteError{Op: "BuildRequest", OrderID: row.ID, Err: err}
	}

	req := &NotificationRequest{
		ID:             uuid.NewString(),
		OrderID:        row.ID,
		Status:         status,
		RecipientEmail: cust.Email,
		RecipientName:  cust.Name,
		OrderNumber:    row.OrderNumber,
		ScheduledDate:  row.ScheduledDate,
	}

	if row.AssignedWorkerID != "" {
		w, err := d.worker(ctx, row.AssignedWorkerID)
		if err != nil {
			// An unresolvable assignee falls back to an empty display
			// name; the notification still goes out addressed to the
			// customer.
			d.logger.Error("assignee lookup failed for order %s: %v", row.ID, err)
		} else {
			req.AssigneeName = w.Name
		}
	}
	return req, nil
}

func (d *Dispatcher) customer(ctx context.Context, id string) (*Customer, error) {
	if r, ok := d.cache.Get("customer", id); ok {
		return &Customer{ID: id, Name: r.Name, Email: r.Email}, nil
	}
	c, err := d.store.GetCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	d.cache.Set("customer", id, recipient{Name: c.Name, Email: c.Email})
	return c, nil
}

func (d *Dispatcher) worker(ctx context.Context, id string) (*Worker, error) {
	if r, ok := d.cache.Get("worker", id); ok {
		return &Worker{ID: id, Name: r.Name}, nil
	}
	w, err := d.store.GetWorker(ctx, id)
	if err != nil {
		return nil, err
	}
	d.cache.Set("worker", id, recipient{Name: w.Name})
	return w, nil
}

// send runs detached from the event loop and from the observer's
// lifecycle: releasing a subscription does not cancel an in-flight call.
func (d *Dispatcher) send(req NotificationRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), d.notifyTimeout)
	defer cancel()

	if err := d.notifier.Send(ctx, req); err != nil {
		d.logger.Error("notification %s for order %s failed: %v", req.ID, req.OrderID, err)
		if d.metrics != nil {
			d.metrics.NotificationsFailed.Inc()
		}
		return
	}
	d.logger.Debug("notification %s sent for order %s (%s)", req.ID, req.OrderID, req.Status)
	if d.metrics != nil {
		d.metrics.NotificationsSent.Inc()
	}
}

func (d *Dispatcher) broadcast() {
	d.hub.Publish(TopicScheduleRefresh, nil)
	if d.metrics != nil {
		d.metrics.Broadcasts.Inc()
	}
}

func humanStatus(status string) string {
	return strings.ReplaceAll(status, "_", " ")
}

func surveyToast(status string) Toast {
	var desc string
	switch status {
	case SurveySubmitted:
		desc = "Survey submitted for review"
	case SurveyApproved:
		desc = "Survey approved - ready for next steps"
	case SurveyReworkRequested:
		desc = "Survey requires additional work"
	default:
		desc = "Survey status updated to: " + status
	}
	return Toast{Title: "Survey update", Description: desc}
}
