package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/juju/pubsub/v2"
)

type fakeStore struct {
	mu        sync.Mutex
	customers map[string]Customer
	workers   map[string]Worker
	custErr   error
	workerErr error
}

func (s *fakeStore) GetOrder(ctx context.Context, id string) (*OrderRow, error) {
	return nil, &RouteError{Op: "GetOrder", OrderID: id, Err: ErrOrderNotFound}
}

func (s *fakeStore) GetCustomer(ctx context.Context, id string) (*Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.custErr != nil {
		return nil, s.custErr
	}
	c, ok := s.customers[id]
	if !ok {
		return nil, &RouteError{Op: "GetCustomer", Err: ErrCustomerNotFound}
	}
	return &c, nil
}

func (s *fakeStore) GetWorker(ctx context.Context, id string) (*Worker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.workerErr != nil {
		return nil, s.workerErr
	}
	w, ok := s.workers[id]
	if !ok {
		return nil, &RouteError{Op: "GetWorker", Err: ErrWorkerNotFound}
	}
	return &w, nil
}

type fakeNotifier struct {
	err  error
	sent chan NotificationRequest
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{sent: make(chan NotificationRequest, 8)}
}

func (n *fakeNotifier) Send(ctx context.Context, req NotificationRequest) error {
	n.sent <- req
	return n.err
}

type fakeToasts struct {
	mu     sync.Mutex
	toasts []Toast
}

func (f *fakeToasts) Push(t Toast) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.toasts = append(f.toasts, t)
}

func (f *fakeToasts) all() []Toast {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Toast, len(f.toasts))
	copy(out, f.toasts)
	return out
}

type dispatcherFixture struct {
	dispatcher *Dispatcher
	store      *fakeStore
	notifier   *fakeNotifier
	toasts     *fakeToasts
	refreshes  chan struct{}
	unsub      func()
}

func newDispatcherFixture(t *testing.T) *dispatcherFixture {
	t.Helper()

	store := &fakeStore{
		customers: map[string]Customer{
			"c1": {ID: "c1", Name: "Jane Doe", Email: "jane@example.com"},
		},
		workers: map[string]Worker{
			"w1": {ID: "w1", Name: "Bob"},
		},
	}
	notifier := newFakeNotifier()
	toasts := &fakeToasts{}
	hub := pubsub.NewSimpleHub(nil)

	refreshes := make(chan struct{}, 8)
	unsub := hub.Subscribe(TopicScheduleRefresh, func(topic string, data interface{}) {
		refreshes <- struct{}{}
	})
	t.Cleanup(unsub)

	return &dispatcherFixture{
		dispatcher: NewDispatcher(store, notifier, hub, toasts, NewStdLogger()),
		store:      store,
		notifier:   notifier,
		toasts:     toasts,
		refreshes:  refreshes,
		unsub:      unsub,
	}
}

func orderUpdateEvent(oldStatus, newStatus string) ChangeEvent {
	oldRow, _ := json.Marshal(map[string]interface{}{
		"id": "O1", "order_number": "ORD-1001", "status": oldStatus,
		"customer_id": "c1", "assigned_worker_id": "w1",
	})
	newRow, _ := json.Marshal(map[string]interface{}{
		"id": "O1", "order_number": "ORD-1001", "status": newStatus,
		"customer_id": "c1", "assigned_worker_id": "w1",
	})
	return ChangeEvent{Type: EventUpdate, Table: TableOrders, Old: oldRow, New: newRow}
}

func waitSignal(t *testing.T, ch chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func assertNoSignal(t *testing.T, ch chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
		t.Fatalf("unexpected %s", what)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDispatcherOrderStatusChanged(t *testing.T) {
	fix := newDispatcherFixture(t)

	ev := orderUpdateEvent(OrderScheduled, OrderCompleted)
	fix.dispatcher.Handle(context.Background(), ev, Diff(ev))

	var req NotificationRequest
	select {
	case req = <-fix.notifier.sent:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notification")
	}

	if req.OrderID != "O1" {
		t.Errorf("OrderID = %q, want O1", req.OrderID)
	}
	if req.Status != OrderCompleted {
		t.Errorf("Status = %q, want %q", req.Status, OrderCompleted)
	}
	if req.RecipientEmail != "jane@example.com" {
		t.Errorf("RecipientEmail = %q, want jane@example.com", req.RecipientEmail)
	}
	if req.RecipientName != "Jane Doe" {
		t.Errorf("RecipientName = %q, want Jane Doe", req.RecipientName)
	}
	if req.AssigneeName != "Bob" {
		t.Errorf("AssigneeName = %q, want Bob", req.AssigneeName)
	}
	if req.OrderNumber != "ORD-1001" {
		t.Errorf("OrderNumber = %q, want ORD-1001", req.OrderNumber)
	}
	if req.ID == "" {
		t.Error("request ID should be set")
	}

	waitSignal(t, fix.refreshes, "schedule:refresh broadcast")
	assertNoSignal(t, fix.refreshes, "second broadcast")

	select {
	case <-fix.notifier.sent:
		t.Fatal("second notification attempted")
	case <-time.After(100 * time.Millisecond):
	}

	toasts := fix.toasts.all()
	if len(toasts) != 1 {
		t.Fatalf("got %d toasts, want 1", len(toasts))
	}
	if toasts[0].Description != "Status changed to: completed" {
		t.Errorf("toast description = %q, want %q", toasts[0].Description, "Status changed to: completed")
	}
}

func TestDispatcherLookupFailureStillBroadcasts(t *testing.T) {
	fix := newDispatcherFixture(t)
	fix.store.custErr = errors.New("connection reset")

	ev := orderUpdateEvent(OrderScheduled, OrderInProgress)
	fix.dispatcher.Handle(context.Background(), ev, Diff(ev))

	select {
	case <-fix.notifier.sent:
		t.Fatal("notification should be skipped when the customer lookup fails")
	case <-time.After(100 * time.Millisecond):
	}

	waitSignal(t, fix.refreshes, "schedule:refresh broadcast")

	toasts := fix.toasts.all()
	if len(toasts) != 1 {
		t.Fatalf("got %d toasts, want 1", len(toasts))
	}
	if toasts[0].Description != "Status changed to: in progress" {
		t.Errorf("toast description = %q", toasts[0].Description)
	}
}

func TestDispatcherNotifierFailureStillBroadcasts(t *testing.T) {
	fix := newDispatcherFixture(t)
	fix.notifier.err = errors.New("smtp unavailable")

	ev := orderUpdateEvent(OrderInProgress, OrderPendingCompletion)
	fix.dispatcher.Handle(context.Background(), ev, Diff(ev))

	select {
	case <-fix.notifier.sent:
	case <-time.After(2 * time.Second):
		t.Fatal("notification should still be attempted")
	}
	waitSignal(t, fix.refreshes, "schedule:refresh broadcast")
}

func TestDispatcherAssigneeFallback(t *testing.T) {
	fix := newDispatcherFixture(t)
	fix.store.workerErr = errors.New("connection reset")

	ev := orderUpdateEvent(OrderScheduled, OrderCompleted)
	fix.dispatcher.Handle(context.Background(), ev, Diff(ev))

	var req NotificationRequest
	select {
	case req = <-fix.notifier.sent:
	case <-time.After(2 * time.Second):
		t.Fatal("notification should still go out without an assignee")
	}
	if req.AssigneeName != "" {
		t.Errorf("AssigneeName = %q, want empty fallback", req.AssigneeName)
	}
	if req.RecipientEmail != "jane@example.com" {
		t.Errorf("RecipientEmail = %q", req.RecipientEmail)
	}
}

func TestDispatcherSurveyChange(t *testing.T) {
	fix := newDispatcherFixture(t)

	ev := ChangeEvent{Type: EventInsert, Table: TableSurveys, New: surveyJSON(SurveySubmitted)}
	fix.dispatcher.Handle(context.Background(), ev, Diff(ev))

	waitSignal(t, fix.refreshes, "schedule:refresh broadcast")

	select {
	case <-fix.notifier.sent:
		t.Fatal("survey changes must not trigger notifications")
	case <-time.After(100 * time.Millisecond):
	}

	toasts := fix.toasts.all()
	if len(toasts) != 1 {
		t.Fatalf("got %d toasts, want 1", len(toasts))
	}
	if toasts[0].Description != "Survey submitted for review" {
		t.Errorf("toast description = %q", toasts[0].Description)
	}
}

func TestDispatcherNoChangeDoesNothing(t *testing.T) {
	fix := newDispatcherFixture(t)

	ev := orderUpdateEvent(OrderScheduled, OrderScheduled)
	fix.dispatcher.Handle(context.Background(), ev, Diff(ev))

	assertNoSignal(t, fix.refreshes, "broadcast for unchanged status")
	select {
	case <-fix.notifier.sent:
		t.Fatal("notification for unchanged status")
	case <-time.After(100 * time.Millisecond):
	}
	if len(fix.toasts.all()) != 0 {
		t.Error("toast for unchanged status")
	}
}

func TestSurveyToastMapping(t *testing.T) {
	tests := []struct {
		status string
		want   string
	}{
		{SurveySubmitted, "Survey submitted for review"},
		{SurveyApproved, "Survey approved - ready for next steps"},
		{SurveyReworkRequested, "Survey requires additional work"},
		{"archived", "Survey status updated to: archived"},
		{"", "Survey status updated to: "},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			got := surveyToast(tt.status)
			if got.Description != tt.want {
				t.Errorf("surveyToast(%q) = %q, want %q", tt.status, got.Description, tt.want)
			}
		})
	}
}

func TestHumanStatus(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"pending_completion", "pending completion"},
		{"completed", "completed"},
		{"in_progress", "in progress"},
	}
	for _, tt := range tests {
		if got := humanStatus(tt.in); got != tt.want {
			t.Errorf("humanStatus(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
