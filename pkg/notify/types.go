package notify

import (
	"encoding/json"
)

// Row-change event types, matching TG_OP in the database triggers.
const (
	EventInsert = "INSERT"
	EventUpdate = "UPDATE"
	EventDelete = "DELETE"
)

// Watched tables.
const (
	TableOrders  = "orders"
	TableSurveys = "surveys"
)

// Hub topics.
const (
	TopicScheduleRefresh = "schedule:refresh"
	TopicToast           = "toast"
)

// Order status ladder used by the dispatch desk.
const (
	OrderSubmitted         = "submitted"
	OrderScheduled         = "scheduled"
	OrderInProgress        = "in_progress"
	OrderPendingCompletion = "pending_completion"
	OrderCompleted         = "completed"
	OrderCancelled         = "cancelled"
)

// Survey review statuses.
const (
	SurveySubmitted       = "submitted"
	SurveyApproved        = "approved"
	SurveyReworkRequested = "rework_requested"
)

// ChangeEvent is one row-change notification decoded from a feed payload.
// Old is absent for inserts, New is absent for deletes.
type ChangeEvent struct {
	Type  string          `json:"type"`
	Table string          `json:"table"`
	Old   json.RawMessage `json:"old,omitempty"`
	New   json.RawMessage `json:"new,omitempty"`
}

// OrderRow mirrors the orders columns carried inside trigger payloads.
// Dates come through as plain strings because row_to_json renders DATE
// columns without a time component.
type OrderRow struct {
	ID               string `json:"id"`
	OrderNumber      string `json:"order_number"`
	Status           string `json:"status"`
	CustomerID       string `json:"customer_id"`
	AssignedWorkerID string `json:"assigned_worker_id"`
	ScheduledDate    string `json:"scheduled_date"`
}

// SurveyRow mirrors the surveys columns carried inside trigger payloads.
type SurveyRow struct {
	ID      string `json:"id"`
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

type Customer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Worker struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// NotificationRequest is the payload sent to the notification service.
// Built per detected transition and consumed immediately; never persisted.
type NotificationRequest struct {
	ID             string `json:"id"`
	OrderID        string `json:"orderId"`
	Status         string `json:"status"`
	RecipientEmail string `json:"recipientEmail"`
	RecipientName  string `json:"recipientName"`
	OrderNumber    string `json:"orderNumber,omitempty"`
	ScheduledDate  string `json:"scheduledDate,omitempty"`
	AssigneeName   string `json:"assigneeName,omitempty"`
}

// Toast is a transient user-visible message pushed over the hub.
type Toast struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// OutcomeKind classifies the result of diffing a change event.
type OutcomeKind int

const (
	NoChange OutcomeKind = iota
	OrderStatusChanged
	SurveyStatusChanged
)

// Outcome is the typed result of the differ. Status carries the new
// status value for the two changed kinds and is empty for NoChange.
type Outcome struct {
	Kind   OutcomeKind
	Status string
}
