package notify

import (
	"encoding/json"
)

// Diff decides whether a change event is a transition of interest.
// It is pure and synchronous: snapshots in, typed outcome out.
func Diff(ev ChangeEvent) Outcome {
	switch ev.Table {
	case TableOrders:
		return diffOrder(ev)
	case TableSurveys:
		return diffSurvey(ev)
	}
	return Outcome{Kind: NoChange}
}

type statusOnly struct {
	Status string `json:"status"`
}

func rowStatus(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", false
	}
	var row statusOnly
	if err := json.Unmarshal(raw, &row); err != nil {
		return "", false
	}
	return row.Status, true
}

// Only UPDATE events matter for orders, and only when the status value
// actually differs between the two snapshots. A missing or unreadable
// snapshot yields NoChange: under-notifying beats a spurious alert from
// a corrupted payload.
func diffOrder(ev ChangeEvent) Outcome {
	if ev.Type != EventUpdate {
		return Outcome{Kind: NoChange}
	}
	oldStatus, ok := rowStatus(ev.Old)
	if !ok {
		return Outcome{Kind: NoChange}
	}
	newStatus, ok := rowStatus(ev.New)
	if !ok {
		return Outcome{Kind: NoChange}
	}
	if newStatus == oldStatus {
		return Outcome{Kind: NoChange}
	}
	return Outcome{Kind: OrderStatusChanged, Status: newStatus}
}

func diffSurvey(ev ChangeEvent) Outcome {
	switch ev.Type {
	case EventInsert:
		status, ok := rowStatus(ev.New)
		if !ok {
			return Outcome{Kind: NoChange}
		}
		return Outcome{Kind: SurveyStatusChanged, Status: status}
	case EventDelete:
		status, ok := rowStatus(ev.Old)
		if !ok {
			return Outcome{Kind: NoChange}
		}
		return Outcome{Kind: SurveyStatusChanged, Status: status}
	case EventUpdate:
		oldStatus, ok := rowStatus(ev.Old)
		if !ok {
			return Outcome{Kind: NoChange}
		}
		newStatus, ok := rowStatus(ev.New)
		if !ok {
			return Outcome{Kind: NoChange}
		}
		if newStatus == oldStatus {
			return Outcome{Kind: NoChange}
		}
		return Outcome{Kind: SurveyStatusChanged, Status: newStatus}
	}
	return Outcome{Kind: NoChange}
}
