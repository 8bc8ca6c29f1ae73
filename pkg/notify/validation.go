package notify

// ValidateEvent checks the structural shape of a feed payload before it
// is diffed. The feed itself does no filtering beyond what it requested
// from the database, so a malformed envelope is dropped here.
func ValidateEvent(ev ChangeEvent) error {
	switch ev.Table {
	case TableOrders, TableSurveys:
	default:
		return &EnvelopeError{field: "table", reason: "unknown table " + ev.Table}
	}

	switch ev.Type {
	case EventInsert:
		if len(ev.New) == 0 {
			return &EnvelopeError{field: "new", reason: "missing on insert"}
		}
	case EventUpdate:
		if len(ev.Old) == 0 {
			return &EnvelopeError{field: "old", reason: "missing on update"}
		}
		if len(ev.New) == 0 {
			return &EnvelopeError{field: "new", reason: "missing on update"}
		}
	case EventDelete:
		if len(ev.Old) == 0 {
			return &EnvelopeError{field: "old", reason: "missing on delete"}
		}
	default:
		return &EnvelopeError{field: "type", reason: "unknown event type " + ev.Type}
	}
	return nil
}

type EnvelopeError struct {
	field  string
	reason string
}

func (e *EnvelopeError) Error() string {
	return "invalid change event: " + e.field + ": " + e.reason
}
