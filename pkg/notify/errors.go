package notify

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound    = errors.New("notify: order not found")
	ErrCustomerNotFound = errors.New("notify: customer not found")
	ErrWorkerNotFound   = errors.New("notify: worker not found")
	ErrAlreadyWatching  = errors.New("notify: order already being watched")
	ErrRouterClosed     = errors.New("notify: router closed")
)

type RouteError struct {
	Op      string
	OrderID string
	Err     error
}

func (e *RouteError) Error() string {
	if e.OrderID != "" {
		return fmt.Sprintf("notify.%s [%s]: %v", e.Op, e.OrderID, e.Err)
	}
	return fmt.Sprintf("notify.%s: %v", e.Op, e.Err)
}

func (e *RouteError) Unwrap() error {
	return e.Err
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrOrderNotFound) ||
		errors.Is(err, ErrCustomerNotFound) ||
		errors.Is(err, ErrWorkerNotFound)
}

func IsAlreadyWatching(err error) bool {
	return errors.Is(err, ErrAlreadyWatching)
}

func IsClosed(err error) bool {
	return errors.Is(err, ErrRouterClosed)
}
