package orderapi

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")     // 404
	ErrUnauthorized = errors.New("unauthorized")  // 401
	ErrValidation   = errors.New("validation")    // 400
)

// NetworkError means the request never produced a response.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network: %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPError is the normalized shape every non-2xx response is reduced to
// before it reaches UI state.
type HTTPError struct {
	Status  int
	Message string
	Data    map[string]any
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}

// Is lets callers match the well-known statuses with errors.Is without
// digging in the struct.
func (e *HTTPError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == 404
	case ErrUnauthorized:
		return e.Status == 401
	case ErrValidation:
		return e.Status == 400
	}
	return false
}
