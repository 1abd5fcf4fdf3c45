package fetch

import (
	"errors"
	"fmt"
)

var (
	// ErrService is returned when the remote service reports a failure
	ErrService = errors.New("service error")
	ErrNoData  = errors.New("no data")
	ErrDecode  = errors.New("invalid response")
)

type ServiceError struct {
	Message string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("service error: %s", e.Message)
}

func (e *ServiceError) Is(target error) bool {
	return target == ErrService
}

// StatusError is returned for HTTP responses other than 200
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected http status %d", e.URL, e.Code)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrService
}

// Message returns a short text suitable to show to users
func Message(err error) string {
	var se *ServiceError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &se):
		return se.Message
	case errors.Is(err, ErrNoData):
		return "No data available for this selection."
	case errors.Is(err, ErrDecode):
		return "The analysis service returned an unexpected response."
	default:
		return "The analysis service is not reachable."
	}
}
