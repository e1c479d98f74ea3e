package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrMalformedTimestamp is reported when an event timestamp cannot be parsed.
var ErrMalformedTimestamp = errors.New("malformed timestamp")

// TimestampError records the timestamp that failed to parse.
type TimestampError struct {
	Value string
	Err   error
}

func (e *TimestampError) Error() string {
	return fmt.Sprintf("%s %q: %v", ErrMalformedTimestamp, e.Value, e.Err)
}

func (e *TimestampError) Unwrap() []error {
	return []error{ErrMalformedTimestamp, e.Err}
}

// ParseTimestamp parses an ISO-8601 timestamp as delivered by the events API,
// e.g. "2022-03-30T12:00:00Z".
func ParseTimestamp(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, &TimestampError{Value: value, Err: err}
	}
	return t, nil
}
