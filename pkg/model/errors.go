package model

import "fmt"

// InvalidInputError is returned when an analytics operation receives input it
// cannot work with (too few rows, bad bounds, malformed matrix).
type InvalidInputError struct {
	Op  string // operation that rejected the input
	Msg string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input to %s: %s", e.Op, e.Msg)
}

func invalidInput(op string, format string, args ...any) error {
	return &InvalidInputError{
		Op:  op,
		Msg: fmt.Sprintf(format, args...),
	}
}
