package connector

import (
	"context"
	"errors"
	"fmt"

	"github.com/venuelink/venuelink/internal/protocol"
)

// UnsupportedError reports an operation or data type the concrete connector
// does not implement. It is surfaced to the caller as a terminal error
// response naming the requested combination.
type UnsupportedError struct {
	Kind     protocol.Kind
	DataType protocol.DataType
}

func (e *UnsupportedError) Error() string {
	if e.DataType != "" {
		return fmt.Sprintf("market data type %q is not supported by this connector", e.DataType)
	}
	return fmt.Sprintf("operation %q is not supported by this connector", e.Kind)
}

// NewUnsupportedKind builds the error for an unimplemented message kind.
func NewUnsupportedKind(kind protocol.Kind) error {
	return &UnsupportedError{Kind: kind}
}

// NewUnsupportedDataType builds the error for an unimplemented market data type.
func NewUnsupportedDataType(dt protocol.DataType) error {
	return &UnsupportedError{Kind: protocol.KindMarketData, DataType: dt}
}

// RemoteError wraps a failed venue gateway call. Code and Reason carry the
// venue-provided machine code/message pair when the venue reported one.
type RemoteError struct {
	Op     string
	Code   string
	Reason string
	Err    error
}

func (e *RemoteError) Error() string {
	switch {
	case e.Code != "":
		return fmt.Sprintf("%s: venue error %s: %s", e.Op, e.Code, e.Reason)
	case e.Reason != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Reason)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: remote call failed", e.Op)
	}
}

func (e *RemoteError) Unwrap() error { return e.Err }

// isCancellation reports whether err is a cooperative cancellation outcome.
// Deadline expiry is deliberately excluded: an internal timeout is a genuine
// failure, not a caller-requested stop.
func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled)
}
