package exchange

import "errors"

var (
	ErrMalformedOrder   = errors.New("malformed order")
	ErrUnknownEventKind = errors.New("unknown event kind")
	ErrMissingOrderID   = errors.New("order has no id")
)
