// Package palette maps character codes of a message to hex colors.
//
// Everything here is pure: no I/O, no shared state. Functions are safe to
// call from any number of goroutines.
package palette

import "errors"

var (
	ErrInvalidRange        = errors.New("invalid range")
	ErrInvalidChannelValue = errors.New("channel value out of [0,255]")
	ErrUnknownStrategy     = errors.New("unknown strategy")
	ErrEmptyMessage        = errors.New("message is empty after preparation")
)
