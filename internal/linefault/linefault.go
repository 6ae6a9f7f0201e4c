// Package linefault holds the errors for failed line transitions, so callers
// can classify them without depending on the GPIO stack.
package linefault

import "errors"

var (
	// ErrOpen means the line could not be requested as an idle output.
	ErrOpen = errors.New("dht: request idle output")

	// ErrWatch means the line could not be switched to edge watching.
	ErrWatch = errors.New("dht: request edge watch")
)
