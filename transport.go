package serialmon

import (
	"time"

	gobug "go.bug.st/serial"
)

// portHandle abstracts the subset of go.bug.st/serial.Port used by this package.
type portHandle interface {
	Read(p []byte) (int, error)
	Close() error
	SetReadTimeout(d time.Duration) error
}

// allow tests to override external dependencies
var (
	openPort     = func(name string, mode *gobug.Mode) (portHandle, error) { return gobug.Open(name, mode) }
	getPortsList = gobug.GetPortsList
)
