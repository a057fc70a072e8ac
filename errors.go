package serialmon

import (
	"errors"
	"fmt"
)

var (
	ErrClosed        = errors.New("serialmon: connection closed")
	ErrInvalidConfig = errors.New("serialmon: invalid configuration")
)

// DeviceError reports a transport-level failure while opening, configuring,
// reading from or closing the serial device. It is terminal for a run.
type DeviceError struct {
	Op   string // "open", "configure", "read", "close"
	Port string
	Err  error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("serialmon: %s %s: %v", e.Op, e.Port, e.Err)
}

func (e *DeviceError) Unwrap() error {
	return e.Err
}

// Message returns the driver's own description of the failure, without the
// operation and port decoration.
func (e *DeviceError) Message() string {
	if e.Err == nil {
		return e.Op + " failed"
	}
	return e.Err.Error()
}

// DecodeError reports a record that is not valid UTF-8 text. The monitor
// treats it as non-fatal.
type DecodeError struct {
	Raw    []byte
	Offset int // index of the first invalid byte in Raw
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("serialmon: invalid utf-8 at byte %d of %d", e.Offset, len(e.Raw))
}

func newDeviceError(op, port string, err error) error {
	if err == nil {
		return nil
	}
	var de *DeviceError
	if errors.As(err, &de) {
		return err
	}
	return &DeviceError{Op: op, Port: port, Err: err}
}
