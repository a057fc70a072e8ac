package serialmon

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/atomic"
)

// Connection is an open serial device framed 8-N-1. It has exactly one
// owner; its methods must not be called concurrently. Close may be called
// any number of times.
type Connection struct {
	port portHandle

	portName    string
	baudRate    BaudRate
	readTimeout time.Duration
	maxLineSize int

	// current driver read timeout, to avoid redundant SetReadTimeout calls
	driverTimeout time.Duration

	buf     []byte // scratch chunk from readBufPool
	pending []byte // bytes read from the device but not yet handed out

	metrics *Metrics

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// Open opens the device named in cfg with Framing8N1 and applies the
// configured read timeout. If configuring the opened handle fails, the
// handle is closed before Open returns.
func Open(cfg Config) (*Connection, error) {
	return openConnection(cfg, nil)
}

func openConnection(cfg Config, metrics *Metrics) (*Connection, error) {
	if cfg.MaxLineSize <= 0 {
		cfg.MaxLineSize = DefaultMaxLineSize
	}
	baud := BaudRate(cfg.BaudRate)

	if metrics != nil {
		metrics.OpenAttempts.Inc()
	}

	h, err := openPort(cfg.PortName, Framing8N1.Mode(baud))
	if err != nil {
		if metrics != nil {
			metrics.OpenFailures.Inc()
		}
		return nil, newDeviceError("open", cfg.PortName, err)
	}

	c := &Connection{
		port:          h,
		portName:      cfg.PortName,
		baudRate:      baud,
		readTimeout:   cfg.ReadTimeout,
		maxLineSize:   cfg.MaxLineSize,
		driverTimeout: -1,
		buf:           getReadBuf(),
		metrics:       metrics,
	}

	if err = c.setDriverTimeout(cfg.ReadTimeout); err != nil {
		if metrics != nil {
			metrics.OpenFailures.Inc()
		}
		return nil, c.handleOpenError(newDeviceError("configure", cfg.PortName, err))
	}

	if metrics != nil {
		metrics.ConnectedAt.Store(time.Now().UnixNano())
	}
	return c, nil
}

// PortName returns the device identifier the connection was opened with.
func (c *Connection) PortName() string { return c.portName }

// BaudRate returns the line speed the connection was opened with.
func (c *Connection) BaudRate() BaudRate { return c.baudRate }

// ReadTimeout returns the configured per-record read timeout.
func (c *Connection) ReadTimeout() time.Duration { return c.readTimeout }

// InWaiting reports how many received bytes are ready to be read. It never
// waits for the device: when nothing is buffered it performs a single
// zero-timeout read.
func (c *Connection) InWaiting() (int, error) {
	if c.closed.Load() {
		return 0, ErrClosed
	}
	if len(c.pending) > 0 {
		return len(c.pending), nil
	}
	if _, err := c.fill(0); err != nil {
		return 0, err
	}
	return len(c.pending), nil
}

// ReadLine returns the next record including its terminating '\n'. It blocks
// for at most the configured read timeout in total; when the timeout expires
// first, the bytes received so far are returned, possibly none. A record
// whose content grows beyond the maximum line size is handed out in pieces of
// at most that size, never splitting a UTF-8 character.
func (c *Connection) ReadLine() ([]byte, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}

	var deadline time.Time
	if c.readTimeout > 0 {
		deadline = time.Now().Add(c.readTimeout)
	}

	for {
		// the terminator does not count toward maxLineSize
		if idx := indexByte(c.pending, '\n'); idx >= 0 && idx <= c.maxLineSize {
			return c.take(idx + 1), nil
		}
		if len(c.pending) > c.maxLineSize {
			if c.metrics != nil {
				c.metrics.TruncatedRecords.Inc()
			}
			return c.take(truncationPoint(c.pending, c.maxLineSize)), nil
		}

		remaining := time.Duration(0)
		if !deadline.IsZero() {
			remaining = time.Until(deadline)
			if remaining <= 0 {
				return c.take(len(c.pending)), nil
			}
		}

		n, err := c.fill(remaining)
		if err != nil {
			return nil, err
		}
		if n == 0 && c.readTimeout == 0 {
			return c.take(len(c.pending)), nil
		}
	}
}

// Close releases the device. The underlying handle is closed exactly once;
// later calls return the result of the first.
func (c *Connection) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		if err := c.release(); err != nil {
			c.closeErr = newDeviceError("close", c.portName, err)
		}
		if c.metrics != nil {
			if start := c.metrics.ConnectedAt.Load(); start > 0 {
				c.metrics.ConnectedNanos.Add(time.Now().UnixNano() - start)
			}
		}
	})
	return c.closeErr
}

// fill performs one driver read bounded by timeout and appends the result
// to the pending buffer.
func (c *Connection) fill(timeout time.Duration) (int, error) {
	if err := c.setDriverTimeout(timeout); err != nil {
		return 0, c.readError(err)
	}

	n, err := c.port.Read(c.buf)
	if n > 0 {
		c.pending = append(c.pending, c.buf[:n]...)
		if c.metrics != nil {
			c.metrics.BytesRead.Add(int64(n))
		}
	}
	if err != nil {
		return n, c.readError(err)
	}
	return n, nil
}

func (c *Connection) setDriverTimeout(d time.Duration) error {
	if d == c.driverTimeout {
		return nil
	}
	if err := c.port.SetReadTimeout(d); err != nil {
		return err
	}
	c.driverTimeout = d
	return nil
}

func (c *Connection) readError(err error) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if errors.Is(err, ErrClosed) {
		return err
	}
	return newDeviceError("read", c.portName, err)
}

// take removes and returns the first n pending bytes.
func (c *Connection) take(n int) []byte {
	out := make([]byte, n)
	copy(out, c.pending[:n])
	c.pending = append(c.pending[:0], c.pending[n:]...)
	return out
}
