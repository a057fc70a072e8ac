package serialmon

import (
	"errors"
)

// handleOpenError closes the port and joins any error from closing with the original error
func (c *Connection) handleOpenError(err error) error {
	c.closed.Store(true)
	c.closeOnce.Do(func() {})
	if e := c.release(); e != nil {
		err = errors.Join(err, e)
	}
	return err
}

// release closes the handle and returns the scratch buffer to the pool.
// Callers guarantee it runs once.
func (c *Connection) release() error {
	h := c.port
	c.port = nil
	if c.buf != nil {
		putReadBuf(c.buf)
		c.buf = nil
	}
	c.pending = nil
	if h != nil {
		return h.Close()
	}
	return nil
}
