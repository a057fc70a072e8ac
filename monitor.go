package serialmon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/atomic"
)

// Console lines printed by the monitor. Tools that scrape the output rely
// on these exact prefixes.
const (
	msgConnected   = "Connected to %s at %d baud"
	msgReceived    = "Received: %s"
	msgDecodeError = "Error decoding message"
	msgError       = "Error: %s"
	msgClosed      = "Serial connection closed"
)

// lineSource is what the monitoring loop needs from an open device.
type lineSource interface {
	// InWaiting reports the number of bytes ready to read without blocking.
	InWaiting() (int, error)
	// ReadLine reads one newline-terminated record, blocking up to the
	// read timeout.
	ReadLine() ([]byte, error)
	Close() error
}

type openFunc func(cfg Config, metrics *Metrics) (lineSource, error)

func openDevice(cfg Config, metrics *Metrics) (lineSource, error) {
	c, err := openConnection(cfg, metrics)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Monitor prints every record received on a serial device until its context
// is cancelled or the device fails.
type Monitor struct {
	cfg    Config
	out    io.Writer
	logger zerolog.Logger
	open   openFunc

	metrics   *Metrics
	connected atomic.Bool
	running   atomic.Bool
}

// NewMonitor validates cfg and returns a Monitor printing to out. Diagnostic
// events go to logger.
func NewMonitor(cfg Config, out io.Writer, logger zerolog.Logger) (*Monitor, error) {
	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}
	if out == nil {
		out = os.Stdout
	}
	return &Monitor{
		cfg:     cfg,
		out:     out,
		logger:  logger,
		open:    openDevice,
		metrics: &Metrics{},
	}, nil
}

// Run monitors the device named by port until ctx is cancelled. Output goes
// to stdout; no diagnostic log is written.
func Run(ctx context.Context, port string, baudRate int, timeout time.Duration) error {
	cfg := DefaultConfig()
	cfg.PortName = port
	cfg.BaudRate = baudRate
	cfg.ReadTimeout = timeout

	m, err := NewMonitor(cfg, os.Stdout, zerolog.Nop())
	if err != nil {
		PrintError(os.Stdout, err)
		return err
	}
	return m.Run(ctx)
}

// Run opens the device and prints records until ctx is cancelled (returns
// nil) or a device error occurs (returns the *DeviceError). Once the device
// is open it is closed exactly once on every exit path.
func (m *Monitor) Run(ctx context.Context) (err error) {
	if !m.running.CompareAndSwap(false, true) {
		return errors.New("serialmon: monitor is already running")
	}
	defer m.running.Store(false)

	log := m.logger.With().
		Str("port", m.cfg.PortName).
		Int("baud", m.cfg.BaudRate).
		Logger()

	if !isStandardPortPattern(m.cfg.PortName) {
		log.Warn().Msg("port name doesn't match a typical serial device pattern")
	}

	conn, err := m.open(m.cfg, m.metrics)
	if err != nil {
		m.metrics.DeviceErrors.Inc()
		PrintError(m.out, err)
		log.Error().Err(err).Msg("failed to open serial port")
		return err
	}

	m.connected.Store(true)
	m.emit(fmt.Sprintf(msgConnected, m.cfg.PortName, m.cfg.BaudRate))
	log.Info().
		Str("framing", Framing8N1.String()).
		Dur("read_timeout", m.cfg.ReadTimeout).
		Msg("serial port opened")

	defer func() {
		m.connected.Store(false)
		if cerr := conn.Close(); cerr != nil {
			log.Error().Err(cerr).Msg("closing serial port")
			err = errors.Join(err, cerr)
		}
		m.emit(msgClosed)
		log.Info().Msg("serial port closed")
	}()

	return m.poll(ctx, conn, log)
}

// poll is the monitoring loop proper.
func (m *Monitor) poll(ctx context.Context, conn lineSource, log zerolog.Logger) error {
	for {
		if ctx.Err() != nil {
			log.Debug().Msg("monitor cancelled")
			return nil
		}

		m.metrics.Polls.Inc()
		n, err := conn.InWaiting()
		if err != nil {
			return m.deviceFailure(err, log)
		}
		if n == 0 {
			m.metrics.EmptyPolls.Inc()
			if !sleepContext(ctx, m.cfg.PollInterval) {
				log.Debug().Msg("monitor cancelled")
				return nil
			}
			continue
		}

		raw, err := conn.ReadLine()
		if err != nil {
			return m.deviceFailure(err, log)
		}
		if len(raw) == 0 {
			continue
		}
		m.handleRecord(raw, log)
	}
}

func (m *Monitor) handleRecord(raw []byte, log zerolog.Logger) {
	line, err := decodeRecord(raw)
	if err != nil {
		m.metrics.DecodeErrors.Inc()
		m.emit(msgDecodeError)
		log.Debug().Err(err).Hex("raw", raw).Msg("record is not valid utf-8")
		return
	}
	m.metrics.RecordsReceived.Inc()
	m.emit(fmt.Sprintf(msgReceived, line))
	log.Trace().Int("bytes", len(raw)).Msg("record received")
}

func (m *Monitor) deviceFailure(err error, log zerolog.Logger) error {
	m.metrics.DeviceErrors.Inc()
	PrintError(m.out, err)
	log.Error().Err(err).Msg("serial device error")
	return err
}

func (m *Monitor) emit(s string) {
	_, _ = fmt.Fprintln(m.out, s)
}

// PrintError writes the "Error: ..." console line for err to w. Device
// errors show the driver's own message.
func PrintError(w io.Writer, err error) {
	_, _ = fmt.Fprintf(w, msgError+"\n", errorMessage(err))
}

func errorMessage(err error) string {
	var de *DeviceError
	if errors.As(err, &de) {
		return de.Message()
	}
	return err.Error()
}

// sleepContext waits for d or until ctx is done. It reports whether the
// full wait elapsed.
func sleepContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
