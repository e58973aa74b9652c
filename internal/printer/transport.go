package printer

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/resocorp/jollofexpress-sub000/internal/config"
)

var (
	ErrNotConfigured = errors.New("printer is not configured")
	ErrNotReady      = errors.New("printer is not ready")
)

const (
	defaultConnectTimeout = 5 * time.Second
	defaultSendTimeout    = 5 * time.Second
	defaultProbeTimeout   = 3 * time.Second
	defaultStatusTimeout  = 3 * time.Second

	// quietWindow is how long the printer must pause sending before a
	// status response is considered complete.
	quietWindow = 100 * time.Millisecond
)

// Result is the outcome of a single transport operation. Transport never
// panics and never raises across the processor boundary; every failure is a
// value the caller can turn into a retry decision.
type Result struct {
	OK      bool
	Message string
	Err     error
}

func success(msg string) Result {
	return Result{OK: true, Message: msg}
}

func failure(msg string, err error) Result {
	return Result{OK: false, Message: msg, Err: err}
}

// Client performs single-shot network round trips against one printer. It
// holds no connection between calls; the printer is a single unshared
// resource and callers must not issue two operations concurrently.
type Client struct {
	cfg config.PrinterConfig
}

func New(cfg config.PrinterConfig) *Client {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = defaultSendTimeout
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = defaultProbeTimeout
	}
	if cfg.StatusTimeout <= 0 {
		cfg.StatusTimeout = defaultStatusTimeout
	}
	return &Client{cfg: cfg}
}

// Configured reports whether a printer address has been supplied.
func (c *Client) Configured() bool {
	return c.cfg.Host != ""
}

func (c *Client) addr() string {
	return net.JoinHostPort(c.cfg.Host, fmt.Sprintf("%d", c.cfg.Port))
}

// Send writes the full byte sequence to the printer. Success is signaled
// only once the write side is closed and the printer closes the connection
// cleanly; a hung printer resolves as a timeout failure, never a hang.
func (c *Client) Send(data []byte) Result {
	if !c.Configured() {
		return failure("printer is not configured", ErrNotConfigured)
	}

	conn, err := net.DialTimeout("tcp", c.addr(), c.cfg.ConnectTimeout)
	if err != nil {
		return failure(fmt.Sprintf("could not connect to printer at %s", c.addr()), err)
	}
	defer conn.Close()

	deadline := time.Now().Add(c.cfg.SendTimeout)
	_ = conn.SetDeadline(deadline)

	if _, err := conn.Write(data); err != nil {
		return failure("failed to write print data", err)
	}

	if tcp, ok := conn.(*net.TCPConn); ok {
		if err := tcp.CloseWrite(); err != nil {
			return failure("failed to finish print data", err)
		}
	}

	// Drain until the printer closes its side. EOF is the success signal.
	buf := make([]byte, 64)
	for {
		_, err := conn.Read(buf)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return success(fmt.Sprintf("sent %d bytes to %s", len(data), c.addr()))
			}
			if isTimeout(err) {
				return failure("printer did not acknowledge within timeout", err)
			}
			return failure("connection error while finishing print", err)
		}
	}
}

// TestConnection is a connect-only probe with a shorter timeout.
func (c *Client) TestConnection() Result {
	if !c.Configured() {
		return failure("printer is not configured", ErrNotConfigured)
	}

	conn, err := net.DialTimeout("tcp", c.addr(), c.cfg.ProbeTimeout)
	if err != nil {
		return failure(fmt.Sprintf("could not connect to printer at %s", c.addr()), err)
	}
	conn.Close()
	return success(fmt.Sprintf("printer reachable at %s", c.addr()))
}

// QueryStatus writes a short command and accumulates whatever the printer
// sends back, resolving once the printer pauses for the quiet window, the
// connection closes, or the overall timeout elapses. Returns nil when no
// bytes were ever received.
func (c *Client) QueryStatus(command []byte, timeout time.Duration) ([]byte, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	if timeout <= 0 {
		timeout = c.cfg.StatusTimeout
	}

	conn, err := net.DialTimeout("tcp", c.addr(), c.cfg.ConnectTimeout)
	if err != nil {
		return nil, fmt.Errorf("could not connect to printer: %w", err)
	}
	defer conn.Close()

	overall := time.Now().Add(timeout)
	_ = conn.SetDeadline(overall)

	if _, err := conn.Write(command); err != nil {
		return nil, fmt.Errorf("failed to write status command: %w", err)
	}

	var response []byte
	buf := make([]byte, 16)
	for {
		readDeadline := overall
		if len(response) > 0 {
			quiet := time.Now().Add(quietWindow)
			if quiet.Before(readDeadline) {
				readDeadline = quiet
			}
		}
		_ = conn.SetReadDeadline(readDeadline)

		n, err := conn.Read(buf)
		if n > 0 {
			response = append(response, buf[:n]...)
		}
		if err != nil {
			if errors.Is(err, io.EOF) || isTimeout(err) {
				break
			}
			return nil, fmt.Errorf("status read failed: %w", err)
		}
	}

	if len(response) == 0 {
		return nil, nil
	}
	return response, nil
}

// SendVerified checks readiness first and sends only when nothing blocks
// printing. The failure message enumerates every blocking condition.
func (c *Client) SendVerified(data []byte) Result {
	readiness := c.IsReady()
	if !readiness.Ready {
		msg := "printer is not ready"
		if len(readiness.Blockers) > 0 {
			msg = fmt.Sprintf("printer is not ready: %s", joinConditions(readiness.Blockers))
		}
		return failure(msg, ErrNotReady)
	}
	return c.Send(data)
}

func isTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, os.ErrDeadlineExceeded)
}

func joinConditions(conditions []string) string {
	out := ""
	for i, c := range conditions {
		if i > 0 {
			out += ", "
		}
		out += c
	}
	return out
}
