package transport

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// ErrNoFreePort is returned by Bind when every probed port is taken.
var ErrNoFreePort = errors.New("no free port")

const maxAcceptDelay = time.Second

type TCP struct {
	l      net.Listener
	logger *slog.Logger
	wg     sync.WaitGroup
	stop   atomic.Bool
}

var _ Transport = (*TCP)(nil)

func NewTCP(logger *slog.Logger) *TCP {
	return &TCP{logger: logger}
}

func (t *TCP) Bind(host string, first, last int) (int, error) {
	err := fmt.Errorf("%w: empty range [%d, %d)", ErrNoFreePort, first, last)

	for port := first; port < last; port++ {
		var l net.Listener
		if l, err = net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port))); err == nil {
			t.l = l
			return port, nil
		}

		t.logger.Debug("port is taken", slog.Int("port", port), slog.String("error", err.Error()))
	}

	return 0, fmt.Errorf("%w in [%d, %d): %w", ErrNoFreePort, first, last, err)
}

func (t *TCP) Listen(cb func(conn net.Conn)) error {
	var delay time.Duration

	for {
		conn, err := t.l.Accept()
		if err != nil {
			if t.stop.Load() {
				return nil
			}

			if errors.Is(err, net.ErrClosed) {
				return err
			}

			// back off the same way net/http does, so a persistent failure doesn't spin
			delay = min(max(2*delay, 5*time.Millisecond), maxAcceptDelay)
			t.logger.Warn("accepting connection",
				slog.String("error", err.Error()),
				slog.Duration("retry_in", delay),
			)
			time.Sleep(delay)
			continue
		}

		delay = 0
		t.wg.Add(1)

		go func(conn net.Conn) {
			defer t.wg.Done()
			defer func() {
				_ = conn.Close()
			}()

			cb(conn)
		}(conn)
	}
}

// Addr returns the address the listener is bound to. Must be called after Bind.
func (t *TCP) Addr() net.Addr {
	return t.l.Addr()
}

// Stop makes Listen return. Connections being served are left untouched.
func (t *TCP) Stop() {
	t.stop.Store(true)
	if t.l != nil {
		_ = t.l.Close()
	}
}

// Wait blocks until every connection accepted so far has been served.
func (t *TCP) Wait() {
	t.wg.Wait()
}
