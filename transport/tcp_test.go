package transport

import (
	"errors"
	"io"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTCP() *TCP {
	return NewTCP(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// freePort finds a port nobody is listening on right now.
func freePort(t *testing.T) int {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	return port
}

func TestBind(t *testing.T) {
	t.Run("skips taken ports", func(t *testing.T) {
		taken, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		defer func() {
			_ = taken.Close()
		}()

		first := taken.Addr().(*net.TCPAddr).Port
		tcp := newTCP()
		port, err := tcp.Bind("127.0.0.1", first, first+10)
		require.NoError(t, err)
		require.Greater(t, port, first)
		tcp.Stop()
	})

	t.Run("all taken", func(t *testing.T) {
		taken, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		defer func() {
			_ = taken.Close()
		}()

		first := taken.Addr().(*net.TCPAddr).Port
		_, err = newTCP().Bind("127.0.0.1", first, first+1)
		require.ErrorIs(t, err, ErrNoFreePort)
	})

	t.Run("empty range", func(t *testing.T) {
		_, err := newTCP().Bind("127.0.0.1", 3000, 3000)
		require.ErrorIs(t, err, ErrNoFreePort)
	})
}

func TestListen(t *testing.T) {
	tcp := newTCP()
	first := freePort(t)
	port, err := tcp.Bind("127.0.0.1", first, first+100)
	require.NoError(t, err)

	served := make(chan string, 2)
	listenErr := make(chan error, 1)
	go func() {
		listenErr <- tcp.Listen(func(conn net.Conn) {
			buff := make([]byte, 5)
			n, _ := io.ReadFull(conn, buff)
			served <- string(buff[:n])
		})
	}()

	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(port))

	// the first connection stays silent and must not block the second one
	silent, err := net.Dial("tcp", addr)
	require.NoError(t, err)

	talkative, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	_, err = talkative.Write([]byte("hello"))
	require.NoError(t, err)
	require.Equal(t, "hello", <-served)

	// the callback returned, so the connection is closed by now
	_, err = talkative.Read(make([]byte, 1))
	require.ErrorIs(t, err, io.EOF)

	tcp.Stop()
	require.NoError(t, <-listenErr)

	require.NoError(t, silent.Close())
	require.Equal(t, "", <-served)
	tcp.Wait()
}

// flakyListener fails the first Accept, then hands out its conns one by one and
// blocks until closed.
type flakyListener struct {
	failures int
	conns    chan net.Conn
	closed   chan struct{}
	once     sync.Once
}

func newFlakyListener(failures int, conns ...net.Conn) *flakyListener {
	l := &flakyListener{
		failures: failures,
		conns:    make(chan net.Conn, len(conns)),
		closed:   make(chan struct{}),
	}
	for _, conn := range conns {
		l.conns <- conn
	}

	return l
}

func (f *flakyListener) Accept() (net.Conn, error) {
	if f.failures > 0 {
		f.failures--
		return nil, errors.New("too many open files")
	}

	select {
	case conn := <-f.conns:
		return conn, nil
	case <-f.closed:
		return nil, net.ErrClosed
	}
}

func (f *flakyListener) Close() error {
	f.once.Do(func() {
		close(f.closed)
	})
	return nil
}

func (f *flakyListener) Addr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)}
}

func TestListenAcceptErrors(t *testing.T) {
	t.Run("keeps accepting after a failure", func(t *testing.T) {
		server, client := net.Pipe()
		tcp := newTCP()
		tcp.l = newFlakyListener(2, server)

		served := make(chan string, 1)
		listenErr := make(chan error, 1)
		go func() {
			listenErr <- tcp.Listen(func(conn net.Conn) {
				buff := make([]byte, 2)
				n, _ := io.ReadFull(conn, buff)
				served <- string(buff[:n])
			})
		}()

		_, err := client.Write([]byte("hi"))
		require.NoError(t, err)
		require.Equal(t, "hi", <-served)

		select {
		case err = <-listenErr:
			t.Fatalf("listen returned before stop: %v", err)
		case <-time.After(50 * time.Millisecond):
		}

		tcp.Stop()
		require.NoError(t, <-listenErr)
		tcp.Wait()
		require.NoError(t, client.Close())
	})

	t.Run("closed listener", func(t *testing.T) {
		l := newFlakyListener(0)
		require.NoError(t, l.Close())
		tcp := newTCP()
		tcp.l = l

		require.ErrorIs(t, tcp.Listen(func(net.Conn) {}), net.ErrClosed)
	})
}
