package ingest

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"github.com/five82/logdeck/internal/state"
)

const readBufferSize = 32 * 1024

// EventKind identifies what happened on a connection.
type EventKind int

const (
	// Data carries bytes read from a connection.
	Data EventKind = iota
	// Closed reports an orderly disconnect.
	Closed
	// Failed reports a read error. The connection is gone afterwards.
	Failed
)

func (k EventKind) String() string {
	switch k {
	case Data:
		return "data"
	case Closed:
		return "closed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Event is delivered to the consumer for every read and disconnect.
type Event struct {
	ConnID uuid.UUID
	Kind   EventKind
	Data   []byte
	Err    error
}

// ListenError reports that the listener could not bind its port.
type ListenError struct {
	Port int
	Err  error
}

func (e *ListenError) Error() string {
	return fmt.Sprintf("listen on port %d: %v", e.Port, e.Err)
}

func (e *ListenError) Unwrap() error { return e.Err }

// ErrInvalidPort is wrapped by a ListenError for ports outside 0-65535.
var ErrInvalidPort = errors.New("invalid port")

// Options configure a Listener.
type Options struct {
	// Host defaults to all interfaces.
	Host string
	// Status receives listener and connection updates when set.
	Status *state.Store
	// Logger defaults to log.Default().
	Logger *log.Logger
}

// Listener accepts TCP clients and forwards their bytes as Events. Every
// connection is tracked so Stop can close them all at once.
type Listener struct {
	events chan<- Event
	host   string
	status *state.Store
	logger *log.Logger

	mu    sync.Mutex
	ln    net.Listener
	port  int
	done  chan struct{}
	conns map[uuid.UUID]net.Conn
	wg    sync.WaitGroup
}

// NewListener returns a stopped listener that will send to events.
func NewListener(events chan<- Event, opts Options) *Listener {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Listener{
		events: events,
		host:   opts.Host,
		status: opts.Status,
		logger: logger,
		conns:  make(map[uuid.UUID]net.Conn),
	}
}

// Start binds port and begins accepting. Port 0 picks a free port; Port
// reports the one chosen. A running listener is left untouched.
func (l *Listener) Start(port int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.ln != nil {
		return nil
	}
	if port < 0 || port > 65535 {
		err := &ListenError{Port: port, Err: ErrInvalidPort}
		l.reportStopped(port, err)
		return err
	}

	ln, err := net.Listen("tcp", net.JoinHostPort(l.host, strconv.Itoa(port)))
	if err != nil {
		lerr := &ListenError{Port: port, Err: err}
		l.reportStopped(port, lerr)
		l.logger.Printf("ingest: %v", lerr)
		return lerr
	}

	if addr, ok := ln.Addr().(*net.TCPAddr); ok {
		port = addr.Port
	}
	l.ln = ln
	l.port = port
	l.done = make(chan struct{})
	if l.status != nil {
		l.status.SetListening(port)
	}
	l.logger.Printf("ingest: listening on %s", ln.Addr())

	l.wg.Add(1)
	go l.acceptLoop(ln, l.done)
	return nil
}

// Stop closes the listening socket and every tracked connection, then waits
// for their goroutines to exit. Events not yet consumed are dropped.
func (l *Listener) Stop() {
	l.mu.Lock()
	if l.ln == nil {
		l.mu.Unlock()
		return
	}
	_ = l.ln.Close()
	close(l.done)
	for id, conn := range l.conns {
		_ = conn.Close()
		delete(l.conns, id)
	}
	l.ln = nil
	port := l.port
	l.mu.Unlock()

	l.wg.Wait()
	l.reportStopped(port, nil)
	l.logger.Printf("ingest: stopped listening on port %d", port)
}

// Restart stops the listener and starts it on port.
func (l *Listener) Restart(port int) error {
	l.Stop()
	return l.Start(port)
}

// Port returns the bound port, or the last one tried while stopped.
func (l *Listener) Port() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.port
}

// Running reports whether the listener is accepting.
func (l *Listener) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ln != nil
}

// ActiveConnections returns the number of tracked connections.
func (l *Listener) ActiveConnections() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.conns)
}

func (l *Listener) acceptLoop(ln net.Listener, done chan struct{}) {
	defer l.wg.Done()
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-done:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			l.logger.Printf("ingest: accept: %v", err)
			continue
		}

		id := uuid.New()
		l.mu.Lock()
		if l.ln != ln {
			l.mu.Unlock()
			_ = conn.Close()
			return
		}
		l.conns[id] = conn
		l.wg.Add(1)
		l.mu.Unlock()

		if l.status != nil {
			l.status.ConnectionOpened()
		}
		go l.readLoop(id, conn, done)
	}
}

func (l *Listener) readLoop(id uuid.UUID, conn net.Conn, done chan struct{}) {
	defer l.wg.Done()
	defer l.forget(id, conn)

	buf := make([]byte, readBufferSize)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			if !l.emit(Event{ConnID: id, Kind: Data, Data: chunk}, done) {
				return
			}
		}
		if err != nil {
			ev := Event{ConnID: id, Kind: Closed}
			if !isDisconnect(err) {
				ev.Kind = Failed
				ev.Err = err
			}
			l.emit(ev, done)
			return
		}
	}
}

func (l *Listener) emit(ev Event, done chan struct{}) bool {
	select {
	case <-done:
		return false
	default:
	}
	select {
	case l.events <- ev:
		return true
	case <-done:
		return false
	}
}

func (l *Listener) forget(id uuid.UUID, conn net.Conn) {
	_ = conn.Close()
	l.mu.Lock()
	delete(l.conns, id)
	l.mu.Unlock()
	if l.status != nil {
		l.status.ConnectionClosed()
	}
}

func (l *Listener) reportStopped(port int, err error) {
	if l.status != nil {
		l.status.SetStopped(port, err)
	}
}

func isDisconnect(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed)
}
