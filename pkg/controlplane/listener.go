package controlplane

import (
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lanprov-protocol/lanprov-go/pkg/log"
	"github.com/lanprov-protocol/lanprov-go/pkg/wire"
)

// Config configures a Listener.
type Config struct {
	// Address to listen on (e.g., ":8989" or "192.168.49.1:8989").
	Address string

	// Logger for debug output (optional).
	Logger *slog.Logger

	// Events receives status and payload events (optional).
	Events log.Logger

	// OnPayload is called for every accepted provisioning payload.
	// Invoked synchronously from the request handler; a panic in the
	// callback is recovered and logged, the submission stays accepted.
	OnPayload func(payload wire.Payload)
}

// Handle describes a live listener endpoint. A Handle is never mutated after
// Start returns it; restarting produces a new Handle.
type Handle struct {
	// Port the listener is bound to.
	Port int

	// Addr is the full listen address.
	Addr string
}

// Listener is the control endpoint server. Start and Stop may be called
// repeatedly and concurrently; each Start replaces the previous endpoint, so
// at most one endpoint is live at a time.
type Listener struct {
	config Config

	// opMu serializes lifecycle operations. Concurrent Start/Stop calls
	// queue behind the in-flight one.
	opMu sync.Mutex

	mu      sync.Mutex
	server  *http.Server
	handle  *Handle
	serveWG *sync.WaitGroup

	running atomic.Bool
}

// NewListener creates a Listener. The endpoint does not exist until Start.
func NewListener(config Config) *Listener {
	if config.Address == "" {
		config.Address = fmt.Sprintf(":%d", wire.DefaultControlPort)
	}
	return &Listener{config: config}
}

// Start binds the endpoint and begins serving. If the listener is already
// running it is stopped first, so at most one endpoint exists at a time.
// Returns the new Handle.
func (l *Listener) Start() (*Handle, error) {
	l.opMu.Lock()
	defer l.opMu.Unlock()

	// Stop-before-start: the previous endpoint is fully released before
	// the new socket is bound.
	l.stopLocked()

	ln, err := net.Listen("tcp", l.config.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc(wire.ProvisionPath, l.handleProvision)
	mux.HandleFunc("/", l.handleNotFound)

	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	handle := &Handle{
		Port: ln.Addr().(*net.TCPAddr).Port,
		Addr: ln.Addr().String(),
	}

	// Each endpoint generation owns its own WaitGroup; a later Start never
	// adds to a group an earlier Stop may still be waiting on.
	wg := &sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		err := server.Serve(ln)
		if err != nil && err != http.ErrServerClosed && l.running.Load() {
			l.logError(fmt.Sprintf("serve error: %v", err))
		}
	}()

	l.mu.Lock()
	l.server = server
	l.handle = handle
	l.serveWG = wg
	l.running.Store(true)
	l.mu.Unlock()

	if l.config.Logger != nil {
		l.config.Logger.Debug("control listener started", "addr", handle.Addr)
	}
	l.emitStatus(fmt.Sprintf("control listener started on %s", handle.Addr))

	return handle, nil
}

// Stop shuts the endpoint down and waits for in-flight requests. Safe to
// call when the listener is not running.
func (l *Listener) Stop() {
	l.opMu.Lock()
	defer l.opMu.Unlock()
	l.stopLocked()
}

// stopLocked releases the current endpoint. Caller holds opMu.
func (l *Listener) stopLocked() {
	l.mu.Lock()
	server := l.server
	wg := l.serveWG
	l.server = nil
	l.handle = nil
	l.serveWG = nil
	wasRunning := l.running.Swap(false)
	l.mu.Unlock()

	if !wasRunning {
		return
	}
	if server != nil {
		_ = server.Close()
	}
	if wg != nil {
		wg.Wait()
	}

	if l.config.Logger != nil {
		l.config.Logger.Debug("control listener stopped")
	}
	l.emitStatus("control listener stopped")
}

// Running reports whether the endpoint is live.
func (l *Listener) Running() bool {
	return l.running.Load()
}

// Handle returns the current endpoint, or nil when stopped.
func (l *Listener) Handle() *Handle {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.handle
}

// handleProvision serves POST requests to the provisioning path. Routing is
// exact: any other method on the path is rejected the same way unknown paths
// are, so probes learn nothing about the endpoint shape.
func (l *Listener) handleProvision(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost || r.URL.Path != wire.ProvisionPath {
		l.handleNotFound(w, r)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		l.logError(fmt.Sprintf("failed to read request body: %v", err))
		writeResponse(w, http.StatusBadRequest, wire.ResponseEmptyBody)
		return
	}
	if len(body) == 0 {
		l.logError("empty provisioning submission rejected")
		writeResponse(w, http.StatusBadRequest, wire.ResponseEmptyBody)
		return
	}

	payload, err := wire.DecodePayload(body)
	if err != nil {
		l.logError(fmt.Sprintf("malformed provisioning submission: %v", err))
		writeResponse(w, http.StatusInternalServerError, fmt.Sprintf("Failed to parse payload: %v", err))
		return
	}

	// Content checks beyond well-formedness (such as an empty network
	// name) are the application's to make via OnPayload.
	l.emitPayload(payload, r.RemoteAddr)
	l.dispatch(payload)

	writeResponse(w, http.StatusOK, wire.ResponseAccepted)
}

func (l *Listener) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeResponse(w, http.StatusNotFound, wire.ResponseNotFound)
}

// dispatch invokes the payload callback, isolating the endpoint from
// callback panics.
func (l *Listener) dispatch(payload wire.Payload) {
	fn := l.config.OnPayload
	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			l.logError(fmt.Sprintf("payload callback panicked: %v", r))
		}
	}()
	fn(payload)
}

func writeResponse(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func (l *Listener) emitStatus(msg string) {
	if l.config.Events == nil {
		return
	}
	l.config.Events.Log(log.Event{
		Timestamp: time.Now(),
		Component: log.ComponentListener,
		Category:  log.CategoryStatus,
		Message:   msg,
	})
}

func (l *Listener) emitPayload(payload wire.Payload, remoteAddr string) {
	if l.config.Events == nil {
		return
	}
	l.config.Events.Log(log.Event{
		Timestamp:  time.Now(),
		Component:  log.ComponentListener,
		Category:   log.CategoryPayload,
		SSID:       payload.TargetNetworkName,
		RemoteAddr: remoteAddr,
		Message:    "provisioning payload accepted",
	})
}

func (l *Listener) logError(msg string) {
	if l.config.Logger != nil {
		l.config.Logger.Warn(msg)
	}
	if l.config.Events == nil {
		return
	}
	l.config.Events.Log(log.Event{
		Timestamp: time.Now(),
		Component: log.ComponentListener,
		Category:  log.CategoryError,
		Error:     &log.ErrorEventData{Message: msg},
	})
}
