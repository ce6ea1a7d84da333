// Package session implements the session state machine (spec.md §4.4):
// it owns the control connection and the wire.Codec wrapping it, tracks
// State, and enforces the legal-transition rules every other package
// relies on.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/finch-labs/gosane/internal/identity"
	"github.com/finch-labs/gosane/internal/protocol"
	"github.com/finch-labs/gosane/internal/sanerr"
	"github.com/finch-labs/gosane/internal/wire"
)

// State is one point in the session state machine.
type State int

const (
	Unconnected State = iota
	Initialized
	DeviceOpen
)

func (s State) String() string {
	switch s {
	case Unconnected:
		return "Unconnected"
	case Initialized:
		return "Initialized"
	case DeviceOpen:
		return "DeviceOpen"
	default:
		return "Unknown"
	}
}

// protocolVersion is the SANE network protocol version this client
// speaks: major 1, minor 0, build 3.
const (
	versionMajor = 1
	versionMinor = 0
	versionBuild = 3
)

// dialTimeout bounds only the initial TCP handshake; once connected, no
// operation carries an internal timeout (spec.md §5 — callers control
// timeouts through the transport they inject, or by closing the session).
const dialTimeout = 10 * time.Second

// Dialer opens the control connection. Tests substitute one that returns
// a net.Pipe() half instead of dialing a real socket.
type Dialer func(ctx context.Context, address string) (net.Conn, error)

func defaultDialer(ctx context.Context, address string) (net.Conn, error) {
	var d net.Dialer
	return d.DialContext(ctx, "tcp", address)
}

// Session is the control-connection state machine. It is not safe for
// concurrent use (spec.md §5): every operation assumes a single caller
// goroutine.
type Session struct {
	conn     net.Conn
	codec    *wire.Codec
	state    State
	handle   *protocol.DeviceHandle
	dataHost string
}

// Option configures Connect.
type Option func(*options)

type options struct {
	identity identity.Provider
	dialer   Dialer
	dataHost string
}

// WithIdentity overrides the default OS-user identity provider.
func WithIdentity(p identity.Provider) Option {
	return func(o *options) { o.identity = p }
}

// WithDialer overrides how the control connection is dialed, for tests.
func WithDialer(d Dialer) Option {
	return func(o *options) { o.dialer = d }
}

// WithDataHost overrides the host DialDataSocket connects to, instead of
// deriving it from the control connection's remote address. Tests use
// this when the control connection isn't a real network socket (e.g.
// net.Pipe) and the data socket must still reach a real listener.
func WithDataHost(host string) Option {
	return func(o *options) { o.dataHost = host }
}

// Connect dials address, performs the INIT RPC, and returns a Session in
// state Initialized.
func Connect(ctx context.Context, address string, opts ...Option) (*Session, error) {
	const op = "session.Connect"

	o := options{identity: identity.OSUser{}, dialer: defaultDialer}
	for _, opt := range opts {
		opt(&o)
	}

	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	conn, err := o.dialer(dialCtx, address)
	if err != nil {
		return nil, sanerr.New(sanerr.KindIO, op, fmt.Errorf("dial %s: %w", address, err))
	}

	s := &Session{conn: conn, codec: wire.New(conn), state: Unconnected, dataHost: o.dataHost}
	username := o.identity.Username()
	slog.Debug("sane: init", "address", address, "username", username)
	if err := protocol.Init(s.codec, versionMajor, versionMinor, versionBuild, username); err != nil {
		conn.Close()
		return nil, err
	}
	s.state = Initialized
	slog.Info("sane: session initialized", "address", address)
	return s, nil
}

// State reports the session's current state.
func (s *Session) State() State { return s.state }

func (s *Session) requireState(op string, want State) error {
	if s.state != want {
		return sanerr.Errorf(sanerr.KindIllegalState, op, "operation requires state %s, session is in state %s", want, s.state)
	}
	return nil
}

// ListDevices performs GET_DEVICES. Legal only from Initialized.
func (s *Session) ListDevices() ([]protocol.DeviceDescriptor, error) {
	if err := s.requireState("session.ListDevices", Initialized); err != nil {
		return nil, err
	}
	devices, err := protocol.GetDevices(s.codec)
	if err != nil {
		return nil, err
	}
	slog.Debug("sane: listed devices", "count", len(devices))
	return devices, nil
}

// OpenDevice performs OPEN and, on success, transitions to DeviceOpen.
// Legal only from Initialized.
func (s *Session) OpenDevice(name string) (protocol.DeviceHandle, error) {
	if err := s.requireState("session.OpenDevice", Initialized); err != nil {
		return protocol.DeviceHandle{}, err
	}
	handle, err := protocol.Open(s.codec, name)
	if err != nil {
		return protocol.DeviceHandle{}, err
	}
	if handle.AuthorizationRequired() {
		return protocol.DeviceHandle{}, sanerr.Errorf(sanerr.KindAuthRequired, "session.OpenDevice",
			"device %q requires authorization (resource %q)", name, handle.Resource)
	}
	s.state = DeviceOpen
	s.handle = &handle
	slog.Info("sane: device opened", "device", name, "handle", handle.Handle)
	return handle, nil
}

// GetParameters performs GET_PARAMETERS for the currently open device.
// Legal only from DeviceOpen.
func (s *Session) GetParameters() (protocol.FrameParameters, error) {
	if err := s.requireState("session.GetParameters", DeviceOpen); err != nil {
		return protocol.FrameParameters{}, err
	}
	return protocol.GetParameters(s.codec, s.handle.Handle)
}

// Start performs the START RPC for the currently open device. Legal only
// from DeviceOpen.
func (s *Session) Start() (protocol.StartResult, error) {
	if err := s.requireState("session.Start", DeviceOpen); err != nil {
		return protocol.StartResult{}, err
	}
	result, err := protocol.Start(s.codec, s.handle.Handle)
	if err != nil {
		return protocol.StartResult{}, err
	}
	if result.AuthorizationRequired() {
		return protocol.StartResult{}, sanerr.Errorf(sanerr.KindAuthRequired, "session.Start",
			"acquisition requires authorization (resource %q)", result.Resource)
	}
	return result, nil
}

// DialDataSocket opens the data socket named by a prior Start result,
// addressed to the same host as the control connection.
func (s *Session) DialDataSocket(ctx context.Context, port int32) (net.Conn, error) {
	host := s.dataHost
	if host == "" {
		var err error
		host, _, err = net.SplitHostPort(s.conn.RemoteAddr().String())
		if err != nil {
			host = s.conn.RemoteAddr().String()
		}
	}
	addr := net.JoinHostPort(host, fmt.Sprintf("%d", port))
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, sanerr.New(sanerr.KindIO, "session.DialDataSocket", fmt.Errorf("dial %s: %w", addr, err))
	}
	return conn, nil
}

// CloseDevice performs CLOSE and returns to Initialized. Legal only from
// DeviceOpen.
func (s *Session) CloseDevice() error {
	if err := s.requireState("session.CloseDevice", DeviceOpen); err != nil {
		return err
	}
	if err := protocol.Close(s.codec, s.handle.Handle); err != nil {
		return err
	}
	s.state = Initialized
	s.handle = nil
	slog.Info("sane: device closed")
	return nil
}

// Close sends EXIT best-effort and closes the control socket, combining
// any failures from both steps rather than discarding the second (spec.md
// §7's "callers may still invoke close to release resources" applies even
// when EXIT itself fails).
func (s *Session) Close() error {
	var result *multierror.Error
	if s.state != Unconnected {
		if err := protocol.Exit(s.codec); err != nil {
			result = multierror.Append(result, fmt.Errorf("exit: %w", err))
		}
	}
	if err := s.conn.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("close: %w", err))
	}
	s.state = Unconnected
	return result.ErrorOrNil()
}
