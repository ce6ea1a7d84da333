// Package client provides the high-level façade spec.md §2's control-flow
// paragraph describes: connect, list, open, acquire, close, composing
// session, frame, image, and raster into one call per step.
package client

import (
	"context"
	"log/slog"

	"github.com/finch-labs/gosane/internal/frame"
	"github.com/finch-labs/gosane/internal/image"
	"github.com/finch-labs/gosane/internal/protocol"
	"github.com/finch-labs/gosane/internal/raster"
	"github.com/finch-labs/gosane/internal/session"
)

// Client wraps a *session.Session with the acquisition orchestration
// loop. It carries the same single-goroutine-owner restriction as the
// session it wraps.
type Client struct {
	session *session.Session
}

// Connect dials address and returns a ready Client.
func Connect(ctx context.Context, address string, opts ...session.Option) (*Client, error) {
	s, err := session.Connect(ctx, address, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{session: s}, nil
}

// ListDevices lists the devices the daemon can open.
func (c *Client) ListDevices() ([]protocol.DeviceDescriptor, error) {
	return c.session.ListDevices()
}

// OpenDevice opens the named device.
func (c *Client) OpenDevice(name string) (protocol.DeviceHandle, error) {
	return c.session.OpenDevice(name)
}

// CloseDevice closes the currently open device.
func (c *Client) CloseDevice() error {
	return c.session.CloseDevice()
}

// Close closes the session, sending EXIT.
func (c *Client) Close() error {
	return c.session.Close()
}

// AcquireImage runs one full acquisition: START, GET_PARAMETERS, dial the
// data socket, read frames via internal/frame until the server marks the
// last one, assemble them with internal/image, and materialize the
// result with internal/raster. On any error the data socket is dropped
// and the session stays in DeviceOpen (spec.md §7's partial-failure
// policy) since only CloseDevice/Close change session state here.
func (c *Client) AcquireImage(ctx context.Context) (*raster.Raster, error) {
	builder := image.NewBuilder()
	var byteOrder int32

	for {
		start, err := c.session.Start()
		if err != nil {
			return nil, err
		}
		byteOrder = start.ByteOrder

		params, err := c.session.GetParameters()
		if err != nil {
			return nil, err
		}

		conn, err := c.session.DialDataSocket(ctx, start.Port)
		if err != nil {
			return nil, err
		}

		f, err := frame.ReadFrame(conn, params)
		conn.Close()
		if err != nil {
			return nil, err
		}

		if err := builder.AddFrame(*f); err != nil {
			return nil, err
		}
		slog.Debug("sane: frame acquired", "type", f.Type(), "last", params.IsLast)

		if params.IsLast {
			break
		}
	}

	img, err := builder.Build()
	if err != nil {
		return nil, err
	}
	return raster.Materialize(img, byteOrder)
}
