// Package escl bridges an acquired raster.Raster to the go-mfp
// abstract.Scanner collaborator interface (spec.md §6's "host raster
// consumer", left at the interface level by the core). Modeled on the
// teacher's own internal/scanner/escl.go adapter.
package escl

import (
	"bytes"
	"context"
	"io"
	"log/slog"

	"github.com/OpenPrinting/go-mfp/abstract"
	"github.com/OpenPrinting/go-mfp/util/generic"

	"github.com/finch-labs/gosane/internal/client"
	"github.com/finch-labs/gosane/internal/export"
	"github.com/finch-labs/gosane/internal/protocol"
)

// Adapter implements abstract.Scanner for one opened SANE device.
type Adapter struct {
	client *client.Client
	handle protocol.DeviceHandle
	caps   *abstract.ScannerCapabilities
}

// NewAdapter wraps c, whose currently open device is handle.
func NewAdapter(c *client.Client, handle protocol.DeviceHandle, name string) *Adapter {
	return &Adapter{client: c, handle: handle, caps: buildCapabilities(name)}
}

func buildCapabilities(name string) *abstract.ScannerCapabilities {
	profile := abstract.SettingsProfile{
		ColorModes: generic.MakeBitset(
			abstract.ColorModeColor,
			abstract.ColorModeMono,
			abstract.ColorModeBinary,
		),
		Depths: generic.MakeBitset(abstract.ColorDepth8),
	}
	flatbed := &abstract.InputCapabilities{
		MaxOpticalXResolution: 600,
		MaxOpticalYResolution: 600,
		Intents: generic.MakeBitset(
			abstract.IntentDocument,
			abstract.IntentPhoto,
		),
		Profiles: []abstract.SettingsProfile{profile},
	}

	// This module does not negotiate SANE options (spec.md §1 Non-goals),
	// so only a single synthetic profile is advertised, reported under
	// the simplex slot the same way the teacher's flatbed-only adapter does.
	return &abstract.ScannerCapabilities{
		MakeAndModel:    name,
		DocumentFormats: []string{"image/png"},
		ADFSimplex:      flatbed,
	}
}

// Capabilities returns the synthetic scanner capabilities.
func (a *Adapter) Capabilities() *abstract.ScannerCapabilities {
	return a.caps
}

// Scan performs exactly one AcquireImage call and returns its raster as a
// one-page abstract.Document.
func (a *Adapter) Scan(ctx context.Context, req abstract.ScannerRequest) (abstract.Document, error) {
	if err := req.Validate(a.caps); err != nil {
		return nil, err
	}

	slog.Info("escl: scan requested", "colorMode", req.ColorMode, "resolution", req.Resolution)

	r, err := a.client.AcquireImage(ctx)
	if err != nil {
		return nil, err
	}

	png, err := export.EncodePNG(r)
	if err != nil {
		return nil, err
	}

	res := req.Resolution
	if res.IsZero() {
		res = abstract.Resolution{XResolution: 300, YResolution: 300}
	}
	return &pngDocument{res: res, pages: [][]byte{png}}, nil
}

// Close closes the device and the underlying session.
func (a *Adapter) Close() error {
	if err := a.client.CloseDevice(); err != nil {
		return err
	}
	return a.client.Close()
}

type pngDocument struct {
	res   abstract.Resolution
	pages [][]byte
	idx   int
}

func (d *pngDocument) Resolution() abstract.Resolution { return d.res }

func (d *pngDocument) Next() (abstract.DocumentFile, error) {
	if d.idx >= len(d.pages) {
		return nil, io.EOF
	}
	f := &pngFile{Reader: bytes.NewReader(d.pages[d.idx])}
	d.idx++
	return f, nil
}

func (d *pngDocument) Close() error { return nil }

type pngFile struct {
	*bytes.Reader
}

func (f *pngFile) Format() string { return "image/png" }
