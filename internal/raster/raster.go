// Package raster implements the raster materializer (spec.md §4.7): it
// turns a validated image.Image into a uniform buffer description a host
// image library can consume directly, resolving the byte-order open
// question along the way.
package raster

import (
	"encoding/binary"

	"github.com/finch-labs/gosane/internal/image"
	"github.com/finch-labs/gosane/internal/protocol"
	"github.com/finch-labs/gosane/internal/sanerr"
)

// Layout identifies how Raster.Planes is organized.
type Layout int

const (
	// LayoutBanded holds one plane per color band, each with identical stride.
	LayoutBanded Layout = iota
	// LayoutPacked holds one bit per pixel, MSB-first within each byte.
	LayoutPacked
	// LayoutInterleaved holds all samples for a pixel adjacent in one plane.
	LayoutInterleaved
)

// ColorModel tags the semantic meaning of a Raster's samples.
type ColorModel int

const (
	ColorGray ColorModel = iota
	ColorLinearRGB
	ColorBinary
)

// littleEndianMagic is the byte-order sentinel the START RPC's byte-order
// word carries when the server's multi-byte samples are little-endian.
const littleEndianMagic = int32(0x1234)

// Raster is the collaborator-facing description named in spec.md §6: a
// samples buffer (or one per band), geometry, and a color model tag.
// Conversion to any platform-specific image container happens outside
// this package.
type Raster struct {
	Layout          Layout
	ColorModel      ColorModel
	Width           int32
	Height          int32
	Depth           int32
	Stride          int32
	BandOffsets     []int32
	SamplesPerPixel int32
	BytesPerPixel   int32
	Planes          [][]byte
}

// hostLittleEndian reports whether this machine's native byte order is
// little-endian, without resorting to unsafe.
var hostLittleEndian = func() bool {
	var buf [2]byte
	binary.NativeEndian.PutUint16(buf[:], 1)
	return buf[0] == 1
}()

func swapNeeded(byteOrder int32) bool {
	return (byteOrder == littleEndianMagic) != hostLittleEndian
}

// byteSwapped returns data with adjacent byte pairs swapped if depth is
// 16 and the server's sample byte order disagrees with this host's,
// leaving data untouched (and unshared) otherwise. Spec §4.7 scopes
// byte-order correction to 16-bit samples only; depth-8 and depth-1
// data passes through untouched regardless of byteOrder, since swapping
// adjacent bytes there would scramble neighboring single-byte pixels.
func byteSwapped(data []byte, depth, byteOrder int32) []byte {
	if depth != 16 || !swapNeeded(byteOrder) {
		return data
	}
	out := make([]byte, len(data))
	copy(out, data)
	for i := 0; i+1 < len(out); i += 2 {
		out[i], out[i+1] = out[i+1], out[i]
	}
	return out
}

// Materialize applies the four layout policies of spec.md §4.7 to img,
// swapping depth-16 sample bytes per byteOrder (the START RPC's
// byte-order word) where applicable. Any frame combination outside the
// four policies yields KindUnsupportedImageLayout.
func Materialize(img *image.Image, byteOrder int32) (*Raster, error) {
	const op = "raster.Materialize"

	if len(img.Frames) == 3 {
		if img.Depth != 8 && img.Depth != 16 {
			return nil, unsupported(op, img)
		}
		planes := make([][]byte, 3)
		for i, f := range img.Frames {
			planes[i] = byteSwapped(f.Data, img.Depth, byteOrder)
		}
		return &Raster{
			Layout:          LayoutBanded,
			ColorModel:      ColorLinearRGB,
			Width:           img.Width,
			Height:          img.Height,
			Depth:           img.Depth,
			Stride:          img.BytesPerLine,
			BandOffsets:     []int32{0, 0, 0},
			SamplesPerPixel: 3,
			BytesPerPixel:   img.Depth / 8,
			Planes:          planes,
		}, nil
	}

	if len(img.Frames) == 1 {
		f := img.Frames[0]

		if img.Depth == 1 {
			return &Raster{
				Layout:          LayoutPacked,
				ColorModel:      ColorBinary,
				Width:           img.Width,
				Height:          img.Height,
				Depth:           1,
				Stride:          img.BytesPerLine,
				SamplesPerPixel: 1,
				Planes:          [][]byte{f.Data},
			}, nil
		}

		if img.Depth == 8 || img.Depth == 16 {
			switch f.Type() {
			case protocol.FrameGray:
				return &Raster{
					Layout:          LayoutInterleaved,
					ColorModel:      ColorGray,
					Width:           img.Width,
					Height:          img.Height,
					Depth:           img.Depth,
					Stride:          img.BytesPerLine,
					SamplesPerPixel: 1,
					BytesPerPixel:   img.Depth / 8,
					Planes:          [][]byte{byteSwapped(f.Data, img.Depth, byteOrder)},
				}, nil
			case protocol.FrameRGB:
				return &Raster{
					Layout:          LayoutInterleaved,
					ColorModel:      ColorLinearRGB,
					Width:           img.Width,
					Height:          img.Height,
					Depth:           img.Depth,
					Stride:          img.BytesPerLine,
					BandOffsets:     []int32{0, 1, 2},
					SamplesPerPixel: 3,
					BytesPerPixel:   3 * img.Depth / 8,
					Planes:          [][]byte{byteSwapped(f.Data, img.Depth, byteOrder)},
				}, nil
			}
		}
	}

	return nil, unsupported(op, img)
}

func unsupported(op string, img *image.Image) error {
	return sanerr.Errorf(sanerr.KindUnsupportedImageLayout, op,
		"%d frame(s), depth=%d has no known raster layout", len(img.Frames), img.Depth)
}
