// Package frame implements the record-framed data reader and the Frame
// data model (spec.md §3, §4.5): consuming length-prefixed byte records
// from a data socket until the end-of-records sentinel, and assembling
// them into one contiguous frame buffer.
package frame

import "github.com/finch-labs/gosane/internal/protocol"

// Frame is one fully-assembled raster component: its geometry (as
// reported by GET_PARAMETERS) plus its raw pixel buffer, which is always
// exactly BytesPerLine*LineCount bytes.
type Frame struct {
	Params protocol.FrameParameters
	Data   []byte
}

func (f Frame) Type() protocol.FrameType { return f.Params.FrameType }
