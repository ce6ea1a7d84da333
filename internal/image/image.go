// Package image implements the frame model's image builder (spec.md §3,
// §4.6): it accumulates Frames one at a time, validates them against
// each other, and — once the accumulated set forms either a single
// singleton frame or a complete RED/GREEN/BLUE trio — assembles them
// into a canonically-ordered Image.
package image

import (
	"github.com/finch-labs/gosane/internal/frame"
	"github.com/finch-labs/gosane/internal/protocol"
)

// Image is a fully assembled, order-validated set of frames ready for
// raster materialization.
type Image struct {
	Frames       []frame.Frame
	Depth        int32
	Width        int32
	Height       int32
	BytesPerLine int32
}

func isSingleton(t protocol.FrameType) bool {
	return t == protocol.FrameGray || t == protocol.FrameRGB
}

// canonicalRank ranks frame types for the trio case: RED, GREEN, BLUE.
// Singleton types never reach this ranking since they're the only frame
// present.
func canonicalRank(t protocol.FrameType) int {
	switch t {
	case protocol.FrameRed:
		return 0
	case protocol.FrameGreen:
		return 1
	case protocol.FrameBlue:
		return 2
	default:
		return 3
	}
}
