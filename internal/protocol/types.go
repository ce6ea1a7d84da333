// Package protocol implements the SANE control RPC layer: it issues
// numbered RPCs over a wire.Codec and parses their typed responses. It
// owns no socket — sockets belong to the session package, which supplies
// the codec.
package protocol

// FrameType identifies the kind of raster component a frame carries.
type FrameType int32

const (
	FrameGray  FrameType = 0
	FrameRGB   FrameType = 1
	FrameRed   FrameType = 2
	FrameGreen FrameType = 3
	FrameBlue  FrameType = 4
)

func (t FrameType) String() string {
	switch t {
	case FrameGray:
		return "GRAY"
	case FrameRGB:
		return "RGB"
	case FrameRed:
		return "RED"
	case FrameGreen:
		return "GREEN"
	case FrameBlue:
		return "BLUE"
	default:
		return "UNKNOWN"
	}
}

// DeviceDescriptor identifies one device the daemon can open.
type DeviceDescriptor struct {
	Name   string
	Vendor string
	Model  string
	Type   string
}

// DeviceHandle is the opaque token returned by OPEN, scoping subsequent
// device operations.
type DeviceHandle struct {
	Status   int32
	Handle   int32
	Resource string
}

// AuthorizationRequired reports whether the OPEN response demanded
// authentication (a non-empty resource string).
func (h DeviceHandle) AuthorizationRequired() bool {
	return h.Resource != ""
}

// FrameParameters describes the geometry of one frame as returned by
// GET_PARAMETERS.
type FrameParameters struct {
	FrameType     FrameType
	IsLast        bool
	BytesPerLine  int32
	PixelsPerLine int32
	LineCount     int32
	Depth         int32
}

// StartResult is the response to a START RPC.
type StartResult struct {
	Port      int32
	ByteOrder int32
	Resource  string
}

// AuthorizationRequired reports whether START demanded authentication.
func (s StartResult) AuthorizationRequired() bool {
	return s.Resource != ""
}
