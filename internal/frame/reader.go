package frame

import (
	"io"

	"github.com/finch-labs/gosane/internal/protocol"
	"github.com/finch-labs/gosane/internal/sanerr"
	"github.com/finch-labs/gosane/internal/wire"
)

// recordSentinel is the end-of-records marker: a length word whose bit
// pattern is 0xFFFFFFFF, i.e. -1 as a signed 32-bit word.
const recordSentinel = int32(-1)

// ReadFrame consumes length-prefixed records from r until the sentinel
// terminates the stream, appending each record's payload contiguously,
// and returns the assembled Frame. Record boundaries are a transport
// artifact; they are never interpreted as pixel boundaries.
func ReadFrame(r io.Reader, params protocol.FrameParameters) (*Frame, error) {
	want := int(params.BytesPerLine) * int(params.LineCount)
	buf := make([]byte, want)
	offset := 0

	c := wire.NewSplit(r, io.Discard)
	for {
		length, err := c.ReadWord()
		if err != nil {
			return nil, err
		}
		if length == recordSentinel {
			break
		}
		if length < 0 {
			return nil, sanerr.Errorf(sanerr.KindProtocolOverflow, "frame.ReadFrame",
				"record length %d exceeds maximum contiguous buffer size", uint32(length))
		}

		end := offset + int(length)
		if end > len(buf) {
			// Grow to accommodate a server that doesn't split records
			// exactly on bytesPerLine*lineCount; the sum-of-payloads
			// invariant is still checked once the sentinel arrives.
			grown := make([]byte, end)
			copy(grown, buf[:offset])
			buf = grown
		}
		if _, err := io.ReadFull(r, buf[offset:end]); err != nil {
			return nil, sanerr.New(sanerr.KindTruncatedStream, "frame.ReadFrame", err)
		}
		offset = end
	}

	if offset != want {
		return nil, sanerr.Errorf(sanerr.KindTruncatedStream, "frame.ReadFrame",
			"assembled %d bytes, want %d (bytesPerLine=%d * lineCount=%d)",
			offset, want, params.BytesPerLine, params.LineCount)
	}

	return &Frame{Params: params, Data: buf[:offset]}, nil
}
