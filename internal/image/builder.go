package image

import (
	"sort"

	"github.com/finch-labs/gosane/internal/frame"
	"github.com/finch-labs/gosane/internal/protocol"
	"github.com/finch-labs/gosane/internal/sanerr"
)

// writeOnce holds a scalar that may be set repeatedly so long as every
// write agrees with the first. This is the "fused set-or-check
// operation" the Design Notes prescribe in place of a wrapper object.
type writeOnce struct {
	value int32
	set   bool
}

func (w *writeOnce) setOrCheck(name string, v int32) error {
	if !w.set {
		w.value = v
		w.set = true
		return nil
	}
	if w.value != v {
		return sanerr.Errorf(sanerr.KindInvalidArgument, "image.Builder.AddFrame",
			"%s=%d conflicts with previously recorded %s=%d", name, v, name, w.value)
	}
	return nil
}

// Builder accumulates frames for one acquisition. It keeps frames in
// insertion order during construction and reorders them only on Build,
// so callers never need to deliver frames in canonical order.
type Builder struct {
	frames     []frame.Frame
	frameTypes map[protocol.FrameType]bool

	depth        writeOnce
	width        writeOnce
	height       writeOnce
	bytesPerLine writeOnce
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{frameTypes: make(map[protocol.FrameType]bool)}
}

// AddFrame validates f against every frame added so far and, if it
// passes, records it. The four geometry scalars (depth, width, height,
// bytesPerLine) are locked in on first call; subsequent calls must
// agree.
func (b *Builder) AddFrame(f frame.Frame) error {
	const op = "image.Builder.AddFrame"

	t := f.Type()
	if b.frameTypes[t] {
		return sanerr.Errorf(sanerr.KindInvalidArgument, op, "image already contains a frame of type %s", t)
	}
	if len(b.frames) > 0 && (b.hasSingleton() || isSingleton(t)) {
		return sanerr.Errorf(sanerr.KindInvalidArgument, op,
			"frame type %s cannot join the frames already present: a GRAY or RGB frame must be the only frame", t)
	}
	if len(b.frames) > 0 && len(f.Data) != len(b.frames[0].Data) {
		return sanerr.Errorf(sanerr.KindInvalidArgument, op,
			"frame has %d bytes, inconsistent with the first frame's %d bytes", len(f.Data), len(b.frames[0].Data))
	}

	if err := b.depth.setOrCheck("depth", f.Params.Depth); err != nil {
		return err
	}
	if err := b.width.setOrCheck("width", f.Params.PixelsPerLine); err != nil {
		return err
	}
	if err := b.height.setOrCheck("height", f.Params.LineCount); err != nil {
		return err
	}
	if err := b.bytesPerLine.setOrCheck("bytesPerLine", f.Params.BytesPerLine); err != nil {
		return err
	}

	b.frameTypes[t] = true
	b.frames = append(b.frames, f)
	return nil
}

func (b *Builder) hasSingleton() bool {
	for t := range b.frameTypes {
		if isSingleton(t) {
			return true
		}
	}
	return false
}

// Build checks that the accumulated frames form one of the two
// acceptable configurations — a single singleton frame, or a complete
// RED/GREEN/BLUE trio — and, for the trio, reorders the frames into
// canonical RED, GREEN, BLUE order.
func (b *Builder) Build() (*Image, error) {
	const op = "image.Builder.Build"

	if len(b.frames) == 0 {
		return nil, sanerr.Errorf(sanerr.KindIncompleteImage, op, "no frames")
	}

	complete := len(b.frames) == 1 && isSingleton(b.frames[0].Type())
	if !complete && len(b.frames) == 3 {
		complete = b.frameTypes[protocol.FrameRed] && b.frameTypes[protocol.FrameGreen] && b.frameTypes[protocol.FrameBlue]
	}
	if !complete {
		return nil, sanerr.Errorf(sanerr.KindIncompleteImage, op,
			"image is not fully constructed: %d frame(s) present", len(b.frames))
	}

	ordered := make([]frame.Frame, len(b.frames))
	copy(ordered, b.frames)
	sort.SliceStable(ordered, func(i, j int) bool {
		return canonicalRank(ordered[i].Type()) < canonicalRank(ordered[j].Type())
	})

	return &Image{
		Frames:       ordered,
		Depth:        b.depth.value,
		Width:        b.width.value,
		Height:       b.height.value,
		BytesPerLine: b.bytesPerLine.value,
	}, nil
}
