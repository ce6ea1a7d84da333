package wire

import (
	"bytes"
	"io"

	"github.com/finch-labs/gosane/internal/sanerr"
)

// Codec wraps a transport's reader and writer halves with the SANE wire
// primitives: exact-read/exact-write words, length-prefixed strings, and
// pointer-prefixed arrays. It borrows the transport rather than owning it —
// callers close the underlying connection themselves.
type Codec struct {
	r io.Reader
	w io.Writer
}

// New wraps rw's Read and Write halves in a Codec.
func New(rw io.ReadWriter) *Codec {
	return &Codec{r: rw, w: rw}
}

// NewSplit wraps a separate reader and writer in a Codec, for transports
// (or tests) where the two halves are not the same value.
func NewSplit(r io.Reader, w io.Writer) *Codec {
	return &Codec{r: r, w: w}
}

// WriteWord writes n as a 4-byte big-endian word.
func (c *Codec) WriteWord(n int32) error {
	b := EncodeInt(n)
	_, err := c.w.Write(b[:])
	if err != nil {
		return sanerr.New(sanerr.KindIO, "wire.WriteWord", err)
	}
	return nil
}

// ReadWord reads exactly 4 bytes and decodes them as a signed word. A short
// read is reported as KindTruncatedStream.
func (c *Codec) ReadWord() (int32, error) {
	var b [WordSize]byte
	if _, err := io.ReadFull(c.r, b[:]); err != nil {
		return 0, sanerr.New(sanerr.KindTruncatedStream, "wire.ReadWord", err)
	}
	return DecodeWord(b[:]), nil
}

// WriteString encodes text per the SANE string wire format: an empty
// string is a single zero byte; otherwise a length word (len+1), the
// text's bytes, and a trailing zero byte. Embedded NUL bytes are rejected.
func (c *Codec) WriteString(text string) error {
	if bytes.IndexByte([]byte(text), 0) >= 0 {
		return sanerr.Errorf(sanerr.KindInvalidArgument, "wire.WriteString", "string contains a NUL byte")
	}
	if text == "" {
		if err := c.writeByte(0); err != nil {
			return err
		}
		return nil
	}
	if err := c.WriteWord(int32(len(text) + 1)); err != nil {
		return err
	}
	if _, err := c.w.Write([]byte(text)); err != nil {
		return sanerr.New(sanerr.KindIO, "wire.WriteString", err)
	}
	return c.writeByte(0)
}

func (c *Codec) writeByte(b byte) error {
	if _, err := c.w.Write([]byte{b}); err != nil {
		return sanerr.New(sanerr.KindIO, "wire.WriteString", err)
	}
	return nil
}

// ReadString reads a length-prefixed string: a length word L, then, if
// L>0, exactly L bytes whose trailing byte is discarded as the NUL
// terminator. L=0 denotes an absent/empty string.
func (c *Codec) ReadString() (string, error) {
	length, err := c.ReadWord()
	if err != nil {
		return "", err
	}
	if length == 0 {
		return "", nil
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(c.r, buf); err != nil {
		return "", sanerr.New(sanerr.KindTruncatedStream, "wire.ReadString", err)
	}
	return string(buf[:len(buf)-1]), nil
}

// ReadArray reads a pointer-prefixed array: a count word C (C<=1 means
// empty), then C-1 elements each preceded by a pointer word. A non-null
// pointer is followed by an element body decoded by readElem. A null
// pointer terminates the array without invoking readElem again, per the
// conforming policy of treating a null pointer as end-of-list.
func (c *Codec) ReadArray(readElem func() error) (int, error) {
	count, err := c.ReadWord()
	if err != nil {
		return 0, err
	}
	if count <= 1 {
		return 0, nil
	}
	n := 0
	for i := int32(0); i < count-1; i++ {
		ptr, err := c.ReadWord()
		if err != nil {
			return n, err
		}
		if ptr == 0 {
			break
		}
		if err := readElem(); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
