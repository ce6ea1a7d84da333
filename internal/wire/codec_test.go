package wire

import (
	"bytes"
	"testing"

	"github.com/finch-labs/gosane/internal/sanerr"
)

func TestWordRoundTrip(t *testing.T) {
	cases := []int32{0, 1, -1, 42, 1 << 30, -(1 << 30), 2147483647, -2147483648}
	for _, n := range cases {
		b := EncodeInt(n)
		if got := DecodeWord(b[:]); got != n {
			t.Errorf("DecodeWord(EncodeInt(%d)) = %d", n, got)
		}
	}
}

func TestDecodeWordPanicsOnWrongLength(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on short input")
		}
	}()
	DecodeWord([]byte{1, 2, 3})
}

func TestEncodeVersion(t *testing.T) {
	v := EncodeVersion(1, 0, 3)
	if v != int32(0x01000003) {
		t.Errorf("EncodeVersion(1,0,3) = 0x%08X, want 0x01000003", uint32(v))
	}

	v = EncodeVersion(0xFF+1, 0xFF+2, 0xFFFF+5) // wraps via &0xFF/&0xFFFF
	want := int32(0x00010004) // 0x100&0xFF=0, 0x101&0xFF=1, 0x10004&0xFFFF=4
	if v != want {
		t.Errorf("EncodeVersion masking = 0x%08X, want 0x%08X", uint32(v), uint32(want))
	}
}

func TestCodecWordRoundTripOverStream(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf)
	if err := c.WriteWord(-12345); err != nil {
		t.Fatal(err)
	}
	got, err := c.ReadWord()
	if err != nil {
		t.Fatal(err)
	}
	if got != -12345 {
		t.Errorf("got %d, want -12345", got)
	}
}

func TestCodecReadWordTruncated(t *testing.T) {
	c := NewSplit(bytes.NewReader([]byte{0x00, 0x01}), nil)
	_, err := c.ReadWord()
	if !sanerr.Is(err, sanerr.KindTruncatedStream) {
		t.Fatalf("err = %v, want KindTruncatedStream", err)
	}
}

func TestStringRoundTrip(t *testing.T) {
	cases := []string{"", "a", "hello", "with spaces", "unicode: éè"}
	for _, s := range cases {
		var buf bytes.Buffer
		c := New(&buf)
		if err := c.WriteString(s); err != nil {
			t.Fatalf("WriteString(%q): %v", s, err)
		}
		got, err := c.ReadString()
		if err != nil {
			t.Fatalf("ReadString after WriteString(%q): %v", s, err)
		}
		if got != s {
			t.Errorf("round trip %q -> %q", s, got)
		}
	}
}

func TestEmptyStringIsSingleZeroByte(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf)
	if err := c.WriteString(""); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf.Bytes(), []byte{0}) {
		t.Errorf("empty string wire form = %v, want [0]", buf.Bytes())
	}
}

func TestWriteStringRejectsEmbeddedNUL(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf)
	err := c.WriteString("bad\x00string")
	if !sanerr.Is(err, sanerr.KindInvalidArgument) {
		t.Fatalf("err = %v, want KindInvalidArgument", err)
	}
}

func TestReadStringTruncated(t *testing.T) {
	var buf bytes.Buffer
	// length word says 10 bytes follow, but only 2 are present.
	w := EncodeInt(10)
	buf.Write(w[:])
	buf.Write([]byte{'h', 'i'})
	c := New(&buf)
	_, err := c.ReadString()
	if !sanerr.Is(err, sanerr.KindTruncatedStream) {
		t.Fatalf("err = %v, want KindTruncatedStream", err)
	}
}

func TestReadArrayCountZeroOrOneIsEmpty(t *testing.T) {
	for _, count := range []int32{0, 1} {
		var buf bytes.Buffer
		w := EncodeInt(count)
		buf.Write(w[:])
		c := New(&buf)
		calls := 0
		n, err := c.ReadArray(func() error {
			calls++
			return nil
		})
		if err != nil {
			t.Fatalf("count=%d: %v", count, err)
		}
		if n != 0 || calls != 0 {
			t.Errorf("count=%d: n=%d calls=%d, want 0/0", count, n, calls)
		}
	}
}

func TestReadArrayReadsPointerPrefixedElements(t *testing.T) {
	var buf bytes.Buffer
	writeWord := func(n int32) {
		w := EncodeInt(n)
		buf.Write(w[:])
	}
	writeWord(3) // 2 elements follow
	writeWord(1) // non-null pointer
	writeWord(100)
	writeWord(1) // non-null pointer
	writeWord(200)

	c := New(&buf)
	var got []int32
	n, err := c.ReadArray(func() error {
		v, err := c.ReadWord()
		if err != nil {
			return err
		}
		got = append(got, v)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("n = %d, want 2", n)
	}
	if len(got) != 2 || got[0] != 100 || got[1] != 200 {
		t.Errorf("got %v, want [100 200]", got)
	}
}

func TestReadArrayNullPointerEndsList(t *testing.T) {
	var buf bytes.Buffer
	writeWord := func(n int32) {
		w := EncodeInt(n)
		buf.Write(w[:])
	}
	writeWord(3) // 2 elements would follow
	writeWord(0) // null pointer: end of list, no body read

	c := New(&buf)
	calls := 0
	n, err := c.ReadArray(func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 || calls != 0 {
		t.Errorf("n=%d calls=%d, want 0/0 on null pointer", n, calls)
	}
}
