package protocol

import (
	"bytes"
	"testing"

	"github.com/finch-labs/gosane/internal/sanerr"
	"github.com/finch-labs/gosane/internal/wire"
)

func word(n int32) []byte {
	b := wire.EncodeInt(n)
	return b[:]
}

func str(s string) []byte {
	if s == "" {
		return []byte{0}
	}
	var buf bytes.Buffer
	buf.Write(word(int32(len(s) + 1)))
	buf.WriteString(s)
	buf.WriteByte(0)
	return buf.Bytes()
}

// TestInit_S1 reproduces spec.md scenario S1: the client writes opcode 0,
// version 1.0.3, and username "user"; the server replies two words.
func TestInit_S1(t *testing.T) {
	var serverResp bytes.Buffer
	serverResp.Write(word(0)) // server version, unused
	serverResp.Write(word(0)) // status = 0

	var clientReq bytes.Buffer
	c := wire.NewSplit(&serverResp, &clientReq)

	if err := Init(c, 1, 0, 3, "user"); err != nil {
		t.Fatalf("Init: %v", err)
	}

	var want bytes.Buffer
	want.Write(word(0))                     // opcode INIT
	want.Write(word(wire.EncodeVersion(1, 0, 3)))
	want.Write(str("user"))

	if !bytes.Equal(clientReq.Bytes(), want.Bytes()) {
		t.Errorf("request bytes = % x, want % x", clientReq.Bytes(), want.Bytes())
	}
}

func TestInit_NonZeroStatusIsProtocolError(t *testing.T) {
	var serverResp bytes.Buffer
	serverResp.Write(word(0))
	serverResp.Write(word(7)) // non-zero status

	c := wire.NewSplit(&serverResp, &bytes.Buffer{})
	err := Init(c, 1, 0, 3, "user")
	if !sanerr.Is(err, sanerr.KindProtocolStatus) {
		t.Fatalf("err = %v, want KindProtocolStatus", err)
	}
}

// TestGetDevices_S2 reproduces scenario S2: an empty device list.
func TestGetDevices_S2(t *testing.T) {
	var serverResp bytes.Buffer
	serverResp.Write(word(0)) // status
	serverResp.Write(word(1)) // count = 1 -> empty list
	serverResp.Write(word(0)) // trailing word

	c := wire.NewSplit(&serverResp, &bytes.Buffer{})
	devices, err := GetDevices(c)
	if err != nil {
		t.Fatal(err)
	}
	if len(devices) != 0 {
		t.Errorf("devices = %v, want empty", devices)
	}
}

// TestGetDevices_S3 reproduces scenario S3: a single device descriptor.
func TestGetDevices_S3(t *testing.T) {
	var serverResp bytes.Buffer
	serverResp.Write(word(0)) // status
	serverResp.Write(word(2)) // count = 2 -> 1 element
	serverResp.Write(word(1)) // non-null pointer
	serverResp.Write(str("dev0"))
	serverResp.Write(str("Acme"))
	serverResp.Write(str("X1"))
	serverResp.Write(str("scanner"))
	serverResp.Write(word(0)) // trailing word

	c := wire.NewSplit(&serverResp, &bytes.Buffer{})
	devices, err := GetDevices(c)
	if err != nil {
		t.Fatal(err)
	}
	if len(devices) != 1 {
		t.Fatalf("len(devices) = %d, want 1", len(devices))
	}
	want := DeviceDescriptor{Name: "dev0", Vendor: "Acme", Model: "X1", Type: "scanner"}
	if devices[0] != want {
		t.Errorf("devices[0] = %+v, want %+v", devices[0], want)
	}
}

func TestGetDevices_CountZeroIsEmpty(t *testing.T) {
	var serverResp bytes.Buffer
	serverResp.Write(word(0)) // status
	serverResp.Write(word(0)) // count = 0 -> empty
	serverResp.Write(word(0)) // trailing word

	c := wire.NewSplit(&serverResp, &bytes.Buffer{})
	devices, err := GetDevices(c)
	if err != nil {
		t.Fatal(err)
	}
	if len(devices) != 0 {
		t.Errorf("devices = %v, want empty", devices)
	}
}

// TestOpen_S4 reproduces scenario S4.
func TestOpen_S4(t *testing.T) {
	var serverResp bytes.Buffer
	serverResp.Write(word(0))    // status
	serverResp.Write(word(0x2A)) // handle
	serverResp.Write(str(""))    // resource: empty

	var clientReq bytes.Buffer
	c := wire.NewSplit(&serverResp, &clientReq)

	handle, err := Open(c, "dev0")
	if err != nil {
		t.Fatal(err)
	}
	if handle.Handle != 0x2A {
		t.Errorf("handle = 0x%X, want 0x2A", handle.Handle)
	}
	if handle.AuthorizationRequired() {
		t.Error("AuthorizationRequired() = true, want false")
	}

	var want bytes.Buffer
	want.Write(word(opOpen))
	want.Write(str("dev0"))
	if !bytes.Equal(clientReq.Bytes(), want.Bytes()) {
		t.Errorf("request = % x, want % x", clientReq.Bytes(), want.Bytes())
	}
}

func TestOpen_AuthorizationRequired(t *testing.T) {
	var serverResp bytes.Buffer
	serverResp.Write(word(0))
	serverResp.Write(word(1))
	serverResp.Write(str("needs-a-password"))

	c := wire.NewSplit(&serverResp, &bytes.Buffer{})
	handle, err := Open(c, "dev0")
	if err != nil {
		t.Fatal(err)
	}
	if !handle.AuthorizationRequired() {
		t.Error("AuthorizationRequired() = false, want true")
	}
}

func TestGetParameters(t *testing.T) {
	var serverResp bytes.Buffer
	serverResp.Write(word(0))           // status
	serverResp.Write(word(int32(FrameGray)))
	serverResp.Write(word(1)) // last = true
	serverResp.Write(word(4)) // bytes per line
	serverResp.Write(word(4)) // pixels per line
	serverResp.Write(word(2)) // lines
	serverResp.Write(word(8)) // depth

	c := wire.NewSplit(&serverResp, &bytes.Buffer{})
	params, err := GetParameters(c, 0x2A)
	if err != nil {
		t.Fatal(err)
	}
	want := FrameParameters{FrameType: FrameGray, IsLast: true, BytesPerLine: 4, PixelsPerLine: 4, LineCount: 2, Depth: 8}
	if params != want {
		t.Errorf("params = %+v, want %+v", params, want)
	}
}

func TestStart(t *testing.T) {
	var serverResp bytes.Buffer
	serverResp.Write(word(0))    // status
	serverResp.Write(word(5000)) // port
	serverResp.Write(word(0))    // byte order
	serverResp.Write(str(""))    // resource

	c := wire.NewSplit(&serverResp, &bytes.Buffer{})
	res, err := Start(c, 0x2A)
	if err != nil {
		t.Fatal(err)
	}
	if res.Port != 5000 || res.AuthorizationRequired() {
		t.Errorf("res = %+v", res)
	}
}

func TestClose_DummyWordIsNotAStatus(t *testing.T) {
	var serverResp bytes.Buffer
	serverResp.Write(word(99)) // nonzero "dummy" value must not error

	c := wire.NewSplit(&serverResp, &bytes.Buffer{})
	if err := Close(c, 0x2A); err != nil {
		t.Fatalf("Close returned error for nonzero dummy word: %v", err)
	}
}

func TestExit_WritesOpcodeOnly(t *testing.T) {
	var clientReq bytes.Buffer
	c := wire.NewSplit(&bytes.Buffer{}, &clientReq)
	if err := Exit(c); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(clientReq.Bytes(), word(opExit)) {
		t.Errorf("request = % x, want % x", clientReq.Bytes(), word(opExit))
	}
}
