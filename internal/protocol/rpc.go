package protocol

import (
	"github.com/finch-labs/gosane/internal/sanerr"
	"github.com/finch-labs/gosane/internal/wire"
)

// Init performs the INIT RPC: version word, username string out; version
// word, status word in (in the order the server sends them). A non-zero
// status is surfaced as KindProtocolStatus.
func Init(c *wire.Codec, versionMajor, versionMinor, versionBuild int, username string) error {
	if err := c.WriteWord(opInit); err != nil {
		return err
	}
	if err := c.WriteWord(wire.EncodeVersion(versionMajor, versionMinor, versionBuild)); err != nil {
		return err
	}
	if err := c.WriteString(username); err != nil {
		return err
	}

	if _, err := c.ReadWord(); err != nil { // server version, unused
		return err
	}
	status, err := c.ReadWord()
	if err != nil {
		return err
	}
	if status != 0 {
		return sanerr.Status("protocol.Init", int(status))
	}
	return nil
}

// GetDevices performs the GET_DEVICES RPC and returns the decoded device
// list.
func GetDevices(c *wire.Codec) ([]DeviceDescriptor, error) {
	if err := c.WriteWord(opGetDevices); err != nil {
		return nil, err
	}

	status, err := c.ReadWord()
	if err != nil {
		return nil, err
	}
	if status != 0 {
		return nil, sanerr.Status("protocol.GetDevices", int(status))
	}

	var devices []DeviceDescriptor
	_, err = c.ReadArray(func() error {
		d, err := readDeviceDescriptor(c)
		if err != nil {
			return err
		}
		devices = append(devices, d)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if _, err := c.ReadWord(); err != nil { // trailing word, discarded
		return nil, err
	}
	return devices, nil
}

func readDeviceDescriptor(c *wire.Codec) (DeviceDescriptor, error) {
	name, err := c.ReadString()
	if err != nil {
		return DeviceDescriptor{}, err
	}
	vendor, err := c.ReadString()
	if err != nil {
		return DeviceDescriptor{}, err
	}
	model, err := c.ReadString()
	if err != nil {
		return DeviceDescriptor{}, err
	}
	typ, err := c.ReadString()
	if err != nil {
		return DeviceDescriptor{}, err
	}
	return DeviceDescriptor{Name: name, Vendor: vendor, Model: model, Type: typ}, nil
}

// Open performs the OPEN RPC for the named device.
func Open(c *wire.Codec, name string) (DeviceHandle, error) {
	if err := c.WriteWord(opOpen); err != nil {
		return DeviceHandle{}, err
	}
	if err := c.WriteString(name); err != nil {
		return DeviceHandle{}, err
	}

	status, err := c.ReadWord()
	if err != nil {
		return DeviceHandle{}, err
	}
	if status != 0 {
		return DeviceHandle{}, sanerr.Status("protocol.Open", int(status))
	}
	handle, err := c.ReadWord()
	if err != nil {
		return DeviceHandle{}, err
	}
	resource, err := c.ReadString()
	if err != nil {
		return DeviceHandle{}, err
	}
	return DeviceHandle{Status: status, Handle: handle, Resource: resource}, nil
}

// Close performs the CLOSE RPC. The response's single dummy word is read
// and discarded — its contract is unspecified and must not be
// interpreted as a status (spec.md §9).
func Close(c *wire.Codec, handle int32) error {
	if err := c.WriteWord(opClose); err != nil {
		return err
	}
	if err := c.WriteWord(handle); err != nil {
		return err
	}
	_, err := c.ReadWord()
	return err
}

// GetParameters performs the GET_PARAMETERS RPC for an open device.
func GetParameters(c *wire.Codec, handle int32) (FrameParameters, error) {
	if err := c.WriteWord(opGetParameters); err != nil {
		return FrameParameters{}, err
	}
	if err := c.WriteWord(handle); err != nil {
		return FrameParameters{}, err
	}

	status, err := c.ReadWord()
	if err != nil {
		return FrameParameters{}, err
	}
	if status != 0 {
		return FrameParameters{}, sanerr.Status("protocol.GetParameters", int(status))
	}

	frame, err := c.ReadWord()
	if err != nil {
		return FrameParameters{}, err
	}
	last, err := c.ReadWord()
	if err != nil {
		return FrameParameters{}, err
	}
	bpl, err := c.ReadWord()
	if err != nil {
		return FrameParameters{}, err
	}
	ppl, err := c.ReadWord()
	if err != nil {
		return FrameParameters{}, err
	}
	lines, err := c.ReadWord()
	if err != nil {
		return FrameParameters{}, err
	}
	depth, err := c.ReadWord()
	if err != nil {
		return FrameParameters{}, err
	}

	return FrameParameters{
		FrameType:     FrameType(frame),
		IsLast:        last == 1,
		BytesPerLine:  bpl,
		PixelsPerLine: ppl,
		LineCount:     lines,
		Depth:         depth,
	}, nil
}

// Start performs the START RPC, yielding the data socket port for the
// next frame.
func Start(c *wire.Codec, handle int32) (StartResult, error) {
	if err := c.WriteWord(opStart); err != nil {
		return StartResult{}, err
	}
	if err := c.WriteWord(handle); err != nil {
		return StartResult{}, err
	}

	status, err := c.ReadWord()
	if err != nil {
		return StartResult{}, err
	}
	if status != 0 {
		return StartResult{}, sanerr.Status("protocol.Start", int(status))
	}
	port, err := c.ReadWord()
	if err != nil {
		return StartResult{}, err
	}
	byteOrder, err := c.ReadWord()
	if err != nil {
		return StartResult{}, err
	}
	resource, err := c.ReadString()
	if err != nil {
		return StartResult{}, err
	}
	return StartResult{Port: port, ByteOrder: byteOrder, Resource: resource}, nil
}

// Exit performs the EXIT RPC. The server closes the connection in
// response; no reply is read.
func Exit(c *wire.Codec) error {
	return c.WriteWord(opExit)
}
