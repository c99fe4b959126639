package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Frame layout constants.
const (
	// FrameHeader is the sentinel byte that starts every frame.
	FrameHeader = 0x02

	// HeaderSize covers the fixed-position fields: sentinel byte,
	// big-endian command word and the payload length byte. The
	// payload length byte at offset 3 determines how many more
	// bytes (payload plus trailing checksum) complete the frame.
	HeaderSize = 4
)

// Command codes. The dongle addresses every message with a 16-bit
// big-endian command word. Request and response codes differ in the
// 0x0080 bit for most transactions; lock/unlock and update-time
// reuse a single code for more than one message shape.
const (
	CmdBoot            = 0x4004
	CmdBootResponse    = 0x4084
	CmdBootConfirm     = 0x4000
	CmdBootConfirmResp = 0x4080
	CmdLock            = 0xA236 // shared by lock and unlock requests
	CmdLockResponse    = 0xA0F9
	CmdHandshake       = 0x4003 // request and response
	CmdUpdateTime      = 0x4022 // request and ack
	CmdUpdateTimeResp  = 0x40A2
	CmdSamples         = 0x4024 // request and ack
	CmdSamplesResponse = 0x40A4
	CmdSchedule        = 0x4023 // request and response
	CmdBroadcast       = 0xA013 // unsolicited device announce
)

// Sentinel decode errors. Callers inspect these with errors.Is.
var (
	// ErrIncomplete signals that the buffer holds fewer bytes than
	// the frame requires. The caller should read more and retry;
	// this never surfaces past the session layer.
	ErrIncomplete = errors.New("incomplete frame")

	// ErrChecksumMismatch signals that the trailing checksum byte
	// disagrees with the checksum recomputed from the frame body.
	ErrChecksumMismatch = errors.New("checksum mismatch")

	// ErrUnknownCommand signals a command code outside the catalog.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrBadHeader signals a frame that does not start with the
	// 0x02 sentinel byte.
	ErrBadHeader = errors.New("bad frame header")
)

// Message is one protocol message, request or response. Encode
// serializes the complete frame including header and checksum.
type Message interface {
	Command() uint16
	Encode() []byte
}

// checksum XOR-folds a byte sequence. The protocol checksums the
// frame body from the command word through the end of the payload;
// the sentinel byte and the checksum byte itself are excluded.
func checksum(body []byte) byte {
	var sum byte
	for _, b := range body {
		sum ^= b
	}
	return sum
}

// Checksum computes the checksum for a frame built from the given
// command, declared payload length and payload bytes. Encoding and
// decode-time verification both reduce to this one field ordering.
func Checksum(command uint16, payloadLength byte, payload []byte) byte {
	body := make([]byte, 0, 3+len(payload))
	body = binary.BigEndian.AppendUint16(body, command)
	body = append(body, payloadLength)
	body = append(body, payload...)
	return checksum(body)
}

// encodeFrame serializes a complete frame: sentinel, big-endian
// command, declared payload length, payload, checksum. The declared
// length is passed separately because a few requests declare a
// length that differs from the payload they carry (see requests.go).
func encodeFrame(command uint16, payloadLength byte, payload []byte) []byte {
	buf := make([]byte, 0, HeaderSize+len(payload)+1)
	buf = append(buf, FrameHeader)
	buf = binary.BigEndian.AppendUint16(buf, command)
	buf = append(buf, payloadLength)
	buf = append(buf, payload...)
	buf = append(buf, checksum(buf[1:]))
	return buf
}

// Header holds the fixed-position fields of a frame.
type Header struct {
	Command       uint16
	PayloadLength byte
}

// ParseHeader reads the fixed-position fields from the start of buf.
// It returns ErrIncomplete if fewer than HeaderSize bytes are
// present and ErrBadHeader if the sentinel byte is wrong.
func ParseHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, fmt.Errorf("%w: have %d bytes, header needs %d", ErrIncomplete, len(buf), HeaderSize)
	}
	if buf[0] != FrameHeader {
		return Header{}, fmt.Errorf("%w: 0x%02x (expected 0x%02x)", ErrBadHeader, buf[0], FrameHeader)
	}
	return Header{
		Command:       binary.BigEndian.Uint16(buf[1:3]),
		PayloadLength: buf[3],
	}, nil
}

// Remaining reports how many bytes follow the fixed header for a
// frame the dongle sends: the declared payload plus the checksum
// byte. Every inbound frame obeys this rule; only a couple of
// outbound requests declare quirky lengths.
func (h Header) Remaining() int {
	return int(h.PayloadLength) + 1
}

// verifyFrame checks the trailing checksum byte of a complete frame
// against the checksum recomputed from the frame body.
func verifyFrame(frame []byte) error {
	got := frame[len(frame)-1]
	want := checksum(frame[1 : len(frame)-1])
	if got != want {
		return fmt.Errorf("%w: frame carries 0x%02x, computed 0x%02x", ErrChecksumMismatch, got, want)
	}
	return nil
}

// CommandName returns a human-readable name for a command code.
func CommandName(command uint16) string {
	switch command {
	case CmdBoot:
		return "Boot"
	case CmdBootResponse:
		return "BootResponse"
	case CmdBootConfirm:
		return "BootConfirm"
	case CmdBootConfirmResp:
		return "BootConfirmResponse"
	case CmdLock:
		return "Lock"
	case CmdLockResponse:
		return "LockResponse"
	case CmdHandshake:
		return "Handshake"
	case CmdUpdateTime:
		return "UpdateTime"
	case CmdUpdateTimeResp:
		return "UpdateTimeResponse"
	case CmdSamples:
		return "Samples"
	case CmdSamplesResponse:
		return "SamplesResponse"
	case CmdSchedule:
		return "Schedule"
	case CmdBroadcast:
		return "Broadcast"
	default:
		return fmt.Sprintf("Unknown(0x%04x)", command)
	}
}

// Decode parses one inbound frame from the front of buf and returns
// the typed message together with the number of bytes consumed.
//
// The fixed header is parsed first; the payload length byte then
// determines how many further bytes the frame needs. If buf is too
// short the error wraps ErrIncomplete and the caller should supply
// more bytes. The checksum is always verified before any payload
// field is interpreted; a mismatch rejects the frame. A command code
// outside the response catalog is an explicit ErrUnknownCommand,
// never a silent pass-through.
func Decode(buf []byte) (Message, int, error) {
	h, err := ParseHeader(buf)
	if err != nil {
		return nil, 0, err
	}

	total := HeaderSize + h.Remaining()
	if len(buf) < total {
		return nil, 0, fmt.Errorf("%w: have %d bytes, frame declares %d", ErrIncomplete, len(buf), total)
	}
	frame := buf[:total]

	if err := verifyFrame(frame); err != nil {
		return nil, 0, err
	}

	var msg Message
	switch h.Command {
	case CmdBootResponse:
		msg, err = decodeBootResponse(frame)
	case CmdBootConfirmResp:
		msg, err = decodeBootConfirmResponse(frame)
	case CmdLockResponse:
		msg, err = decodeLockResponse(frame)
	case CmdHandshake:
		msg, err = decodeHandshakeResponse(frame)
	case CmdUpdateTime:
		msg, err = decodeUpdateTimeAck(frame)
	case CmdUpdateTimeResp:
		msg, err = decodeUpdateTimeResponse(frame)
	case CmdSamples:
		msg, err = decodeAckResponse(frame)
	case CmdSamplesResponse:
		msg, err = decodeSamplesResponse(frame)
	case CmdSchedule:
		msg, err = decodeScheduleResponse(frame)
	case CmdBroadcast:
		msg, err = decodeBroadcastResponse(frame)
	default:
		return nil, 0, fmt.Errorf("%w: 0x%04x", ErrUnknownCommand, h.Command)
	}
	if err != nil {
		return nil, 0, err
	}
	return msg, total, nil
}
