package protocol

import (
	"bytes"
	"errors"
	"testing"
)

func TestChecksum(t *testing.T) {
	tests := []struct {
		name          string
		command       uint16
		payloadLength byte
		payload       []byte
		want          byte
	}{
		{
			name:    "boot request",
			command: CmdBoot,
			want:    0x44,
		},
		{
			name:          "boot confirm declares length 1 with no payload",
			command:       CmdBootConfirm,
			payloadLength: 1,
			want:          0x41,
		},
		{
			name:          "unlock request",
			command:       CmdLock,
			payloadLength: 4,
			payload:       []byte{0xFC, 0xFF, 0x90, 0x01},
			want:          0x02,
		},
		{
			name:          "lock request",
			command:       CmdLock,
			payloadLength: 4,
			payload:       []byte{0xFC, 0xFF, 0x00, 0x01},
			want:          0x92,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Checksum(tt.command, tt.payloadLength, tt.payload)
			if got != tt.want {
				t.Errorf("Checksum() = 0x%02x, want 0x%02x", got, tt.want)
			}
		})
	}
}

func TestChecksumMatchesEncodedFrames(t *testing.T) {
	msgs := []Message{
		NewBootRequest(),
		NewBootConfirmRequest(),
		NewUnlockRequest(),
		NewLockRequest(),
		NewHandshakeRequest(0x0010),
		NewUpdateTimeRequest(0x0010, 0x12345678),
		NewSamplesRequest(0x0010, 1),
		&LockResponse{Status: 0x00},
		&BroadcastResponse{NetworkID: 0x0010, DeviceID: 0xDEADBEEF00112233, Flags: 0x01},
	}

	for _, m := range msgs {
		frame := m.Encode()
		got := frame[len(frame)-1]
		want := Checksum(m.Command(), frame[3], frame[4:len(frame)-1])
		if got != want {
			t.Errorf("%s: encoded checksum 0x%02x, recomputed 0x%02x", CommandName(m.Command()), got, want)
		}
	}
}

func TestChecksumDetectsSingleBitFlips(t *testing.T) {
	req := NewSamplesRequest(0x0010, 1)
	frame := req.Encode()
	want := frame[len(frame)-1]

	// Flip every bit of the checksummed region in turn; each flip
	// must change the recomputed checksum.
	for i := 1; i < len(frame)-1; i++ {
		for bit := 0; bit < 8; bit++ {
			mutated := append([]byte(nil), frame...)
			mutated[i] ^= 1 << bit
			got := checksum(mutated[1 : len(mutated)-1])
			if got == want {
				t.Errorf("flipping byte %d bit %d left checksum unchanged (0x%02x)", i, bit, got)
			}
		}
	}
}

func TestParseHeader(t *testing.T) {
	tests := []struct {
		name    string
		buf     []byte
		wantErr error
		want    Header
	}{
		{
			name: "lock response header",
			buf:  []byte{0x02, 0xA0, 0xF9, 0x01},
			want: Header{Command: CmdLockResponse, PayloadLength: 1},
		},
		{
			name:    "short buffer",
			buf:     []byte{0x02, 0xA0},
			wantErr: ErrIncomplete,
		},
		{
			name:    "wrong sentinel",
			buf:     []byte{0x7E, 0xA0, 0xF9, 0x01},
			wantErr: ErrBadHeader,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := ParseHeader(tt.buf)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseHeader() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseHeader() error = %v", err)
			}
			if h != tt.want {
				t.Errorf("ParseHeader() = %+v, want %+v", h, tt.want)
			}
		})
	}
}

func TestDecodeIncompletePrefixes(t *testing.T) {
	frame := (&BootResponse{DeviceID: 0xAABBCCDD00112233, Trailer: 0xA042}).Encode()

	// Every strict prefix must yield ErrIncomplete, never a parse.
	for n := 0; n < len(frame); n++ {
		_, _, err := Decode(frame[:n])
		if !errors.Is(err, ErrIncomplete) {
			t.Errorf("Decode(%d-byte prefix) error = %v, want ErrIncomplete", n, err)
		}
	}

	msg, consumed, err := Decode(frame)
	if err != nil {
		t.Fatalf("Decode(full frame) error = %v", err)
	}
	if consumed != len(frame) {
		t.Errorf("consumed = %d, want %d", consumed, len(frame))
	}
	if _, ok := msg.(*BootResponse); !ok {
		t.Errorf("Decode() = %T, want *BootResponse", msg)
	}
}

func TestDecodeRejectsCorruptChecksum(t *testing.T) {
	frame := (&LockResponse{Status: 0x00}).Encode()
	frame[len(frame)-1] ^= 0xFF

	_, _, err := Decode(frame)
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("Decode() error = %v, want ErrChecksumMismatch", err)
	}
}

func TestDecodeRejectsUnknownCommand(t *testing.T) {
	frame := encodeFrame(0x1234, 1, []byte{0x00})

	_, _, err := Decode(frame)
	if !errors.Is(err, ErrUnknownCommand) {
		t.Fatalf("Decode() error = %v, want ErrUnknownCommand", err)
	}
}

func TestDecodeConsumesOnlyOneFrame(t *testing.T) {
	first := (&AckResponse{Status: 0x00}).Encode()
	second := (&ScheduleResponse{Status: 0x00}).Encode()
	stream := append(append([]byte(nil), first...), second...)

	msg, consumed, err := Decode(stream)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if consumed != len(first) {
		t.Fatalf("consumed = %d, want %d", consumed, len(first))
	}
	if _, ok := msg.(*AckResponse); !ok {
		t.Fatalf("Decode() = %T, want *AckResponse", msg)
	}

	msg, consumed, err = Decode(stream[consumed:])
	if err != nil {
		t.Fatalf("Decode(second) error = %v", err)
	}
	if consumed != len(second) {
		t.Fatalf("second consumed = %d, want %d", consumed, len(second))
	}
	if _, ok := msg.(*ScheduleResponse); !ok {
		t.Fatalf("Decode(second) = %T, want *ScheduleResponse", msg)
	}
}

func TestEncodeFrameLayout(t *testing.T) {
	frame := encodeFrame(CmdHandshake, 4, []byte{0x00, 0x10, 0x05, 0x00})
	want := []byte{0x02, 0x40, 0x03, 0x04, 0x00, 0x10, 0x05, 0x00, 0x52}
	if !bytes.Equal(frame, want) {
		t.Errorf("encodeFrame() = % x, want % x", frame, want)
	}
}
