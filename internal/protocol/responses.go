package protocol

import (
	"encoding/binary"
	"fmt"
)

// Response catalog. Every decoder receives a complete frame whose
// length and checksum were already validated by Decode; it only
// checks that the declared payload length matches the shape it
// expects and pulls the payload fields out.

func payloadLengthError(name string, got byte, want int) error {
	return fmt.Errorf("%s: declared payload length %d, expected %d", name, got, want)
}

// BootResponse reports the dongle's identity after a boot request.
// 27-byte frame: 12 bytes of opaque radio state, the 64-bit device
// id and a 16-bit trailer.
type BootResponse struct {
	Data     [12]byte
	DeviceID uint64
	Trailer  uint16
}

func (r *BootResponse) Command() uint16 { return CmdBootResponse }

func (r *BootResponse) payload() []byte {
	p := append([]byte(nil), r.Data[:]...)
	p = binary.BigEndian.AppendUint64(p, r.DeviceID)
	return binary.BigEndian.AppendUint16(p, r.Trailer)
}

func (r *BootResponse) Encode() []byte {
	p := r.payload()
	return encodeFrame(CmdBootResponse, byte(len(p)), p)
}

func decodeBootResponse(frame []byte) (*BootResponse, error) {
	if frame[3] != 22 {
		return nil, payloadLengthError("boot response", frame[3], 22)
	}
	r := &BootResponse{}
	copy(r.Data[:], frame[4:16])
	r.DeviceID = binary.BigEndian.Uint64(frame[16:24])
	r.Trailer = binary.BigEndian.Uint16(frame[24:26])
	return r, nil
}

// BootConfirmResponse acknowledges the boot-confirm request.
type BootConfirmResponse struct {
	Status byte
}

func (r *BootConfirmResponse) Command() uint16 { return CmdBootConfirmResp }

func (r *BootConfirmResponse) Encode() []byte {
	return encodeFrame(CmdBootConfirmResp, 1, []byte{r.Status})
}

func decodeBootConfirmResponse(frame []byte) (*BootConfirmResponse, error) {
	if frame[3] != 1 {
		return nil, payloadLengthError("boot confirm response", frame[3], 1)
	}
	return &BootConfirmResponse{Status: frame[4]}, nil
}

// LockResponse acknowledges both lock and unlock requests.
type LockResponse struct {
	Status byte
}

func (r *LockResponse) Command() uint16 { return CmdLockResponse }

func (r *LockResponse) Encode() []byte {
	return encodeFrame(CmdLockResponse, 1, []byte{r.Status})
}

func decodeLockResponse(frame []byte) (*LockResponse, error) {
	if frame[3] != 1 {
		return nil, payloadLengthError("lock response", frame[3], 1)
	}
	return &LockResponse{Status: frame[4]}, nil
}

// HandshakeResponse confirms a network selection.
type HandshakeResponse struct {
	Status byte
}

func (r *HandshakeResponse) Command() uint16 { return CmdHandshake }

func (r *HandshakeResponse) Encode() []byte {
	return encodeFrame(CmdHandshake, 1, []byte{r.Status})
}

func decodeHandshakeResponse(frame []byte) (*HandshakeResponse, error) {
	if frame[3] != 1 {
		return nil, payloadLengthError("handshake response", frame[3], 1)
	}
	return &HandshakeResponse{Status: frame[4]}, nil
}

// UpdateTimeAck is the immediate acknowledgement of an update-time
// request; the full UpdateTimeResponse follows it.
type UpdateTimeAck struct {
	Status byte
}

func (r *UpdateTimeAck) Command() uint16 { return CmdUpdateTime }

func (r *UpdateTimeAck) Encode() []byte {
	return encodeFrame(CmdUpdateTime, 1, []byte{r.Status})
}

func decodeUpdateTimeAck(frame []byte) (*UpdateTimeAck, error) {
	if frame[3] != 1 {
		return nil, payloadLengthError("update time ack", frame[3], 1)
	}
	return &UpdateTimeAck{Status: frame[4]}, nil
}

// UpdateTimeResponse confirms the clock sync for a network.
type UpdateTimeResponse struct {
	NetworkID uint16
	Status    byte
}

func (r *UpdateTimeResponse) Command() uint16 { return CmdUpdateTimeResp }

func (r *UpdateTimeResponse) payload() []byte {
	p := binary.BigEndian.AppendUint16(nil, r.NetworkID)
	return append(p, r.Status)
}

func (r *UpdateTimeResponse) Encode() []byte {
	p := r.payload()
	return encodeFrame(CmdUpdateTimeResp, byte(len(p)), p)
}

func decodeUpdateTimeResponse(frame []byte) (*UpdateTimeResponse, error) {
	if frame[3] != 3 {
		return nil, payloadLengthError("update time response", frame[3], 3)
	}
	return &UpdateTimeResponse{
		NetworkID: binary.BigEndian.Uint16(frame[4:6]),
		Status:    frame[6],
	}, nil
}

// AckResponse is the immediate acknowledgement of a samples request.
type AckResponse struct {
	Status byte
}

func (r *AckResponse) Command() uint16 { return CmdSamples }

func (r *AckResponse) Encode() []byte {
	return encodeFrame(CmdSamples, 1, []byte{r.Status})
}

func decodeAckResponse(frame []byte) (*AckResponse, error) {
	if frame[3] != 1 {
		return nil, payloadLengthError("samples ack", frame[3], 1)
	}
	return &AckResponse{Status: frame[4]}, nil
}

// SampleReading is one historical power measurement. On the wire the
// two bytes are packed into one little-endian 16-bit word with the
// time in the high byte and the wattage in the low byte.
type SampleReading struct {
	Time    byte
	Wattage byte
}

// samplesFixedLength is the payload size of a samples response
// before the packed sample words: network id, channel id, flags,
// timestamp, sample count and the 3-byte stored count.
const samplesFixedLength = 14

// SamplesResponse carries a batch of stored power samples. The
// payload length is variable: the fixed fields are followed by
// sample-count packed 16-bit words. StoredCount reports how many
// samples remain on the device after this batch.
type SamplesResponse struct {
	NetworkID   uint16
	ChannelID   uint16
	Flags       uint16
	Time        uint32
	StoredCount uint32
	Samples     []SampleReading
}

func (r *SamplesResponse) Command() uint16 { return CmdSamplesResponse }

func (r *SamplesResponse) payload() []byte {
	p := binary.BigEndian.AppendUint16(nil, r.NetworkID)
	p = binary.BigEndian.AppendUint16(p, r.ChannelID)
	p = binary.BigEndian.AppendUint16(p, r.Flags)
	p = binary.LittleEndian.AppendUint32(p, r.Time)
	p = append(p, byte(len(r.Samples)))
	p = append(p, byte(r.StoredCount), byte(r.StoredCount>>8), byte(r.StoredCount>>16))
	for _, s := range r.Samples {
		word := uint16(s.Time)<<8 | uint16(s.Wattage)
		p = binary.LittleEndian.AppendUint16(p, word)
	}
	return p
}

func (r *SamplesResponse) Encode() []byte {
	p := r.payload()
	return encodeFrame(CmdSamplesResponse, byte(len(p)), p)
}

func decodeSamplesResponse(frame []byte) (*SamplesResponse, error) {
	if int(frame[3]) < samplesFixedLength {
		return nil, payloadLengthError("samples response", frame[3], samplesFixedLength)
	}
	r := &SamplesResponse{
		NetworkID: binary.BigEndian.Uint16(frame[4:6]),
		ChannelID: binary.BigEndian.Uint16(frame[6:8]),
		Flags:     binary.BigEndian.Uint16(frame[8:10]),
		Time:      binary.LittleEndian.Uint32(frame[10:14]),
	}

	count := int(frame[14])
	r.StoredCount = uint32(frame[15]) | uint32(frame[16])<<8 | uint32(frame[17])<<16

	// The declared payload length must account for exactly count
	// packed sample words.
	if int(frame[3]) != samplesFixedLength+2*count {
		return nil, fmt.Errorf("samples response: declared payload length %d does not fit %d samples", frame[3], count)
	}

	r.Samples = make([]SampleReading, 0, count)
	for i := 0; i < count; i++ {
		off := 18 + 2*i
		word := binary.LittleEndian.Uint16(frame[off : off+2])
		r.Samples = append(r.Samples, SampleReading{
			Time:    byte(word >> 8),
			Wattage: byte(word),
		})
	}
	return r, nil
}

// ScheduleResponse acknowledges a schedule write.
type ScheduleResponse struct {
	Status byte
}

func (r *ScheduleResponse) Command() uint16 { return CmdSchedule }

func (r *ScheduleResponse) Encode() []byte {
	return encodeFrame(CmdSchedule, 1, []byte{r.Status})
}

func decodeScheduleResponse(frame []byte) (*ScheduleResponse, error) {
	if frame[3] != 1 {
		return nil, payloadLengthError("schedule response", frame[3], 1)
	}
	return &ScheduleResponse{Status: frame[4]}, nil
}

// BroadcastResponse is the unsolicited announce a device transmits
// while the network is unlocked. Seen only during commissioning.
type BroadcastResponse struct {
	NetworkID uint16
	DeviceID  uint64
	Flags     byte
}

func (r *BroadcastResponse) Command() uint16 { return CmdBroadcast }

func (r *BroadcastResponse) payload() []byte {
	p := binary.BigEndian.AppendUint16(nil, r.NetworkID)
	p = binary.BigEndian.AppendUint64(p, r.DeviceID)
	return append(p, r.Flags)
}

func (r *BroadcastResponse) Encode() []byte {
	p := r.payload()
	return encodeFrame(CmdBroadcast, byte(len(p)), p)
}

func decodeBroadcastResponse(frame []byte) (*BroadcastResponse, error) {
	if frame[3] != 11 {
		return nil, payloadLengthError("broadcast", frame[3], 11)
	}
	return &BroadcastResponse{
		NetworkID: binary.BigEndian.Uint16(frame[4:6]),
		DeviceID:  binary.BigEndian.Uint64(frame[6:14]),
		Flags:     frame[14],
	}, nil
}
