package protocol

import (
	"encoding/binary"
)

// Request constructor library for the messages the host sends to the
// dongle. Field values (command codes, magic constants, flag words)
// come from captures of the vendor software talking to the dongle.

// Magic constants carried by lock and unlock requests. Both use
// command 0xA236; only this payload word distinguishes the intent.
const (
	unlockMagic = 0xFCFF9001
	lockMagic   = 0xFCFF0001
)

// Fixed flag words observed in handshake and samples requests.
const (
	handshakeFlags = 0x0500
	samplesFlags   = 0x0A00
)

// ScheduleSize is the size of the on/off schedule bitmap attached to
// a schedule request.
const ScheduleSize = 56

// Marker bytes that distinguish the two canned schedule bitmaps. The
// per-byte meaning of the rest of the bitmap is not documented; the
// canned variants fill it with 0x7F and set only this marker.
const (
	scheduleMarkerIndex = 5
	scheduleMarkerOn    = 0x25
	scheduleMarkerOff   = 0xA5
)

// BootRequest asks the dongle to boot its radio. First frame of
// every session.
//
//	[0]    0x02     sentinel
//	[1-2]  0x4004   command (big-endian)
//	[3]    0x00     payload length
//	[4]    checksum
type BootRequest struct{}

func NewBootRequest() *BootRequest { return &BootRequest{} }

func (r *BootRequest) Command() uint16 { return CmdBoot }

func (r *BootRequest) Encode() []byte {
	return encodeFrame(CmdBoot, 0, nil)
}

// BootConfirmRequest completes the boot handshake. The dongle
// expects a declared payload length of 1 even though the frame
// carries no payload bytes; the checksum covers the declared length.
type BootConfirmRequest struct{}

func NewBootConfirmRequest() *BootConfirmRequest { return &BootConfirmRequest{} }

func (r *BootConfirmRequest) Command() uint16 { return CmdBootConfirm }

func (r *BootConfirmRequest) Encode() []byte {
	return encodeFrame(CmdBootConfirm, 1, nil)
}

// LockRequest opens or closes the network for new device
// registrations. Unlock and lock share command 0xA236 and differ
// only in the 4-byte magic constant.
//
//	[0]    0x02        sentinel
//	[1-2]  0xA236      command (big-endian)
//	[3]    0x04        payload length
//	[4-7]  magic       0xFCFF9001 unlock / 0xFCFF0001 lock (big-endian)
//	[8]    checksum
type LockRequest struct {
	Magic uint32
}

// NewUnlockRequest builds the request that opens the network so new
// devices may announce themselves.
func NewUnlockRequest() *LockRequest { return &LockRequest{Magic: unlockMagic} }

// NewLockRequest builds the request that closes the network again.
func NewLockRequest() *LockRequest { return &LockRequest{Magic: lockMagic} }

// Unlocks reports whether this request carries the unlock magic.
func (r *LockRequest) Unlocks() bool { return r.Magic == unlockMagic }

func (r *LockRequest) Command() uint16 { return CmdLock }

func (r *LockRequest) payload() []byte {
	return binary.BigEndian.AppendUint32(nil, r.Magic)
}

func (r *LockRequest) Encode() []byte {
	p := r.payload()
	return encodeFrame(CmdLock, byte(len(p)), p)
}

// HandshakeRequest selects the network that subsequent per-socket
// commands target. Must precede switch and sample reads.
//
//	[0]    0x02        sentinel
//	[1-2]  0x4003      command (big-endian)
//	[3]    0x04        payload length
//	[4-5]  network id  (big-endian)
//	[6-7]  0x0500      flags (big-endian)
//	[8]    checksum
type HandshakeRequest struct {
	NetworkID uint16
	Flags     uint16
}

func NewHandshakeRequest(networkID uint16) *HandshakeRequest {
	return &HandshakeRequest{NetworkID: networkID, Flags: handshakeFlags}
}

func (r *HandshakeRequest) Command() uint16 { return CmdHandshake }

func (r *HandshakeRequest) payload() []byte {
	p := binary.BigEndian.AppendUint16(nil, r.NetworkID)
	return binary.BigEndian.AppendUint16(p, r.Flags)
}

func (r *HandshakeRequest) Encode() []byte {
	p := r.payload()
	return encodeFrame(CmdHandshake, byte(len(p)), p)
}

// UpdateTimeRequest syncs a freshly commissioned device's clock.
// The network id is big-endian but the epoch timestamp is
// little-endian; the mixed endianness is part of the wire contract.
//
//	[0]    0x02        sentinel
//	[1-2]  0x4022      command (big-endian)
//	[3]    0x06        payload length
//	[4-5]  network id  (big-endian)
//	[6-9]  epoch secs  (little-endian)
//	[10]   checksum
type UpdateTimeRequest struct {
	NetworkID uint16
	Time      uint32
}

func NewUpdateTimeRequest(networkID uint16, epochSeconds uint32) *UpdateTimeRequest {
	return &UpdateTimeRequest{NetworkID: networkID, Time: epochSeconds}
}

func (r *UpdateTimeRequest) Command() uint16 { return CmdUpdateTime }

func (r *UpdateTimeRequest) payload() []byte {
	p := binary.BigEndian.AppendUint16(nil, r.NetworkID)
	return binary.LittleEndian.AppendUint32(p, r.Time)
}

func (r *UpdateTimeRequest) Encode() []byte {
	p := r.payload()
	return encodeFrame(CmdUpdateTime, byte(len(p)), p)
}

// SamplesRequest asks a socket to return its stored power samples.
//
//	[0]    0x02        sentinel
//	[1-2]  0x4024      command (big-endian)
//	[3]    0x06        payload length
//	[4-5]  network id  (big-endian)
//	[6-7]  channel id  (big-endian)
//	[8-9]  0x0A00      flags (big-endian)
//	[10]   checksum
type SamplesRequest struct {
	NetworkID uint16
	ChannelID uint16
	Flags     uint16
}

func NewSamplesRequest(networkID, channelID uint16) *SamplesRequest {
	return &SamplesRequest{NetworkID: networkID, ChannelID: channelID, Flags: samplesFlags}
}

func (r *SamplesRequest) Command() uint16 { return CmdSamples }

func (r *SamplesRequest) payload() []byte {
	p := binary.BigEndian.AppendUint16(nil, r.NetworkID)
	p = binary.BigEndian.AppendUint16(p, r.ChannelID)
	return binary.BigEndian.AppendUint16(p, r.Flags)
}

func (r *SamplesRequest) Encode() []byte {
	p := r.payload()
	return encodeFrame(CmdSamples, byte(len(p)), p)
}

// ScheduleRequest writes a socket's on/off schedule. Switching a
// socket on or off is done by sending one of the two canned
// bitmaps. The dongle declares a payload length of 59 for this
// frame even though the payload is 60 bytes (network id, channel
// id, 56-byte bitmap); the declared value is what the device
// checksums and expects, so it is preserved as-is.
//
//	[0]     0x02        sentinel
//	[1-2]   0x4023      command (big-endian)
//	[3]     0x3B        declared payload length
//	[4-5]   network id  (big-endian)
//	[6-7]   channel id  (big-endian)
//	[8-63]  schedule bitmap (56 bytes)
//	[64]    checksum
type ScheduleRequest struct {
	NetworkID uint16
	ChannelID uint16
	Schedule  [ScheduleSize]byte
}

const schedulePayloadLength = 59

func NewScheduleRequest(networkID, channelID uint16) *ScheduleRequest {
	return &ScheduleRequest{NetworkID: networkID, ChannelID: channelID}
}

// SetAlwaysOn loads the canned bitmap that keeps the socket
// permanently on.
func (r *ScheduleRequest) SetAlwaysOn() {
	r.Schedule = cannedSchedule(scheduleMarkerOn)
}

// SetAlwaysOff loads the canned bitmap that keeps the socket
// permanently off.
func (r *ScheduleRequest) SetAlwaysOff() {
	r.Schedule = cannedSchedule(scheduleMarkerOff)
}

func cannedSchedule(marker byte) [ScheduleSize]byte {
	var s [ScheduleSize]byte
	for i := range s {
		s[i] = 0x7F
	}
	s[scheduleMarkerIndex] = marker
	return s
}

func (r *ScheduleRequest) Command() uint16 { return CmdSchedule }

func (r *ScheduleRequest) payload() []byte {
	p := binary.BigEndian.AppendUint16(nil, r.NetworkID)
	p = binary.BigEndian.AppendUint16(p, r.ChannelID)
	return append(p, r.Schedule[:]...)
}

func (r *ScheduleRequest) Encode() []byte {
	return encodeFrame(CmdSchedule, schedulePayloadLength, r.payload())
}
