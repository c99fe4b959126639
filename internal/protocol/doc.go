// Package protocol implements the binary serial protocol spoken by
// the USB radio dongle that fronts a mesh of smart power sockets.
//
// # Frame format
//
// Every message travels in one frame:
//
//	[0]    0x02      sentinel byte
//	[1-2]  command   16-bit command code (big-endian)
//	[3]    length    declared payload length
//	[4+]   payload   message-specific bytes
//	[N]    checksum  XOR of bytes 1..N-1
//
// The checksum XOR-folds the command word, the length byte and the
// payload; the sentinel and the checksum itself are excluded. The
// frame header fields are big-endian, but several payload subfields
// (timestamps, packed sample words, the stored-sample count) are
// little-endian. The mixed endianness is part of the wire contract
// and is preserved exactly per field.
//
// # Message catalog
//
// The command set is closed: boot and boot-confirm, network lock and
// unlock (same command code, distinguished by a magic constant),
// network handshake, clock sync, sample retrieval, schedule writes
// and the unsolicited broadcast a device sends while the network is
// unlocked. Decode dispatches on the command code and returns one of
// the typed messages in this package; an unrecognized code is an
// explicit error, never a silent pass-through.
//
// # Usage
//
// Requests are built from their semantic parameters and serialized
// with Encode:
//
//	req := protocol.NewSamplesRequest(0x0010, 1)
//	port.Transmit(req.Encode())
//
// Inbound bytes are parsed with Decode, which reports via
// ErrIncomplete when more bytes are needed:
//
//	msg, n, err := protocol.Decode(buf)
//	if errors.Is(err, protocol.ErrIncomplete) {
//	    // read more bytes and retry
//	}
//
// Checksum verification on decode is mandatory; a frame whose
// trailing byte disagrees with the recomputed checksum is rejected
// with ErrChecksumMismatch.
package protocol
