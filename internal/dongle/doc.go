// Package dongle implements the device session that sequences
// transactions against the USB radio dongle.
//
// A session moves through a fixed lifecycle: Open runs the boot
// handshake (closed → booted), after which the session idles between
// transactions. Lock and unlock transactions guard network
// membership changes; Commission is the only flow that unlocks, and
// it always re-locks before returning, even when it exits early or
// fails. SelectNetwork must precede SwitchSocket and ReadSamples.
// Close releases the transport and ends the lifecycle.
//
// Everything is single-threaded and fully synchronous. Each
// transaction blocks until its response frame is fully received; the
// only bounded wait is the commission discovery loop, which carries
// a wall-clock deadline driven by an injectable Clock.
package dongle
