// Package serial owns the raw USB serial link to the radio dongle.
//
// The dongle enumerates as an FTDI USB serial device. This package
// locates it by vendor/product id, configures the fixed link
// parameters (115200 8N1, no flow control, DTR/RTS asserted) and
// exposes the byte-stream surface the session layer consumes:
// Transmit, Receive and Close. Receive blocks until the requested
// byte count is available, backing off briefly between empty reads.
//
// The hardware handle is held exclusively by one session and must be
// released via Close on every exit path.
package serial
