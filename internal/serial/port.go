package serial

import (
	"fmt"
	"strings"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
	"go.uber.org/zap"

	"github.com/muurk/hacklet/internal/logging"
)

// USB identifiers of the radio dongle (FTDI-based).
const (
	VendorID  = "0403"
	ProductID = "8C81"
)

// Fixed link parameters. The dongle always runs 115200 8N1 with no
// flow control and both handshake lines asserted.
const (
	baudRate  = 115200
	readChunk = 64
)

// pollInterval is the backoff between empty reads so a quiet link is
// not busy-spun.
const pollInterval = 100 * time.Millisecond

// Options configures how the dongle port is opened.
type Options struct {
	// Device overrides USB enumeration with an explicit port path
	// (e.g. /dev/ttyUSB0). Empty means locate the dongle by its
	// vendor/product identifiers.
	Device string
}

// Port is the serial link to the dongle. It buffers inbound bytes so
// Receive can hand out exactly the requested count regardless of how
// the hardware chunks its reads.
type Port struct {
	port serial.Port
	name string
	rx   []byte
}

// Open claims the dongle. The port is located by USB vendor/product
// id unless an explicit device path is given, then configured to the
// dongle's fixed link parameters.
func Open(opts Options) (*Port, error) {
	name := opts.Device
	if name == "" {
		found, err := findDongle()
		if err != nil {
			return nil, err
		}
		name = found
	}

	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}

	// Assert both handshake lines; the dongle firmware waits on them.
	if err := port.SetDTR(true); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("set DTR on %s: %w", name, err)
	}
	if err := port.SetRTS(true); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("set RTS on %s: %w", name, err)
	}

	logging.Info("Opened dongle", zap.String("port", name))
	return &Port{port: port, name: name}, nil
}

// findDongle walks the USB serial ports looking for the dongle's
// vendor/product identifiers.
func findDongle() (string, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return "", fmt.Errorf("enumerate serial ports: %w", err)
	}
	for _, p := range ports {
		if !p.IsUSB {
			continue
		}
		if strings.EqualFold(p.VID, VendorID) && strings.EqualFold(p.PID, ProductID) {
			logging.Debug("Found dongle",
				zap.String("port", p.Name),
				zap.String("vid", p.VID),
				zap.String("pid", p.PID))
			return p.Name, nil
		}
	}
	return "", fmt.Errorf("no dongle found (USB %s:%s)", VendorID, ProductID)
}

// Transmit writes one complete frame to the dongle.
func (p *Port) Transmit(data []byte) error {
	logging.LogRawBytes("TX", data)
	n, err := p.port.Write(data)
	if err != nil {
		return fmt.Errorf("write %s: %w", p.name, err)
	}
	if n != len(data) {
		return fmt.Errorf("write %s: short write (%d of %d bytes)", p.name, n, len(data))
	}
	return nil
}

// Receive blocks until exactly n bytes are available and returns
// them. Reads that return no data back off briefly before retrying.
func (p *Port) Receive(n int) ([]byte, error) {
	for len(p.rx) < n {
		buf := make([]byte, readChunk)
		read, err := p.port.Read(buf)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p.name, err)
		}
		if read == 0 {
			time.Sleep(pollInterval)
			continue
		}
		p.rx = append(p.rx, buf[:read]...)
	}

	out := p.rx[:n]
	p.rx = p.rx[n:]
	logging.LogRawBytes("RX", out)
	return out, nil
}

// Close releases the hardware handle.
func (p *Port) Close() error {
	err := p.port.Close()
	logging.Info("Closed dongle", zap.String("port", p.name))
	return err
}
