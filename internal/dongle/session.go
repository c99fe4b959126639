package dongle

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/hacklet/internal/logging"
	"github.com/muurk/hacklet/internal/protocol"
)

// Transport is the byte-stream link to the dongle. Receive blocks
// until exactly n bytes are available. The session owns the
// transport exclusively for its entire lifetime.
type Transport interface {
	Transmit(data []byte) error
	Receive(n int) ([]byte, error)
	Close() error
}

// Clock abstracts wall-clock time so the commission deadline and the
// clock-sync timestamp are testable without real waits.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// ErrUnexpectedResponse signals a reply whose command code does not
// match the code expected for the outstanding request.
var ErrUnexpectedResponse = errors.New("unexpected response")

// DefaultCommissionTimeout bounds how long Commission listens for a
// device announce before giving up.
const DefaultCommissionTimeout = 30 * time.Second

// Session drives the ordered request/response transactions against
// one dongle. All transactions are synchronous and one-in-flight: a
// new request is never sent before the prior response frame has been
// fully consumed.
type Session struct {
	transport Transport
	clock     Clock
}

// Option configures a Session at open time.
type Option func(*Session)

// WithClock substitutes the time source. Used by tests.
func WithClock(c Clock) Option {
	return func(s *Session) { s.clock = c }
}

// Open takes ownership of the transport and runs the boot handshake:
// boot request, 27-byte boot response, boot confirm, confirm
// response. Failure at either step means the hardware is not usable;
// the transport is closed and the error returned.
func Open(t Transport, opts ...Option) (*Session, error) {
	s := &Session{transport: t, clock: systemClock{}}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.boot(); err != nil {
		_ = t.Close()
		return nil, fmt.Errorf("boot: %w", err)
	}
	return s, nil
}

// Close releases the transport. Safe to defer immediately after a
// successful Open so the hardware handle is released on every path.
func (s *Session) Close() error {
	return s.transport.Close()
}

func (s *Session) boot() error {
	logging.Info("Booting dongle")
	resp, err := s.transact(protocol.NewBootRequest(), 27, protocol.CmdBootResponse)
	if err != nil {
		return err
	}
	boot := resp.(*protocol.BootResponse)
	logging.Info("Dongle identified", zap.Uint64("device_id", boot.DeviceID))

	if _, err := s.transact(protocol.NewBootConfirmRequest(), 6, protocol.CmdBootConfirmResp); err != nil {
		return err
	}
	logging.Info("Boot complete")
	return nil
}

// UnlockNetwork opens the network for new device registrations.
func (s *Session) UnlockNetwork() error {
	logging.Info("Unlocking network")
	_, err := s.transact(protocol.NewUnlockRequest(), 6, protocol.CmdLockResponse)
	return err
}

// LockNetwork closes the network again. Every flow that unlocks must
// end with a lock, including early exits from discovery.
func (s *Session) LockNetwork() error {
	logging.Info("Locking network")
	_, err := s.transact(protocol.NewLockRequest(), 6, protocol.CmdLockResponse)
	return err
}

// SelectNetwork performs the handshake that targets subsequent
// per-socket commands at the given network. Must precede
// SwitchSocket and ReadSamples. Nothing is persisted: every
// invocation re-selects.
func (s *Session) SelectNetwork(networkID uint16) error {
	logging.Debug("Selecting network", zap.String("network", fmt.Sprintf("0x%04x", networkID)))
	_, err := s.transact(protocol.NewHandshakeRequest(networkID), 6, protocol.CmdHandshake)
	return err
}

// SwitchSocket turns one socket permanently on or off by writing the
// matching canned schedule bitmap.
func (s *Session) SwitchSocket(networkID, channelID uint16, on bool) error {
	req := protocol.NewScheduleRequest(networkID, channelID)
	if on {
		req.SetAlwaysOn()
		logging.Info("Turning socket on",
			zap.String("network", fmt.Sprintf("0x%04x", networkID)),
			zap.Uint16("channel", channelID))
	} else {
		req.SetAlwaysOff()
		logging.Info("Turning socket off",
			zap.String("network", fmt.Sprintf("0x%04x", networkID)),
			zap.Uint16("channel", channelID))
	}
	_, err := s.transact(req, 6, protocol.CmdSchedule)
	return err
}

// ReadSamples fetches the stored power samples for one socket. The
// dongle first acks the request with a fixed 6-byte frame, then
// sends the variable-length samples frame.
func (s *Session) ReadSamples(networkID, channelID uint16) (*protocol.SamplesResponse, error) {
	logging.Info("Requesting samples",
		zap.String("network", fmt.Sprintf("0x%04x", networkID)),
		zap.Uint16("channel", channelID))

	if _, err := s.transact(protocol.NewSamplesRequest(networkID, channelID), 6, protocol.CmdSamples); err != nil {
		return nil, err
	}

	frame, err := s.readFrame()
	if err != nil {
		return nil, err
	}
	msg, _, err := protocol.Decode(frame)
	if err != nil {
		return nil, fmt.Errorf("decode samples response: %w", err)
	}
	resp, ok := msg.(*protocol.SamplesResponse)
	if !ok {
		return nil, fmt.Errorf("%w: got %s, expected %s",
			ErrUnexpectedResponse,
			protocol.CommandName(msg.Command()),
			protocol.CommandName(protocol.CmdSamplesResponse))
	}

	logging.Info("Samples received",
		zap.Int("returned", len(resp.Samples)),
		zap.Uint32("remaining", resp.StoredCount))
	return resp, nil
}

// CommissionResult identifies a device discovered during
// commissioning.
type CommissionResult struct {
	NetworkID uint16
	DeviceID  uint64
}

// Commission unlocks the network and listens for a device announce
// until the deadline passes. A device that announces itself is
// recorded and gets a clock sync; hearing nothing before the
// deadline is a normal outcome, not an error, and yields a nil
// result. The network is re-locked on every path out of the loop.
func (s *Session) Commission(timeout time.Duration) (result *CommissionResult, err error) {
	if err = s.UnlockNetwork(); err != nil {
		return nil, err
	}
	defer func() {
		if lockErr := s.LockNetwork(); lockErr != nil && err == nil {
			result = nil
			err = lockErr
		}
	}()

	deadline := s.clock.Now().Add(timeout)
	for s.clock.Now().Before(deadline) {
		logging.Info("Listening for devices")
		frame, ferr := s.readFrame()
		if ferr != nil {
			return nil, ferr
		}

		h, herr := protocol.ParseHeader(frame)
		if herr != nil {
			return nil, herr
		}
		if h.Command != protocol.CmdBroadcast {
			continue
		}

		msg, _, derr := protocol.Decode(frame)
		if derr != nil {
			return nil, fmt.Errorf("decode broadcast: %w", derr)
		}
		announce := msg.(*protocol.BroadcastResponse)
		logging.Info("Found device",
			zap.String("device", fmt.Sprintf("0x%x", announce.DeviceID)),
			zap.String("network", fmt.Sprintf("0x%04x", announce.NetworkID)))
		result = &CommissionResult{NetworkID: announce.NetworkID, DeviceID: announce.DeviceID}
		break
	}

	if result != nil {
		if err = s.updateTime(result.NetworkID); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// updateTime syncs a device's clock to the host's. Sent once after a
// new device is found. The dongle acks immediately and then confirms
// with a full response.
func (s *Session) updateTime(networkID uint16) error {
	logging.Debug("Syncing device clock", zap.String("network", fmt.Sprintf("0x%04x", networkID)))
	epoch := uint32(s.clock.Now().Unix())
	if _, err := s.transact(protocol.NewUpdateTimeRequest(networkID, epoch), 6, protocol.CmdUpdateTime); err != nil {
		return err
	}
	_, err := s.awaitResponse(8, protocol.CmdUpdateTimeResp)
	return err
}

// transact sends one request and waits for its fixed-size response,
// validating that the reply carries the expected command code.
func (s *Session) transact(req protocol.Message, respLen int, want uint16) (protocol.Message, error) {
	if err := s.transport.Transmit(req.Encode()); err != nil {
		return nil, fmt.Errorf("transmit %s: %w", protocol.CommandName(req.Command()), err)
	}
	return s.awaitResponse(respLen, want)
}

// awaitResponse reads exactly n bytes, decodes the frame and checks
// the command code.
func (s *Session) awaitResponse(n int, want uint16) (protocol.Message, error) {
	buf, err := s.transport.Receive(n)
	if err != nil {
		return nil, fmt.Errorf("receive %s: %w", protocol.CommandName(want), err)
	}
	msg, _, err := protocol.Decode(buf)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", protocol.CommandName(want), err)
	}
	if msg.Command() != want {
		return nil, fmt.Errorf("%w: got %s, expected %s",
			ErrUnexpectedResponse,
			protocol.CommandName(msg.Command()),
			protocol.CommandName(want))
	}
	return msg, nil
}

// readFrame reads one length-prefixed frame: the 4-byte fixed header
// first, then the payload and checksum the header's length byte
// declares.
func (s *Session) readFrame() ([]byte, error) {
	head, err := s.transport.Receive(protocol.HeaderSize)
	if err != nil {
		return nil, err
	}
	h, err := protocol.ParseHeader(head)
	if err != nil {
		return nil, err
	}
	rest, err := s.transport.Receive(h.Remaining())
	if err != nil {
		return nil, err
	}
	return append(head, rest...), nil
}
