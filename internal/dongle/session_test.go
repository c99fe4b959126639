package dongle

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/muurk/hacklet/internal/protocol"
)

// fakeTransport feeds canned response bytes to the session and
// records every transmitted frame. Receive hands out exactly n bytes
// from the queued stream, like the real serial transport does.
type fakeTransport struct {
	t         *testing.T
	sent      [][]byte
	stream    []byte
	readErr   error
	failNow   bool
	onReceive func(n int)
	closed    bool
}

func newFakeTransport(t *testing.T) *fakeTransport {
	return &fakeTransport{t: t}
}

func (f *fakeTransport) queue(frames ...[]byte) {
	for _, frame := range frames {
		f.stream = append(f.stream, frame...)
	}
}

func (f *fakeTransport) Transmit(data []byte) error {
	f.sent = append(f.sent, append([]byte(nil), data...))
	return nil
}

func (f *fakeTransport) Receive(n int) ([]byte, error) {
	if f.onReceive != nil {
		f.onReceive(n)
	}
	if f.failNow {
		f.failNow = false
		return nil, f.readErr
	}
	if len(f.stream) < n {
		if f.readErr != nil {
			return nil, f.readErr
		}
		f.t.Fatalf("session asked for %d bytes but only %d are queued", n, len(f.stream))
	}
	out := append([]byte(nil), f.stream[:n]...)
	f.stream = f.stream[n:]
	return out, nil
}

func (f *fakeTransport) Close() error {
	f.closed = true
	return nil
}

// fakeClock advances only when the test says so.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

var testEpoch = time.Unix(1700000000, 0)

func bootResponseFrame() []byte {
	return (&protocol.BootResponse{DeviceID: 0x000000DEADBEEF01, Trailer: 0xA042}).Encode()
}

func bootConfirmFrame() []byte {
	return (&protocol.BootConfirmResponse{Status: 0x10}).Encode()
}

func lockResponseFrame() []byte {
	return (&protocol.LockResponse{}).Encode()
}

// openSession boots a session against the fake transport.
func openSession(t *testing.T, ft *fakeTransport, clk Clock) *Session {
	t.Helper()
	ft.queue(bootResponseFrame(), bootConfirmFrame())
	opts := []Option{}
	if clk != nil {
		opts = append(opts, WithClock(clk))
	}
	s, err := Open(ft, opts...)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return s
}

func TestOpenRunsBootHandshake(t *testing.T) {
	ft := newFakeTransport(t)
	s := openSession(t, ft, nil)

	wantSent := [][]byte{
		protocol.NewBootRequest().Encode(),
		protocol.NewBootConfirmRequest().Encode(),
	}
	if len(ft.sent) != len(wantSent) {
		t.Fatalf("sent %d frames, want %d", len(ft.sent), len(wantSent))
	}
	for i := range wantSent {
		if !bytes.Equal(ft.sent[i], wantSent[i]) {
			t.Errorf("frame %d = % x, want % x", i, ft.sent[i], wantSent[i])
		}
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !ft.closed {
		t.Error("transport was not closed")
	}
}

func TestOpenClosesTransportOnBootFailure(t *testing.T) {
	ft := newFakeTransport(t)
	// 27 bytes arrive, but the frame inside is a lock response, not
	// the boot response the session expects.
	buf := append(lockResponseFrame(), make([]byte, 21)...)
	ft.queue(buf)

	_, err := Open(ft)
	if !errors.Is(err, ErrUnexpectedResponse) {
		t.Fatalf("Open() error = %v, want ErrUnexpectedResponse", err)
	}
	if !ft.closed {
		t.Error("transport must be closed when boot fails")
	}
}

// The switch-on flow must produce exactly the transaction sequence
// lock, handshake, schedule with the always-on bitmap.
func TestSwitchOnTransactionSequence(t *testing.T) {
	ft := newFakeTransport(t)
	s := openSession(t, ft, nil)
	ft.queue(
		lockResponseFrame(),
		(&protocol.HandshakeResponse{}).Encode(),
		(&protocol.ScheduleResponse{}).Encode(),
	)

	if err := s.LockNetwork(); err != nil {
		t.Fatalf("LockNetwork() error = %v", err)
	}
	if err := s.SelectNetwork(0x0010); err != nil {
		t.Fatalf("SelectNetwork() error = %v", err)
	}
	if err := s.SwitchSocket(0x0010, 1, true); err != nil {
		t.Fatalf("SwitchSocket() error = %v", err)
	}

	schedule := protocol.NewScheduleRequest(0x0010, 1)
	schedule.SetAlwaysOn()
	wantSent := [][]byte{
		protocol.NewLockRequest().Encode(),
		protocol.NewHandshakeRequest(0x0010).Encode(),
		schedule.Encode(),
	}

	got := ft.sent[2:] // skip the boot handshake
	if len(got) != len(wantSent) {
		t.Fatalf("sent %d frames after boot, want %d", len(got), len(wantSent))
	}
	for i := range wantSent {
		if !bytes.Equal(got[i], wantSent[i]) {
			t.Errorf("frame %d = % x, want % x", i, got[i], wantSent[i])
		}
	}
}

func TestReadSamples(t *testing.T) {
	ft := newFakeTransport(t)
	s := openSession(t, ft, nil)
	ft.queue(
		(&protocol.AckResponse{}).Encode(),
		(&protocol.SamplesResponse{
			NetworkID:   0x0010,
			ChannelID:   1,
			StoredCount: 5,
			Samples: []protocol.SampleReading{
				{Time: 3, Wattage: 40},
				{Time: 4, Wattage: 42},
			},
		}).Encode(),
	)

	resp, err := s.ReadSamples(0x0010, 1)
	if err != nil {
		t.Fatalf("ReadSamples() error = %v", err)
	}

	want := []protocol.SampleReading{{Time: 3, Wattage: 40}, {Time: 4, Wattage: 42}}
	if len(resp.Samples) != len(want) {
		t.Fatalf("got %d readings, want %d", len(resp.Samples), len(want))
	}
	for i := range want {
		if resp.Samples[i] != want[i] {
			t.Errorf("reading %d = %+v, want %+v", i, resp.Samples[i], want[i])
		}
	}
	if resp.StoredCount != 5 {
		t.Errorf("StoredCount = %d, want 5", resp.StoredCount)
	}
	if len(ft.stream) != 0 {
		t.Errorf("%d unread bytes left in the stream", len(ft.stream))
	}
}

// With no broadcast on the air, the discovery loop must run until
// the deadline (not give up early) and the network must end locked.
func TestCommissionTimesOutWithoutBroadcast(t *testing.T) {
	ft := newFakeTransport(t)
	clk := &fakeClock{now: testEpoch}
	s := openSession(t, ft, clk)

	// Each frame-header read costs 5 simulated seconds, so the 30s
	// deadline admits exactly six reads of non-broadcast chatter.
	ft.onReceive = func(n int) {
		if n == protocol.HeaderSize {
			clk.advance(5 * time.Second)
		}
	}
	ft.queue(lockResponseFrame()) // unlock ack
	for i := 0; i < 6; i++ {
		ft.queue((&protocol.UpdateTimeAck{}).Encode()) // unrelated chatter
	}
	ft.queue(lockResponseFrame()) // final re-lock ack

	result, err := s.Commission(DefaultCommissionTimeout)
	if err != nil {
		t.Fatalf("Commission() error = %v", err)
	}
	if result != nil {
		t.Fatalf("Commission() = %+v, want nil result on timeout", result)
	}

	last := ft.sent[len(ft.sent)-1]
	if !bytes.Equal(last, protocol.NewLockRequest().Encode()) {
		t.Errorf("last frame = % x, want lock request", last)
	}
	if len(ft.stream) != 0 {
		t.Errorf("%d unread bytes left in the stream", len(ft.stream))
	}
}

// A broadcast two seconds in must end the loop immediately, trigger
// a clock sync for the announcing network and still re-lock.
func TestCommissionFindsDevice(t *testing.T) {
	ft := newFakeTransport(t)
	clk := &fakeClock{now: testEpoch}
	s := openSession(t, ft, clk)

	headerReads := 0
	ft.onReceive = func(n int) {
		if n == protocol.HeaderSize {
			headerReads++
			clk.advance(2 * time.Second)
		}
	}
	ft.queue(
		lockResponseFrame(), // unlock ack
		(&protocol.BroadcastResponse{NetworkID: 0x0010, DeviceID: 0xABCD, Flags: 0x01}).Encode(),
		(&protocol.UpdateTimeAck{}).Encode(),
		(&protocol.UpdateTimeResponse{NetworkID: 0x0010}).Encode(),
		lockResponseFrame(), // final re-lock ack
	)

	result, err := s.Commission(DefaultCommissionTimeout)
	if err != nil {
		t.Fatalf("Commission() error = %v", err)
	}
	if result == nil {
		t.Fatal("Commission() returned nil result, want a discovered device")
	}
	if result.NetworkID != 0x0010 {
		t.Errorf("NetworkID = 0x%04x, want 0x0010", result.NetworkID)
	}
	if result.DeviceID != 0xABCD {
		t.Errorf("DeviceID = 0x%x, want 0xabcd", result.DeviceID)
	}
	if headerReads != 1 {
		t.Errorf("read %d frames before exiting, want 1", headerReads)
	}

	// The clock sync must target the announced network and carry the
	// simulated time at which the device was found.
	wantUpdate := protocol.NewUpdateTimeRequest(0x0010, uint32(testEpoch.Add(2*time.Second).Unix())).Encode()
	update := ft.sent[len(ft.sent)-2]
	if !bytes.Equal(update, wantUpdate) {
		t.Errorf("update time frame = % x, want % x", update, wantUpdate)
	}

	last := ft.sent[len(ft.sent)-1]
	if !bytes.Equal(last, protocol.NewLockRequest().Encode()) {
		t.Errorf("last frame = % x, want lock request", last)
	}
	if len(ft.stream) != 0 {
		t.Errorf("%d unread bytes left in the stream", len(ft.stream))
	}
}

// Even when discovery dies on a transport error, the deferred
// re-lock must still run.
func TestCommissionRelocksOnReadFailure(t *testing.T) {
	ft := newFakeTransport(t)
	clk := &fakeClock{now: testEpoch}
	s := openSession(t, ft, clk)

	ft.queue(lockResponseFrame()) // unlock ack
	ft.queue(lockResponseFrame()) // re-lock ack, consumed after the failure
	ft.readErr = errors.New("device yanked")

	// Fail the first frame-header read inside the discovery loop;
	// the unlock and re-lock transactions read 6-byte frames.
	ft.onReceive = func(n int) {
		if n == protocol.HeaderSize {
			ft.failNow = true
		}
	}

	_, err := s.Commission(DefaultCommissionTimeout)
	if err == nil {
		t.Fatal("Commission() error = nil, want transport error")
	}

	last := ft.sent[len(ft.sent)-1]
	if !bytes.Equal(last, protocol.NewLockRequest().Encode()) {
		t.Errorf("last frame = % x, want lock request", last)
	}
}
