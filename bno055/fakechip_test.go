package bno055

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"go.viam.com/rdk/components/board/genericlinux/buses"
	"go.viam.com/rdk/logging"
	"go.viam.com/test"
)

// busOp is one transaction seen by fakeChip: a write of an offset (plus data), or a read of
// data from the register pointer.
type busOp struct {
	write  bool
	page   Page
	offset byte
	data   []byte
}

// fakeChip is a register file behaving like a BNO055 on the bus: two pages switched by PAGE_ID,
// an auto-incrementing register pointer, and a log of every transaction.
type fakeChip struct {
	mu      sync.Mutex
	address byte
	regs    [2][256]byte
	page    Page
	pointer byte
	ops     []busOp

	// shortBy drops this many bytes off the end of every read response.
	shortBy int
}

func newFakeChip() *fakeChip {
	c := &fakeChip{address: defaultAddress}
	c.regs[0][0x00] = expectedChipID
	c.regs[0][0x01] = 0xFB
	c.regs[0][0x02] = 0x32
	c.regs[0][0x03] = 0x0F
	c.regs[0][0x04] = 0x11
	c.regs[0][0x05] = 0x03
	c.regs[0][0x06] = 0x15
	c.regs[0][0x41] = 0x24
	return c
}

func (c *fakeChip) OpenHandle(addr byte) (buses.I2CHandle, error) {
	if addr != c.address {
		return nil, errors.Errorf("no device at address %d", addr)
	}
	return &fakeHandle{chip: c}, nil
}

func (c *fakeChip) set(page Page, offset, value byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.regs[page][offset] = value
}

func (c *fakeChip) get(page Page, offset byte) byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.regs[page][offset]
}

func (c *fakeChip) setInt16s(offset byte, values ...int16) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, v := range values {
		putInt16LE(c.regs[0][int(offset)+2*i:], v)
	}
}

func (c *fakeChip) takeOps() []busOp {
	c.mu.Lock()
	defer c.mu.Unlock()
	ops := c.ops
	c.ops = nil
	return ops
}

func (c *fakeChip) setShortBy(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shortBy = n
}

type fakeHandle struct {
	chip *fakeChip
}

func (h *fakeHandle) Write(ctx context.Context, tx []byte) error {
	c := h.chip
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(tx) == 0 {
		return errors.New("empty write")
	}
	c.ops = append(c.ops, busOp{write: true, page: c.page, offset: tx[0], data: append([]byte(nil), tx[1:]...)})
	c.pointer = tx[0]
	for _, b := range tx[1:] {
		if c.pointer == RegPageID.Offset() {
			c.page = Page(b & 0x01)
			c.regs[0][c.pointer] = b
			c.regs[1][c.pointer] = b
		} else {
			c.regs[c.page][c.pointer] = b
		}
		c.pointer++
	}
	return nil
}

func (h *fakeHandle) Read(ctx context.Context, count int) ([]byte, error) {
	c := h.chip
	c.mu.Lock()
	defer c.mu.Unlock()
	n := count - c.shortBy
	if n < 0 {
		n = 0
	}
	out := make([]byte, n)
	start := c.pointer
	for i := range out {
		out[i] = c.regs[c.page][c.pointer]
		c.pointer++
	}
	c.ops = append(c.ops, busOp{page: c.page, offset: start, data: append([]byte(nil), out...)})
	return out, nil
}

func (h *fakeHandle) ReadByteData(ctx context.Context, register byte) (byte, error) {
	return 0, errors.New("not used by the driver")
}

func (h *fakeHandle) WriteByteData(ctx context.Context, register, data byte) error {
	return errors.New("not used by the driver")
}

func (h *fakeHandle) ReadBlockData(ctx context.Context, register byte, numBytes uint8) ([]byte, error) {
	return nil, errors.New("not used by the driver")
}

func (h *fakeHandle) WriteBlockData(ctx context.Context, register byte, data []byte) error {
	return errors.New("not used by the driver")
}

func (h *fakeHandle) Close() error {
	return nil
}

// sleepRecorder stands in for the settling waits.
type sleepRecorder struct {
	waits []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.waits = append(s.waits, d)
	return nil
}

// newTestDevice returns a probed Device on a fake chip that starts out in mode, with the probe's
// transactions already discarded.
func newTestDevice(t *testing.T, mode OperationMode) (*Device, *fakeChip, *sleepRecorder) {
	t.Helper()
	chip := newFakeChip()
	chip.set(Page0, RegOprMode.Offset(), byte(mode))
	d := NewDevice(chip, defaultAddress, logging.NewTestLogger(t))
	rec := &sleepRecorder{}
	d.sleep = rec.sleep
	_, err := d.Probe(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, d.Mode(), test.ShouldEqual, mode)
	chip.takeOps()
	return d, chip, rec
}

func pageWrite(from, to Page) busOp {
	return busOp{write: true, page: from, offset: RegPageID.Offset(), data: []byte{byte(to)}}
}

// checkPage1Visit asserts ops selects page 1, stays there, and goes back to page 0 at the end.
func checkPage1Visit(t *testing.T, ops []busOp) {
	t.Helper()
	test.That(t, len(ops), test.ShouldBeGreaterThanOrEqualTo, 3)
	test.That(t, ops[0], test.ShouldResemble, pageWrite(Page0, Page1))
	for _, op := range ops[1 : len(ops)-1] {
		test.That(t, op.page, test.ShouldEqual, Page1)
		test.That(t, op.offset, test.ShouldNotEqual, RegPageID.Offset())
	}
	test.That(t, ops[len(ops)-1], test.ShouldResemble, pageWrite(Page1, Page0))
}
