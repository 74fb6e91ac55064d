package bno055

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.viam.com/rdk/components/board/genericlinux/buses"
	"periph.io/x/conn/v3/i2c"
	"tinygo.org/x/drivers"
)

// TxBus is a bus that does one combined write-then-read per call, the shape periph.io and TinyGo
// expose I2C in.
type TxBus interface {
	Tx(addr uint16, w, r []byte) error
}

var (
	_ TxBus = i2c.Bus(nil)
	_ TxBus = drivers.I2C(nil)
)

// NewTxBus adapts a TxBus to buses.I2C so a Device can run on it.
func NewTxBus(bus TxBus) buses.I2C {
	return &txBus{bus: bus}
}

type txBus struct {
	bus TxBus
	mu  sync.Mutex
}

// OpenHandle locks the bus until the handle is closed.
func (b *txBus) OpenHandle(addr byte) (buses.I2CHandle, error) {
	b.mu.Lock()
	return &txHandle{bus: b, addr: uint16(addr)}, nil
}

type txHandle struct {
	bus    *txBus
	addr   uint16
	closed bool
}

func (h *txHandle) tx(ctx context.Context, w, r []byte) error {
	if h.closed {
		return errors.New("i2c handle is closed")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return h.bus.bus.Tx(h.addr, w, r)
}

func (h *txHandle) Write(ctx context.Context, tx []byte) error {
	return h.tx(ctx, tx, nil)
}

func (h *txHandle) Read(ctx context.Context, count int) ([]byte, error) {
	r := make([]byte, count)
	if err := h.tx(ctx, nil, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (h *txHandle) ReadByteData(ctx context.Context, register byte) (byte, error) {
	r := make([]byte, 1)
	if err := h.tx(ctx, []byte{register}, r); err != nil {
		return 0, err
	}
	return r[0], nil
}

func (h *txHandle) WriteByteData(ctx context.Context, register, data byte) error {
	return h.tx(ctx, []byte{register, data}, nil)
}

func (h *txHandle) ReadBlockData(ctx context.Context, register byte, numBytes uint8) ([]byte, error) {
	r := make([]byte, numBytes)
	if err := h.tx(ctx, []byte{register}, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (h *txHandle) WriteBlockData(ctx context.Context, register byte, data []byte) error {
	return h.tx(ctx, append([]byte{register}, data...), nil)
}

func (h *txHandle) Close() error {
	if h.closed {
		return errors.New("i2c handle already closed")
	}
	h.closed = true
	h.bus.mu.Unlock()
	return nil
}
