package bno055

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/rdk/components/board/genericlinux/buses"
)

// ErrIncompleteResponse is returned when the chip delivers fewer bytes than were requested. It
// lets callers tell a dropped transaction apart from a register that really reads zero.
var ErrIncompleteResponse = errors.New("incomplete response from BNO055")

// i2cDevice issues register transactions against one address on a bus. Every call is one
// begin/end pair on the bus and nothing is retried.
type i2cDevice struct {
	bus     buses.I2C
	address byte
}

// readRegister writes the offset and then requests a single byte. If the bus hands back more
// than one byte the last one wins.
func (d *i2cDevice) readRegister(ctx context.Context, offset byte) (value byte, err error) {
	handle, err := d.bus.OpenHandle(d.address)
	if err != nil {
		return 0, err
	}
	defer func() {
		err = multierr.Combine(err, handle.Close())
	}()

	if err := handle.Write(ctx, []byte{offset}); err != nil {
		return 0, err
	}
	response, err := handle.Read(ctx, 1)
	if err != nil {
		return 0, err
	}
	if len(response) == 0 {
		return 0, errors.Wrapf(ErrIncompleteResponse, "register 0x%02x: no data", offset)
	}
	return response[len(response)-1], nil
}

// writeRegister writes the offset followed by the value. The chip does not acknowledge the
// value itself, so a write that the current mode ignores still succeeds here.
func (d *i2cDevice) writeRegister(ctx context.Context, offset, value byte) (err error) {
	handle, err := d.bus.OpenHandle(d.address)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, handle.Close())
	}()

	return handle.Write(ctx, []byte{offset, value})
}

// readRegisters burst-reads len(out) consecutive registers starting at offset. It returns how
// many bytes were delivered. On a short response the rest of out is zeroed and the error wraps
// ErrIncompleteResponse.
func (d *i2cDevice) readRegisters(ctx context.Context, out []byte, offset byte) (n int, err error) {
	if len(out) == 0 {
		return 0, nil
	}
	if len(out) > 0xFF {
		return 0, errors.Errorf("burst of %d bytes is longer than a register page", len(out))
	}
	handle, err := d.bus.OpenHandle(d.address)
	if err != nil {
		return 0, err
	}
	defer func() {
		err = multierr.Combine(err, handle.Close())
	}()

	if err := handle.Write(ctx, []byte{offset}); err != nil {
		zero(out)
		return 0, err
	}
	response, err := handle.Read(ctx, len(out))
	n = copy(out, response)
	zero(out[n:])
	if err != nil {
		return n, err
	}
	if n < len(out) {
		return n, errors.Wrapf(ErrIncompleteResponse, "register 0x%02x: got %d of %d bytes", offset, n, len(out))
	}
	return n, nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
