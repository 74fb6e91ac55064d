// Package bno055 implements a driver for the Bosch BNO055 absolute orientation sensor, and a
// movementsensor built on top of it. A datasheet for this chip is at
// https://www.bosch-sensortec.com/media/boschsensortec/downloads/datasheets/bst-bno055-ds000.pdf
//
// The chip has an accelerometer, a magnetometer and a gyroscope, plus a microcontroller running
// a fusion algorithm that turns their readings into an absolute orientation. Everything is read
// through a register map split over two pages; the driver keeps track of the active page,
// operation mode, power mode and output units so it can select pages on its own and refuse
// reads and writes that the chip would silently ignore.
//
// The chip has two possible I2C addresses, which can be selected by wiring the COM3 pin to
// either ground or hot:
//   - if COM3 is wired to ground, it uses the default I2C address of 0x28
//   - if COM3 is wired to hot, it uses the alternate I2C address of 0x29
package bno055

import (
	"context"
	"time"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/rdk/components/board/genericlinux/buses"
	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/spatialmath"
	goutils "go.viam.com/utils"
)

// ErrWrongMode is returned for operations the chip would ignore or answer with stale data in
// its current operation or power mode.
var ErrWrongMode = errors.New("BNO055 is in the wrong mode")

// The data blocks of page 0, with the outputs a mode must produce for them to be live.
type quantity struct {
	name   string
	reg    Register
	length int
	needs  outputs
}

var (
	accelData       = quantity{"acceleration", RegAccDataXLSB, 6, outAccel}
	magData         = quantity{"magnetic field", RegMagDataXLSB, 6, outMag}
	gyroData        = quantity{"angular velocity", RegGyrDataXLSB, 6, outGyro}
	eulerData       = quantity{"euler angles", RegEulHeadingLSB, 6, outFusion}
	quaternionData  = quantity{"quaternion", RegQuaDataWLSB, 8, outFusion}
	linearAccelData = quantity{"linear acceleration", RegLiaDataXLSB, 6, outFusion}
	gravityData     = quantity{"gravity", RegGrvDataXLSB, 6, outFusion}
	temperatureData = quantity{"temperature", RegTemp, 1, 0}
)

// Device is a BNO055 on an I2C bus. It caches the chip's page, operation mode, power mode and
// unit selection, and is not safe for concurrent use.
type Device struct {
	i2c    i2cDevice
	logger logging.Logger

	page  Page
	mode  OperationMode
	power PowerMode
	units UnitSelection

	// sleep waits out the chip's settling times.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewDevice returns a Device for the chip at address. It does not touch the bus; call Probe to
// check the chip is there and pick up the state it is in.
func NewDevice(bus buses.I2C, address byte, logger logging.Logger) *Device {
	return &Device{
		i2c:    i2cDevice{bus: bus, address: address},
		logger: logger,
		page:   pageUnknown,
		mode:   ConfigMode,
		power:  PowerNormal,
		sleep:  sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	if !goutils.SelectContextOrWait(ctx, d) {
		return ctx.Err()
	}
	return nil
}

// Address is the I2C address of the chip.
func (d *Device) Address() byte {
	return d.i2c.address
}

// Mode is the operation mode the driver last put the chip in.
func (d *Device) Mode() OperationMode {
	return d.mode
}

// PowerMode is the power mode the driver last put the chip in.
func (d *Device) PowerMode() PowerMode {
	return d.power
}

// Units is the unit selection the readings are scaled with.
func (d *Device) Units() UnitSelection {
	return d.units
}

// selectPage writes PAGE_ID unless the chip is already known to be on p.
func (d *Device) selectPage(ctx context.Context, p Page) error {
	if p == pageAny || d.page == p {
		return nil
	}
	if err := d.i2c.writeRegister(ctx, RegPageID.Offset(), byte(p)); err != nil {
		d.page = pageUnknown
		return errors.Wrapf(err, "selecting %s", p)
	}
	d.page = p
	d.logger.CDebugf(ctx, "BNO055 switched to %s", p)
	return nil
}

// onPage runs fn with p selected. Page 1 is only ever visited: page 0 is restored afterwards.
func (d *Device) onPage(ctx context.Context, p Page, fn func() error) (err error) {
	if err := d.selectPage(ctx, p); err != nil {
		return err
	}
	if p != Page1 {
		return fn()
	}
	defer func() {
		err = multierr.Combine(err, d.selectPage(ctx, Page0))
	}()
	return fn()
}

func (d *Device) read(ctx context.Context, reg Register) (byte, error) {
	var value byte
	err := d.onPage(ctx, reg.Page(), func() error {
		var err error
		value, err = d.i2c.readRegister(ctx, reg.Offset())
		return err
	})
	if err != nil {
		return 0, errors.Wrapf(err, "reading %s", reg)
	}
	return value, nil
}

func (d *Device) readBlock(ctx context.Context, reg Register, out []byte) error {
	err := d.onPage(ctx, reg.Page(), func() error {
		_, err := d.i2c.readRegisters(ctx, out, reg.Offset())
		return err
	})
	if err != nil {
		return errors.Wrapf(err, "reading %d bytes from %s", len(out), reg)
	}
	return nil
}

type registerWrite struct {
	reg   Register
	value byte
}

func (d *Device) checkWritable(reg Register) error {
	if !reg.valid() {
		return errors.Errorf("invalid register %d", uint8(reg))
	}
	if !reg.info().anyMode && d.mode != ConfigMode {
		return errors.Wrapf(ErrWrongMode, "%s can only be written in %s mode, chip is in %s mode",
			reg, ConfigMode, d.mode)
	}
	return nil
}

// writeAll checks every write against the current mode before issuing any of them, then
// writes them in order on a single page visit.
func (d *Device) writeAll(ctx context.Context, writes ...registerWrite) error {
	if len(writes) == 0 {
		return nil
	}
	page := writes[0].reg.Page()
	for _, w := range writes {
		if err := d.checkWritable(w.reg); err != nil {
			return err
		}
		if w.reg.Page() != page {
			return errors.Errorf("cannot write %s and %s in one go: they are on different pages", writes[0].reg, w.reg)
		}
	}
	return d.onPage(ctx, page, func() error {
		for _, w := range writes {
			if err := d.i2c.writeRegister(ctx, w.reg.Offset(), w.value); err != nil {
				return errors.Wrapf(err, "writing %s", w.reg)
			}
		}
		return nil
	})
}

func (d *Device) requireConfigMode(what string) error {
	if d.mode != ConfigMode {
		return errors.Wrapf(ErrWrongMode, "%s needs %s mode, chip is in %s mode", what, ConfigMode, d.mode)
	}
	return nil
}

// ReadRegister reads any register by name, selecting its page first. No mode checks are made.
func (d *Device) ReadRegister(ctx context.Context, reg Register) (byte, error) {
	if !reg.valid() {
		return 0, errors.Errorf("invalid register %d", uint8(reg))
	}
	return d.read(ctx, reg)
}

// WriteRegister writes any register by name, selecting its page first. Registers that only take
// effect in CONFIGMODE are refused in the other modes. Registers whose value the driver caches
// must go through their setters.
func (d *Device) WriteRegister(ctx context.Context, reg Register, value byte) error {
	switch reg {
	case RegPageID, RegOprMode, RegPwrMode, RegUnitSel, RegSysTrigger:
		return errors.Errorf("%s is managed by the driver, use its setter", reg)
	default:
	}
	return d.writeAll(ctx, registerWrite{reg, value})
}

// ReadRevision reads the chip, sensor, software and bootloader ids.
func (d *Device) ReadRevision(ctx context.Context) (Revision, error) {
	data := make([]byte, 7)
	if err := d.readBlock(ctx, RegChipID, data); err != nil {
		return Revision{}, err
	}
	return decodeRevision(data), nil
}

// Probe checks that a BNO055 answers at the device's address and loads the operation mode,
// power mode and unit selection the chip is currently in.
func (d *Device) Probe(ctx context.Context) (Revision, error) {
	rev, err := d.ReadRevision(ctx)
	if err != nil {
		return Revision{}, err
	}
	if rev.ChipID != expectedChipID {
		return rev, errors.Errorf("unexpected chip id 0x%02x at address 0x%02x, expected 0x%02x",
			rev.ChipID, d.i2c.address, expectedChipID)
	}

	mode, err := d.read(ctx, RegOprMode)
	if err != nil {
		return rev, err
	}
	power, err := d.read(ctx, RegPwrMode)
	if err != nil {
		return rev, err
	}
	units, err := d.read(ctx, RegUnitSel)
	if err != nil {
		return rev, err
	}
	d.mode = OperationMode(mode & 0x0F)
	if !d.mode.valid() {
		// Treated as CONFIGMODE: data reads are refused until a valid mode is written.
		d.logger.CWarnf(ctx, "BNO055 reports reserved operation mode 0x%02x, treating it as %s", mode, ConfigMode)
		d.mode = ConfigMode
	}
	d.power = PowerMode(power & 0x03)
	d.units = decodeUnitSelection(units)
	d.logger.CDebugf(ctx, "found BNO055 (%s) in %s mode, %s power", rev, d.mode, d.power)
	return rev, nil
}

// SetOperationMode switches the operation mode and waits until the chip has settled in it.
func (d *Device) SetOperationMode(ctx context.Context, mode OperationMode) error {
	if !mode.valid() {
		return errors.Errorf("invalid operation mode %d", uint8(mode))
	}
	from := d.mode
	if err := d.writeAll(ctx, registerWrite{RegOprMode, byte(mode)}); err != nil {
		return errors.Wrapf(err, "setting operation mode %s", mode)
	}
	d.mode = mode
	d.logger.CDebugf(ctx, "BNO055 operation mode %s -> %s", from, mode)
	return d.sleep(ctx, settleDelay(from, mode))
}

// SetPowerMode switches the power mode. While suspended no register is updated, so data reads
// are refused until the power mode changes again.
func (d *Device) SetPowerMode(ctx context.Context, mode PowerMode) error {
	if !mode.valid() {
		return errors.Errorf("invalid power mode %d", uint8(mode))
	}
	if err := d.writeAll(ctx, registerWrite{RegPwrMode, byte(mode)}); err != nil {
		return errors.Wrapf(err, "setting power mode %s", mode)
	}
	d.power = mode
	return nil
}

// SetTemperatureSource picks which sensor's die temperature TEMP reports. CONFIGMODE only.
func (d *Device) SetTemperatureSource(ctx context.Context, source TemperatureSource) error {
	if source > TemperatureFromGyro {
		return errors.Errorf("invalid temperature source %d", uint8(source))
	}
	return d.writeAll(ctx, registerWrite{RegTempSource, byte(source)})
}

// SetAxisMapping remaps the sensor axes. CONFIGMODE only.
func (d *Device) SetAxisMapping(ctx context.Context, mapping AxisMapping) error {
	if err := mapping.validate(); err != nil {
		return err
	}
	config, sign := mapping.encode()
	return d.writeAll(ctx,
		registerWrite{RegAxisMapConfig, config},
		registerWrite{RegAxisMapSign, sign},
	)
}

// ReadAxisMapping reads the current axis remap.
func (d *Device) ReadAxisMapping(ctx context.Context) (AxisMapping, error) {
	data := make([]byte, 2)
	if err := d.readBlock(ctx, RegAxisMapConfig, data); err != nil {
		return AxisMapping{}, err
	}
	return decodeAxisMapping(data[0], data[1]), nil
}

// SetUnitSelection picks the units readings come out in. CONFIGMODE only.
func (d *Device) SetUnitSelection(ctx context.Context, units UnitSelection) error {
	if err := d.writeAll(ctx, registerWrite{RegUnitSel, units.encode()}); err != nil {
		return err
	}
	d.units = units
	return nil
}

// ReadUnitSelection reads UNIT_SEL and scales subsequent readings with it.
func (d *Device) ReadUnitSelection(ctx context.Context) (UnitSelection, error) {
	b, err := d.read(ctx, RegUnitSel)
	if err != nil {
		return UnitSelection{}, err
	}
	d.units = decodeUnitSelection(b)
	return d.units, nil
}

// SetExternalCrystal switches the chip to (or off) an external 32kHz crystal. CONFIGMODE only.
func (d *Device) SetExternalCrystal(ctx context.Context, external bool) error {
	if err := d.requireConfigMode("selecting the clock source"); err != nil {
		return err
	}
	var value byte
	if external {
		value = sysTriggerExtClkBit
	}
	return d.writeAll(ctx, registerWrite{RegSysTrigger, value})
}

// Reset triggers a system reset and waits for the chip to boot. Afterwards the chip is in
// CONFIGMODE with normal power and default units.
func (d *Device) Reset(ctx context.Context) error {
	if err := d.writeAll(ctx, registerWrite{RegSysTrigger, sysTriggerResetBit}); err != nil {
		return errors.Wrap(err, "resetting BNO055")
	}
	d.page = pageUnknown
	d.mode = ConfigMode
	d.power = PowerNormal
	d.units = UnitSelection{}
	return d.sleep(ctx, resetDelay)
}

// ReadSystemStatus reads the system status, system error and self-test result registers.
func (d *Device) ReadSystemStatus(ctx context.Context) (SystemStatus, error) {
	state, err := d.read(ctx, RegSysStatus)
	if err != nil {
		return SystemStatus{}, err
	}
	sysErr, err := d.read(ctx, RegSysErr)
	if err != nil {
		return SystemStatus{}, err
	}
	selfTest, err := d.read(ctx, RegStResult)
	if err != nil {
		return SystemStatus{}, err
	}
	return SystemStatus{
		State:    SystemState(state),
		Error:    SystemError(sysErr),
		SelfTest: decodeSelfTest(selfTest),
	}, nil
}

// ReadCalibrationProfile reads the sensor offsets and radii. The chip only reports them in
// CONFIGMODE.
func (d *Device) ReadCalibrationProfile(ctx context.Context) (CalibrationProfile, error) {
	if err := d.requireConfigMode("reading the calibration profile"); err != nil {
		return CalibrationProfile{}, err
	}
	data := make([]byte, calibrationProfileLength)
	if err := d.readBlock(ctx, RegAccOffsetXLSB, data); err != nil {
		return CalibrationProfile{}, err
	}
	return decodeCalibrationProfile(data), nil
}

// WriteCalibrationProfile restores offsets and radii saved from an earlier
// ReadCalibrationProfile. CONFIGMODE only.
func (d *Device) WriteCalibrationProfile(ctx context.Context, profile CalibrationProfile) error {
	data := profile.encode()
	writes := make([]registerWrite, len(data))
	for i, b := range data {
		writes[i] = registerWrite{RegAccOffsetXLSB + Register(i), b}
	}
	return d.writeAll(ctx, writes...)
}

// ReadAccelConfig reads the page 1 accelerometer configuration.
func (d *Device) ReadAccelConfig(ctx context.Context) (AccelConfig, error) {
	b, err := d.read(ctx, RegAccConfig)
	if err != nil {
		return AccelConfig{}, err
	}
	return decodeAccelConfig(b), nil
}

// SetAccelConfig writes the page 1 accelerometer configuration. CONFIGMODE only.
func (d *Device) SetAccelConfig(ctx context.Context, config AccelConfig) error {
	b, err := config.encode()
	if err != nil {
		return err
	}
	return d.writeAll(ctx, registerWrite{RegAccConfig, b})
}

// ReadGyroConfig reads the page 1 gyroscope configuration.
func (d *Device) ReadGyroConfig(ctx context.Context) (GyroConfig, error) {
	data := make([]byte, 2)
	if err := d.readBlock(ctx, RegGyrConfig0, data); err != nil {
		return GyroConfig{}, err
	}
	return decodeGyroConfig(data[0], data[1]), nil
}

// SetGyroConfig writes the page 1 gyroscope configuration. CONFIGMODE only.
func (d *Device) SetGyroConfig(ctx context.Context, config GyroConfig) error {
	config0, config1, err := config.encode()
	if err != nil {
		return err
	}
	return d.writeAll(ctx,
		registerWrite{RegGyrConfig0, config0},
		registerWrite{RegGyrConfig1, config1},
	)
}

// ReadUniqueID reads the chip's 16 byte unique id from page 1.
func (d *Device) ReadUniqueID(ctx context.Context) ([]byte, error) {
	id := make([]byte, uniqueIDLength)
	if err := d.readBlock(ctx, RegUniqueID, id); err != nil {
		return nil, err
	}
	return id, nil
}

// readQuantity burst-reads one data block after checking the chip is producing it.
func (d *Device) readQuantity(ctx context.Context, q quantity) ([]byte, error) {
	if d.power == PowerSuspend {
		return nil, errors.Wrapf(ErrWrongMode, "%s is frozen while the chip is suspended", q.name)
	}
	if d.mode == ConfigMode || !d.mode.produces(q.needs) {
		return nil, errors.Wrapf(ErrWrongMode, "%s is not produced in %s mode", q.name, d.mode)
	}
	data := make([]byte, q.length)
	if err := d.readBlock(ctx, q.reg, data); err != nil {
		return nil, err
	}
	return data, nil
}

// ReadAcceleration returns the accelerometer reading, gravity included, in m/s² (or mg).
func (d *Device) ReadAcceleration(ctx context.Context) (r3.Vector, error) {
	data, err := d.readQuantity(ctx, accelData)
	if err != nil {
		return r3.Vector{}, err
	}
	return decodeVector(data).scale(d.units.accelLSB()), nil
}

// ReadMagneticField returns the magnetometer reading in µT.
func (d *Device) ReadMagneticField(ctx context.Context) (r3.Vector, error) {
	data, err := d.readQuantity(ctx, magData)
	if err != nil {
		return r3.Vector{}, err
	}
	return decodeVector(data).scale(magMicroTeslaLSB), nil
}

// ReadAngularVelocity returns the gyroscope reading in °/s (or rad/s).
func (d *Device) ReadAngularVelocity(ctx context.Context) (spatialmath.AngularVelocity, error) {
	data, err := d.readQuantity(ctx, gyroData)
	if err != nil {
		return spatialmath.AngularVelocity{}, err
	}
	return spatialmath.AngularVelocity(decodeVector(data).scale(d.units.gyroLSB())), nil
}

// ReadLinearAcceleration returns the fused acceleration with gravity removed.
func (d *Device) ReadLinearAcceleration(ctx context.Context) (r3.Vector, error) {
	data, err := d.readQuantity(ctx, linearAccelData)
	if err != nil {
		return r3.Vector{}, err
	}
	return decodeVector(data).scale(d.units.accelLSB()), nil
}

// ReadGravityVector returns the fused gravity vector.
func (d *Device) ReadGravityVector(ctx context.Context) (r3.Vector, error) {
	data, err := d.readQuantity(ctx, gravityData)
	if err != nil {
		return r3.Vector{}, err
	}
	return decodeVector(data).scale(d.units.accelLSB()), nil
}

// ReadEulerAngles returns the fused orientation in degrees (or radians).
func (d *Device) ReadEulerAngles(ctx context.Context) (EulerAngles, error) {
	data, err := d.readQuantity(ctx, eulerData)
	if err != nil {
		return EulerAngles{}, err
	}
	return decodeEuler(data, d.units.eulerLSB()), nil
}

// ReadQuaternion returns the fused orientation as a quaternion.
func (d *Device) ReadQuaternion(ctx context.Context) (Quaternion, error) {
	data, err := d.readQuantity(ctx, quaternionData)
	if err != nil {
		return Quaternion{}, err
	}
	return decodeQuaternion(data), nil
}

// ReadTemperature returns the temperature in °C (or °F).
func (d *Device) ReadTemperature(ctx context.Context) (float64, error) {
	data, err := d.readQuantity(ctx, temperatureData)
	if err != nil {
		return 0, err
	}
	return float64(int8(data[0])) / d.units.temperatureLSB(), nil
}

// ReadCalibrationStatus returns the calibration counters. It works in every mode.
func (d *Device) ReadCalibrationStatus(ctx context.Context) (CalibrationStatus, error) {
	data := make([]byte, 1)
	if err := d.readBlock(ctx, RegCalibStat, data); err != nil {
		return CalibrationStatus{}, err
	}
	return decodeCalibrationStatus(data[0]), nil
}

// ReadBurst reads every vector output, in the same order and with the same transactions as
// calling the individual accessors one after another. Only NDOF and NDOF_FMC_OFF produce every
// output.
func (d *Device) ReadBurst(ctx context.Context) (Burst, error) {
	var b Burst
	var err error
	if b.Acceleration, err = d.ReadAcceleration(ctx); err != nil {
		return Burst{}, err
	}
	if b.MagneticField, err = d.ReadMagneticField(ctx); err != nil {
		return Burst{}, err
	}
	if b.AngularVelocity, err = d.ReadAngularVelocity(ctx); err != nil {
		return Burst{}, err
	}
	if b.LinearAcceleration, err = d.ReadLinearAcceleration(ctx); err != nil {
		return Burst{}, err
	}
	if b.Gravity, err = d.ReadGravityVector(ctx); err != nil {
		return Burst{}, err
	}
	if b.Quaternion, err = d.ReadQuaternion(ctx); err != nil {
		return Burst{}, err
	}
	if b.Euler, err = d.ReadEulerAngles(ctx); err != nil {
		return Burst{}, err
	}
	return b, nil
}
