package bno055

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang/geo/r3"
	geo "github.com/kellydunn/golang-geo"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/rdk/components/board/genericlinux/buses"
	"go.viam.com/rdk/components/movementsensor"
	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/resource"
	"go.viam.com/rdk/spatialmath"
	goutils "go.viam.com/utils"
)

// Model for viam supported bosch-sensortec bno055 movement sensor.
var Model = resource.NewModel("viam", "bosch-sensortec", "bno055")

const (
	defaultAddress   = 0x28
	alternateAddress = 0x29

	defaultMode            = "ndof"
	defaultPollFrequencyHz = 100.0
)

// Config is used to configure the attributes of the chip.
type Config struct {
	I2cBus                 string              `json:"i2c_bus"`
	UseAlternateI2CAddress bool                `json:"use_alt_i2c_address,omitempty"`
	Mode                   string              `json:"mode,omitempty"`
	UseExternalCrystal     bool                `json:"use_external_crystal,omitempty"`
	PollFrequencyHz        float64             `json:"poll_frequency_hz,omitempty"`
	CalibrationProfile     *CalibrationProfile `json:"calibration_profile,omitempty"`
}

// Validate ensures all parts of the config are valid, and then returns the list of things we
// depend on.
func (conf *Config) Validate(path string) ([]string, error) {
	if conf.I2cBus == "" {
		return nil, resource.NewConfigValidationFieldRequiredError(path, "i2c_bus")
	}
	if _, err := conf.operationMode(); err != nil {
		return nil, resource.NewConfigValidationError(path, err)
	}
	if conf.PollFrequencyHz < 0 {
		return nil, resource.NewConfigValidationError(path, errors.New("poll_frequency_hz cannot be negative"))
	}

	var deps []string
	return deps, nil
}

func (conf *Config) operationMode() (OperationMode, error) {
	name := conf.Mode
	if name == "" {
		name = defaultMode
	}
	mode, err := ParseOperationMode(name)
	if err != nil {
		return 0, err
	}
	if mode == ConfigMode {
		return 0, errors.New("mode cannot be config: the chip produces no data in it")
	}
	return mode, nil
}

func (conf *Config) pollInterval() time.Duration {
	hz := conf.PollFrequencyHz
	if hz == 0 {
		hz = defaultPollFrequencyHz
	}
	return time.Duration(float64(time.Second) / hz)
}

func init() {
	resource.RegisterComponent(movementsensor.API, Model, resource.Registration[movementsensor.MovementSensor, *Config]{
		Constructor: newBno055,
	})
}

// sample is one poll's worth of data. Fields the mode does not produce stay zero.
type sample struct {
	acceleration       r3.Vector
	magneticField      r3.Vector
	angularVelocity    spatialmath.AngularVelocity
	linearAcceleration r3.Vector
	gravity            r3.Vector
	quaternion         Quaternion
	euler              EulerAngles
	temperature        float64
	calibration        CalibrationStatus
}

type bno055 struct {
	resource.Named
	resource.AlwaysRebuild

	// deviceMu serializes access to the chip between the poller, DoCommand and Close.
	deviceMu sync.Mutex
	device   *Device
	mode     OperationMode

	// mu guards the latest sample.
	mu     sync.Mutex
	latest sample
	// Stores the most recent error from the background goroutine
	err movementsensor.LastError

	workers *goutils.StoppableWorkers
	logger  logging.Logger
}

func addressReadError(err error, address byte, bus string) error {
	msg := fmt.Sprintf("can't read from I2C address %d on bus %s", address, bus)
	return errors.Wrap(err, msg)
}

func unexpectedDeviceError(address byte, rev Revision) error {
	return errors.Errorf("unexpected non-BNO055 device at address %d: chip id 0x%02x", address, rev.ChipID)
}

// This function is separated from newBno055 solely so you can inject a mock I2C bus in tests.
func makeBno055(
	ctx context.Context,
	_ resource.Dependencies,
	conf resource.Config,
	logger logging.Logger,
	bus buses.I2C,
) (movementsensor.MovementSensor, error) {
	newConf, err := resource.NativeConfig[*Config](conf)
	if err != nil {
		return nil, err
	}
	mode, err := newConf.operationMode()
	if err != nil {
		return nil, err
	}

	var address byte
	if newConf.UseAlternateI2CAddress {
		address = alternateAddress
	} else {
		address = defaultAddress
	}
	logger.CDebugf(ctx, "Using address %d for BNO055 sensor", address)

	sensor := &bno055{
		Named:  conf.ResourceName().AsNamed(),
		device: NewDevice(bus, address, logger),
		mode:   mode,
		logger: logger,
		// On overloaded boards, the I2C bus can become flaky. Only report errors if at least 5 of
		// the last 10 attempts to talk to the device have failed.
		err: movementsensor.NewLastError(10, 5),
	}

	rev, err := sensor.device.Probe(ctx)
	if err != nil {
		if rev.ChipID != 0 && rev.ChipID != expectedChipID {
			return nil, unexpectedDeviceError(address, rev)
		}
		return nil, addressReadError(err, address, newConf.I2cBus)
	}

	if err := sensor.configure(ctx, newConf); err != nil {
		return nil, errors.Wrap(err, "unable to configure BNO055")
	}

	interval := newConf.pollInterval()
	sensor.workers = goutils.NewBackgroundStoppableWorkers(func(cancelCtx context.Context) {
		timer := time.NewTicker(interval)
		defer timer.Stop()

		for {
			select {
			case <-timer.C:
				latest, err := sensor.poll(cancelCtx)
				// Record `err` no matter what: even if it's nil, that's useful information.
				sensor.err.Set(err)
				if err != nil {
					sensor.logger.CErrorf(cancelCtx, "error reading BNO055 sensor: '%s'", err)
					continue
				}

				sensor.mu.Lock()
				sensor.latest = latest
				sensor.mu.Unlock()
			case <-cancelCtx.Done():
				return
			}
		}
	})

	return sensor, nil
}

// configure brings the chip from whatever state it was left in to the configured mode, with
// normal power, SI units and any saved calibration restored.
func (s *bno055) configure(ctx context.Context, conf *Config) error {
	s.deviceMu.Lock()
	defer s.deviceMu.Unlock()

	d := s.device
	if err := d.SetOperationMode(ctx, ConfigMode); err != nil {
		return err
	}
	if err := d.SetPowerMode(ctx, PowerNormal); err != nil {
		return err
	}
	if err := d.SetUnitSelection(ctx, UnitSelection{}); err != nil {
		return err
	}
	if err := d.SetExternalCrystal(ctx, conf.UseExternalCrystal); err != nil {
		return err
	}
	switch {
	case conf.CalibrationProfile == nil:
	case conf.CalibrationProfile.AccelRadius == 0 || conf.CalibrationProfile.MagRadius == 0:
		// A calibrated chip never reports a zero radius.
		s.logger.CWarnf(ctx, "not restoring calibration_profile %+v: its radii are not set", *conf.CalibrationProfile)
	default:
		if err := d.WriteCalibrationProfile(ctx, *conf.CalibrationProfile); err != nil {
			return err
		}
		s.logger.CDebugf(ctx, "restored calibration profile %+v", *conf.CalibrationProfile)
	}
	return d.SetOperationMode(ctx, s.mode)
}

// poll reads everything the current mode produces.
func (s *bno055) poll(ctx context.Context) (sample, error) {
	s.deviceMu.Lock()
	defer s.deviceMu.Unlock()

	var r sample
	var err error
	d := s.device
	if d.Mode() == NDOF || d.Mode() == NDOFFMCOff {
		burst, err := d.ReadBurst(ctx)
		if err != nil {
			return sample{}, err
		}
		r.acceleration = burst.Acceleration
		r.magneticField = burst.MagneticField
		r.angularVelocity = burst.AngularVelocity
		r.linearAcceleration = burst.LinearAcceleration
		r.gravity = burst.Gravity
		r.quaternion = burst.Quaternion
		r.euler = burst.Euler
	} else {
		if err := s.pollEach(ctx, &r); err != nil {
			return sample{}, err
		}
	}
	if r.temperature, err = d.ReadTemperature(ctx); err != nil {
		return sample{}, err
	}
	if r.calibration, err = d.ReadCalibrationStatus(ctx); err != nil {
		return sample{}, err
	}
	return r, nil
}

// pollEach reads the blocks a partial mode produces one at a time.
func (s *bno055) pollEach(ctx context.Context, r *sample) error {
	d := s.device
	var err error
	if d.Mode().produces(outAccel) {
		if r.acceleration, err = d.ReadAcceleration(ctx); err != nil {
			return err
		}
	}
	if d.Mode().produces(outMag) {
		if r.magneticField, err = d.ReadMagneticField(ctx); err != nil {
			return err
		}
	}
	if d.Mode().produces(outGyro) {
		if r.angularVelocity, err = d.ReadAngularVelocity(ctx); err != nil {
			return err
		}
	}
	if d.Mode().IsFusion() {
		if r.linearAcceleration, err = d.ReadLinearAcceleration(ctx); err != nil {
			return err
		}
		if r.gravity, err = d.ReadGravityVector(ctx); err != nil {
			return err
		}
		if r.quaternion, err = d.ReadQuaternion(ctx); err != nil {
			return err
		}
		if r.euler, err = d.ReadEulerAngles(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *bno055) AngularVelocity(ctx context.Context, extra map[string]interface{}) (spatialmath.AngularVelocity, error) {
	if !s.mode.produces(outGyro) {
		return spatialmath.AngularVelocity{}, movementsensor.ErrMethodUnimplementedAngularVelocity
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest.angularVelocity, s.err.Get()
}

func (s *bno055) LinearVelocity(ctx context.Context, extra map[string]interface{}) (r3.Vector, error) {
	return r3.Vector{}, movementsensor.ErrMethodUnimplementedLinearVelocity
}

// LinearAcceleration is gravity-free when the chip is fusing, and the raw accelerometer otherwise.
func (s *bno055) LinearAcceleration(ctx context.Context, extra map[string]interface{}) (r3.Vector, error) {
	if !s.mode.produces(outAccel) {
		return r3.Vector{}, movementsensor.ErrMethodUnimplementedLinearAcceleration
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	lastError := s.err.Get()
	if lastError != nil {
		return r3.Vector{}, lastError
	}
	if s.mode.IsFusion() {
		return s.latest.linearAcceleration, nil
	}
	return s.latest.acceleration, nil
}

func (s *bno055) Orientation(ctx context.Context, extra map[string]interface{}) (spatialmath.Orientation, error) {
	if !s.mode.IsFusion() {
		return spatialmath.NewOrientationVector(), movementsensor.ErrMethodUnimplementedOrientation
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest.quaternion.Orientation(), s.err.Get()
}

func (s *bno055) CompassHeading(ctx context.Context, extra map[string]interface{}) (float64, error) {
	if !s.mode.IsAbsolute() {
		return 0, movementsensor.ErrMethodUnimplementedCompassHeading
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest.euler.Heading, s.err.Get()
}

func (s *bno055) Position(ctx context.Context, extra map[string]interface{}) (*geo.Point, float64, error) {
	return geo.NewPoint(0, 0), 0, movementsensor.ErrMethodUnimplementedPosition
}

func (s *bno055) Accuracy(ctx context.Context, extra map[string]interface{}) (*movementsensor.Accuracy, error) {
	return movementsensor.UnimplementedOptionalAccuracies(), nil
}

func (s *bno055) Readings(ctx context.Context, extra map[string]interface{}) (map[string]interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	latest := s.latest
	readings := make(map[string]interface{})
	if s.mode.produces(outAccel) {
		readings["acceleration"] = latest.acceleration
	}
	if s.mode.produces(outMag) {
		readings["magnetic_field_microtesla"] = latest.magneticField
	}
	if s.mode.produces(outGyro) {
		readings["angular_velocity"] = latest.angularVelocity
	}
	if s.mode.IsFusion() {
		readings["linear_acceleration"] = latest.linearAcceleration
		readings["gravity"] = latest.gravity
		readings["orientation"] = latest.quaternion.Orientation()
		readings["euler_degrees"] = map[string]interface{}{
			"heading": latest.euler.Heading,
			"roll":    latest.euler.Roll,
			"pitch":   latest.euler.Pitch,
		}
	} else if s.mode.produces(outAccel) {
		readings["linear_acceleration"] = latest.acceleration
	}
	if s.mode.IsAbsolute() {
		readings["compass"] = latest.euler.Heading
	}
	readings["temperature_celsius"] = latest.temperature
	readings["calibration"] = latest.calibration.toMap()

	return readings, s.err.Get()
}

func (s *bno055) Properties(ctx context.Context, extra map[string]interface{}) (*movementsensor.Properties, error) {
	return &movementsensor.Properties{
		AngularVelocitySupported:    s.mode.produces(outGyro),
		LinearAccelerationSupported: s.mode.produces(outAccel),
		OrientationSupported:        s.mode.IsFusion(),
		CompassHeadingSupported:     s.mode.IsAbsolute(),
	}, nil
}

// DoCommand supports "calibration_status", "system_status" and "calibration_profile". The last
// one briefly drops the chip into CONFIGMODE, where the offsets can be read, and returns them in
// the shape the calibration_profile attribute takes.
func (s *bno055) DoCommand(ctx context.Context, cmd map[string]interface{}) (map[string]interface{}, error) {
	s.deviceMu.Lock()
	defer s.deviceMu.Unlock()

	resp := make(map[string]interface{})
	if _, ok := cmd["calibration_status"]; ok {
		status, err := s.device.ReadCalibrationStatus(ctx)
		if err != nil {
			return nil, err
		}
		resp["calibration_status"] = status.toMap()
		resp["fully_calibrated"] = status.FullyCalibrated()
	}
	if _, ok := cmd["system_status"]; ok {
		status, err := s.device.ReadSystemStatus(ctx)
		if err != nil {
			return nil, err
		}
		resp["system_status"] = map[string]interface{}{
			"state": status.State.String(),
			"error": status.Error.String(),
			"self_test": map[string]interface{}{
				"accel": status.SelfTest.Accel,
				"mag":   status.SelfTest.Mag,
				"gyro":  status.SelfTest.Gyro,
				"mcu":   status.SelfTest.MCU,
			},
		}
	}
	if _, ok := cmd["calibration_profile"]; ok {
		profile, err := s.readCalibrationProfile(ctx)
		if err != nil {
			return nil, err
		}
		resp["calibration_profile"] = profile.toMap()
	}
	if len(resp) == 0 {
		return nil, errors.Errorf("unknown command %v", cmd)
	}
	return resp, nil
}

func (s *bno055) readCalibrationProfile(ctx context.Context) (profile CalibrationProfile, err error) {
	// The configured mode is restored even if ctx is done, or the poller would be stuck in CONFIGMODE.
	defer func() {
		err = multierr.Combine(err, s.device.SetOperationMode(context.WithoutCancel(ctx), s.mode))
	}()
	if err := s.device.SetOperationMode(ctx, ConfigMode); err != nil {
		return CalibrationProfile{}, err
	}
	return s.device.ReadCalibrationProfile(ctx)
}

func (s *bno055) Close(ctx context.Context) error {
	s.workers.Stop()

	s.deviceMu.Lock()
	defer s.deviceMu.Unlock()
	err := s.device.SetPowerMode(ctx, PowerSuspend)
	if err != nil {
		s.logger.CError(ctx, err)
	}
	return err
}
