package bno055

import (
	"context"
	"testing"
	"time"

	"github.com/golang/geo/r3"
	"go.viam.com/rdk/components/movementsensor"
	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/resource"
	"go.viam.com/rdk/spatialmath"
	"go.viam.com/test"
	"go.viam.com/utils/testutils"
)

func TestValidateConfig(t *testing.T) {
	conf := Config{}
	_, err := conf.Validate("path")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "i2c_bus")

	conf = Config{I2cBus: "1"}
	deps, err := conf.Validate("path")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, deps, test.ShouldBeEmpty)
	mode, err := conf.operationMode()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, mode, test.ShouldEqual, NDOF)
	test.That(t, conf.pollInterval(), test.ShouldEqual, 10*time.Millisecond)

	conf = Config{I2cBus: "1", Mode: "imu", PollFrequencyHz: 20}
	_, err = conf.Validate("path")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, conf.pollInterval(), test.ShouldEqual, 50*time.Millisecond)

	for _, bad := range []Config{
		{I2cBus: "1", Mode: "config"},
		{I2cBus: "1", Mode: "turbo"},
		{I2cBus: "1", PollFrequencyHz: -1},
	} {
		_, err := bad.Validate("path")
		test.That(t, err, test.ShouldNotBeNil)
	}
}

func makeTestSensor(t *testing.T, chip *fakeChip, conf *Config) (movementsensor.MovementSensor, error) {
	t.Helper()
	cfg := resource.Config{
		Name:                "bno",
		API:                 movementsensor.API,
		Model:               Model,
		ConvertedAttributes: conf,
	}
	return makeBno055(context.Background(), nil, cfg, logging.NewTestLogger(t), chip)
}

func TestNDOFSensor(t *testing.T) {
	ctx := context.Background()
	chip := newFakeChip()
	chip.setInt16s(RegAccDataXLSB.Offset(), 0, 0, 981)
	chip.setInt16s(RegMagDataXLSB.Offset(), 320, 0, -640)
	chip.setInt16s(RegGyrDataXLSB.Offset(), 16, 32, 48)
	chip.setInt16s(RegEulHeadingLSB.Offset(), 45*16, 0, 0)
	chip.setInt16s(RegQuaDataWLSB.Offset(), 1<<14, 0, 0, 0)
	chip.setInt16s(RegLiaDataXLSB.Offset(), 100, 0, 0)
	chip.setInt16s(RegGrvDataXLSB.Offset(), 0, 0, 981)
	chip.set(Page0, RegTemp.Offset(), 24)
	chip.set(Page0, RegCalibStat.Offset(), 0xFF)

	profile := CalibrationProfile{MagOffset: [3]int16{-100, 50, 25}, AccelRadius: 1000, MagRadius: 640}
	ms, err := makeTestSensor(t, chip, &Config{I2cBus: "1", CalibrationProfile: &profile})
	test.That(t, err, test.ShouldBeNil)
	defer ms.Close(ctx)

	test.That(t, chip.get(Page0, RegOprMode.Offset()), test.ShouldEqual, byte(NDOF))
	test.That(t, chip.get(Page0, RegPwrMode.Offset()), test.ShouldEqual, byte(PowerNormal))
	test.That(t, chip.get(Page0, RegUnitSel.Offset()), test.ShouldEqual, byte(0))
	test.That(t, chip.get(Page0, RegMagOffsetXLSB.Offset()), test.ShouldEqual, byte(0x9C))

	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		av, err := ms.AngularVelocity(ctx, nil)
		test.That(tb, err, test.ShouldBeNil)
		test.That(tb, av, test.ShouldResemble, spatialmath.AngularVelocity{X: 1, Y: 2, Z: 3})
	})

	la, err := ms.LinearAcceleration(ctx, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, la, test.ShouldResemble, r3.Vector{X: 1})

	o, err := ms.Orientation(ctx, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, o.Quaternion().Real, test.ShouldEqual, 1.0)

	heading, err := ms.CompassHeading(ctx, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, heading, test.ShouldEqual, 45.0)

	_, _, err = ms.Position(ctx, nil)
	test.That(t, err, test.ShouldBeError, movementsensor.ErrMethodUnimplementedPosition)
	_, err = ms.LinearVelocity(ctx, nil)
	test.That(t, err, test.ShouldBeError, movementsensor.ErrMethodUnimplementedLinearVelocity)

	props, err := ms.Properties(ctx, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, props, test.ShouldResemble, &movementsensor.Properties{
		AngularVelocitySupported:    true,
		LinearAccelerationSupported: true,
		OrientationSupported:        true,
		CompassHeadingSupported:     true,
	})

	readings, err := ms.Readings(ctx, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, readings["magnetic_field_microtesla"], test.ShouldResemble, r3.Vector{X: 20, Z: -40})
	test.That(t, readings["gravity"], test.ShouldResemble, r3.Vector{Z: 9.81})
	test.That(t, readings["temperature_celsius"], test.ShouldEqual, 24.0)
	test.That(t, readings["compass"], test.ShouldEqual, 45.0)
	test.That(t, readings["calibration"], test.ShouldResemble, map[string]interface{}{
		"system": 3, "gyro": 3, "accel": 3, "mag": 3,
	})
	for _, key := range []string{"acceleration", "angular_velocity", "linear_acceleration", "orientation", "euler_degrees"} {
		test.That(t, readings, test.ShouldContainKey, key)
	}

	resp, err := ms.DoCommand(ctx, map[string]interface{}{"calibration_status": true, "system_status": true})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, resp["fully_calibrated"], test.ShouldEqual, true)
	test.That(t, resp, test.ShouldContainKey, "system_status")

	resp, err = ms.DoCommand(ctx, map[string]interface{}{"calibration_profile": true})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, resp["calibration_profile"], test.ShouldResemble, profile.toMap())
	test.That(t, chip.get(Page0, RegOprMode.Offset()), test.ShouldEqual, byte(NDOF))

	_, err = ms.DoCommand(ctx, map[string]interface{}{"self_destruct": true})
	test.That(t, err, test.ShouldNotBeNil)

	test.That(t, ms.Close(ctx), test.ShouldBeNil)
	test.That(t, chip.get(Page0, RegPwrMode.Offset()), test.ShouldEqual, byte(PowerSuspend))
}

func TestAMGSensor(t *testing.T) {
	ctx := context.Background()
	chip := newFakeChip()
	chip.setInt16s(RegAccDataXLSB.Offset(), 0, 0, 981)
	chip.setInt16s(RegLiaDataXLSB.Offset(), 100, 0, 0)

	ms, err := makeTestSensor(t, chip, &Config{I2cBus: "1", Mode: "amg", UseExternalCrystal: true})
	test.That(t, err, test.ShouldBeNil)
	defer ms.Close(ctx)

	test.That(t, chip.get(Page0, RegOprMode.Offset()), test.ShouldEqual, byte(AMG))
	test.That(t, chip.get(Page0, RegSysTrigger.Offset()), test.ShouldEqual, byte(0x80))

	// Without fusion, linear acceleration is the raw accelerometer, gravity included.
	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		la, err := ms.LinearAcceleration(ctx, nil)
		test.That(tb, err, test.ShouldBeNil)
		test.That(tb, la.Z, test.ShouldAlmostEqual, 9.81)
	})

	_, err = ms.Orientation(ctx, nil)
	test.That(t, err, test.ShouldBeError, movementsensor.ErrMethodUnimplementedOrientation)
	_, err = ms.CompassHeading(ctx, nil)
	test.That(t, err, test.ShouldBeError, movementsensor.ErrMethodUnimplementedCompassHeading)

	props, err := ms.Properties(ctx, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, props.AngularVelocitySupported, test.ShouldBeTrue)
	test.That(t, props.OrientationSupported, test.ShouldBeFalse)
	test.That(t, props.CompassHeadingSupported, test.ShouldBeFalse)

	readings, err := ms.Readings(ctx, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, readings, test.ShouldNotContainKey, "orientation")
	test.That(t, readings, test.ShouldNotContainKey, "compass")
	test.That(t, readings, test.ShouldContainKey, "magnetic_field_microtesla")
}

func TestAccOnlySensor(t *testing.T) {
	ctx := context.Background()
	chip := newFakeChip()
	ms, err := makeTestSensor(t, chip, &Config{I2cBus: "1", Mode: "acc_only"})
	test.That(t, err, test.ShouldBeNil)
	defer ms.Close(ctx)

	_, err = ms.AngularVelocity(ctx, nil)
	test.That(t, err, test.ShouldBeError, movementsensor.ErrMethodUnimplementedAngularVelocity)
	props, err := ms.Properties(ctx, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, props.LinearAccelerationSupported, test.ShouldBeTrue)
	test.That(t, props.AngularVelocitySupported, test.ShouldBeFalse)
}

func TestMagOnlyReadingsHaveNoAcceleration(t *testing.T) {
	ctx := context.Background()
	chip := newFakeChip()
	chip.setInt16s(RegMagDataXLSB.Offset(), 16, 0, 0)
	ms, err := makeTestSensor(t, chip, &Config{I2cBus: "1", Mode: "mag_only"})
	test.That(t, err, test.ShouldBeNil)
	defer ms.Close(ctx)

	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		readings, err := ms.Readings(ctx, nil)
		test.That(tb, err, test.ShouldBeNil)
		test.That(tb, readings["magnetic_field_microtesla"], test.ShouldResemble, r3.Vector{X: 1})
	})

	readings, err := ms.Readings(ctx, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, readings, test.ShouldNotContainKey, "linear_acceleration")
	test.That(t, readings, test.ShouldNotContainKey, "acceleration")
	_, err = ms.LinearAcceleration(ctx, nil)
	test.That(t, err, test.ShouldBeError, movementsensor.ErrMethodUnimplementedLinearAcceleration)
}

func TestCalibrationProfileCommandRestoresMode(t *testing.T) {
	ctx := context.Background()
	chip := newFakeChip()
	ms, err := makeTestSensor(t, chip, &Config{I2cBus: "1"})
	test.That(t, err, test.ShouldBeNil)
	defer ms.Close(ctx)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = ms.DoCommand(cancelled, map[string]interface{}{"calibration_profile": true})
	test.That(t, err, test.ShouldNotBeNil)

	sensor := ms.(*bno055)
	sensor.deviceMu.Lock()
	mode := sensor.device.Mode()
	sensor.deviceMu.Unlock()
	test.That(t, mode, test.ShouldEqual, NDOF)
	test.That(t, chip.get(Page0, RegOprMode.Offset()), test.ShouldEqual, byte(NDOF))

	_, err = sensor.poll(ctx)
	test.That(t, err, test.ShouldBeNil)
}

func TestSensorConstructionErrors(t *testing.T) {
	chip := newFakeChip()
	chip.set(Page0, RegChipID.Offset(), 0x68)
	_, err := makeTestSensor(t, chip, &Config{I2cBus: "1"})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "unexpected non-BNO055 device")

	chip = newFakeChip()
	_, err = makeTestSensor(t, chip, &Config{I2cBus: "2", UseAlternateI2CAddress: true})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "can't read from I2C address 41 on bus 2")
}
