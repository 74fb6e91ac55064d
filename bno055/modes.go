package bno055

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

// OperationMode selects which sensors are running and whether the fusion algorithm is active.
type OperationMode uint8

// Operation modes, as written to OPR_MODE.
const (
	// ConfigMode is the power-on default. All outputs read zero and fusion is halted; it is the
	// only mode in which most configuration registers can be written.
	ConfigMode OperationMode = iota
	AccOnly
	MagOnly
	GyroOnly
	AccMag
	AccGyro
	MagGyro
	AMG
	// IMU fuses accelerometer and gyroscope into a relative orientation.
	IMU
	// Compass fuses accelerometer and magnetometer into an absolute heading.
	Compass
	// M4G is like IMU but detects rotation with the magnetometer instead of the gyroscope.
	M4G
	// NDOFFMCOff is NDOF with fast magnetometer calibration turned off.
	NDOFFMCOff
	// NDOF fuses all three sensors into an absolute orientation.
	NDOF

	numOperationModes
)

// outputs is the set of data blocks a mode keeps updating.
type outputs uint8

const (
	outAccel outputs = 1 << iota
	outMag
	outGyro
	outFusion
)

var operationModes = [numOperationModes]struct {
	name    string
	outputs outputs
}{
	ConfigMode: {"config", 0},
	AccOnly:    {"acc_only", outAccel},
	MagOnly:    {"mag_only", outMag},
	GyroOnly:   {"gyro_only", outGyro},
	AccMag:     {"acc_mag", outAccel | outMag},
	AccGyro:    {"acc_gyro", outAccel | outGyro},
	MagGyro:    {"mag_gyro", outMag | outGyro},
	AMG:        {"amg", outAccel | outMag | outGyro},
	IMU:        {"imu", outAccel | outGyro | outFusion},
	Compass:    {"compass", outAccel | outMag | outFusion},
	M4G:        {"m4g", outAccel | outMag | outFusion},
	NDOFFMCOff: {"ndof_fmc_off", outAccel | outMag | outGyro | outFusion},
	NDOF:       {"ndof", outAccel | outMag | outGyro | outFusion},
}

// Settling times from the datasheet's mode switching table.
const (
	fromConfigModeDelay = 7 * time.Millisecond
	toConfigModeDelay   = 19 * time.Millisecond
	resetDelay          = 650 * time.Millisecond
)

// ParseOperationMode turns a mode name such as "ndof" or "acc_gyro" into an OperationMode.
func ParseOperationMode(name string) (OperationMode, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for mode, m := range operationModes {
		if m.name == name {
			return OperationMode(mode), nil
		}
	}
	return 0, errors.Errorf("unknown operation mode %q", name)
}

func (m OperationMode) String() string {
	if !m.valid() {
		return "invalid"
	}
	return operationModes[m].name
}

func (m OperationMode) valid() bool {
	return m < numOperationModes
}

func (m OperationMode) produces(o outputs) bool {
	return m.valid() && operationModes[m].outputs&o == o
}

// HasAccelerometer reports whether the mode keeps the accelerometer data registers updated.
func (m OperationMode) HasAccelerometer() bool {
	return m.produces(outAccel)
}

// HasMagnetometer reports whether the mode keeps the magnetometer data registers updated.
func (m OperationMode) HasMagnetometer() bool {
	return m.produces(outMag)
}

// HasGyroscope reports whether the mode keeps the gyroscope data registers updated.
func (m OperationMode) HasGyroscope() bool {
	return m.produces(outGyro)
}

// IsFusion reports whether the mode runs the fusion algorithm, which is what fills the Euler,
// quaternion, linear acceleration and gravity registers.
func (m OperationMode) IsFusion() bool {
	return m.produces(outFusion)
}

// IsAbsolute reports whether the fused orientation is referenced to magnetic north.
func (m OperationMode) IsAbsolute() bool {
	return m == Compass || m == NDOFFMCOff || m == NDOF
}

// settleDelay is how long the chip needs after switching from one mode to another.
func settleDelay(from, to OperationMode) time.Duration {
	switch {
	case from == to:
		return 0
	case to == ConfigMode:
		return toConfigModeDelay
	default:
		return fromConfigModeDelay
	}
}

// PowerMode controls whether the sensors sleep, independently of the operation mode.
type PowerMode uint8

const (
	// PowerNormal keeps every sensor the operation mode needs switched on.
	PowerNormal PowerMode = iota
	// PowerLow drops to accelerometer-only until motion is detected.
	PowerLow
	// PowerSuspend pauses the chip. No register is updated until the power mode changes.
	PowerSuspend
)

func (p PowerMode) String() string {
	switch p {
	case PowerNormal:
		return "normal"
	case PowerLow:
		return "low_power"
	case PowerSuspend:
		return "suspend"
	default:
		return "invalid"
	}
}

func (p PowerMode) valid() bool {
	return p <= PowerSuspend
}

// TemperatureSource picks the sensor whose die temperature is reported in TEMP.
type TemperatureSource uint8

const (
	TemperatureFromAccel TemperatureSource = iota
	TemperatureFromGyro
)

func (s TemperatureSource) String() string {
	switch s {
	case TemperatureFromAccel:
		return "accelerometer"
	case TemperatureFromGyro:
		return "gyroscope"
	default:
		return "invalid"
	}
}
