package bno055

import (
	"fmt"

	"github.com/golang/geo/r3"
	"go.viam.com/rdk/spatialmath"
	"go.viam.com/rdk/utils"
)

// Fixed resolutions, in LSB per unit.
const (
	accelMetersPerSecond2LSB = 100.0
	accelMilliGLSB           = 1.0
	magMicroTeslaLSB         = 16.0
	gyroDegreesLSB           = 16.0
	gyroRadiansLSB           = 900.0
	eulerDegreesLSB          = 16.0
	eulerRadiansLSB          = 900.0
	quaternionLSB            = 1 << 14
	temperatureCelsiusLSB    = 1.0
	temperatureFahrenheitLSB = 0.5
)

// int16LE reassembles a little endian register pair.
func int16LE(lsb, msb byte) int16 {
	return utils.Int16FromBytesLE([]byte{lsb, msb})
}

// putInt16LE is the inverse of int16LE.
func putInt16LE(b []byte, v int16) {
	b[0] = byte(uint16(v))
	b[1] = byte(uint16(v) >> 8)
}

// rawVector is three consecutive register pairs, straight off the chip.
type rawVector struct {
	X, Y, Z int16
}

func decodeVector(data []byte) rawVector {
	return rawVector{
		X: int16LE(data[0], data[1]),
		Y: int16LE(data[2], data[3]),
		Z: int16LE(data[4], data[5]),
	}
}

// scale divides every component by lsbPerUnit.
func (v rawVector) scale(lsbPerUnit float64) r3.Vector {
	return r3.Vector{
		X: float64(v.X) / lsbPerUnit,
		Y: float64(v.Y) / lsbPerUnit,
		Z: float64(v.Z) / lsbPerUnit,
	}
}

// EulerAngles is the fused orientation in the order the chip reports it.
type EulerAngles struct {
	Heading float64
	Roll    float64
	Pitch   float64
}

func decodeEuler(data []byte, lsbPerUnit float64) EulerAngles {
	v := decodeVector(data).scale(lsbPerUnit)
	return EulerAngles{Heading: v.X, Roll: v.Y, Pitch: v.Z}
}

// Quaternion is the fused orientation as reported by the chip. The chip keeps it close to unit
// norm; it is not renormalised here.
type Quaternion struct {
	W, X, Y, Z float64
}

func decodeQuaternion(data []byte) Quaternion {
	return Quaternion{
		W: float64(int16LE(data[0], data[1])) / quaternionLSB,
		X: float64(int16LE(data[2], data[3])) / quaternionLSB,
		Y: float64(int16LE(data[4], data[5])) / quaternionLSB,
		Z: float64(int16LE(data[6], data[7])) / quaternionLSB,
	}
}

// Orientation converts q for the movement sensor API.
func (q Quaternion) Orientation() spatialmath.Orientation {
	return &spatialmath.Quaternion{Real: q.W, Imag: q.X, Jmag: q.Y, Kmag: q.Z}
}

// CalibrationStatus holds the four calibration counters of CALIB_STAT. Each goes from 0
// (uncalibrated) to 3 (fully calibrated).
type CalibrationStatus struct {
	System uint8
	Gyro   uint8
	Accel  uint8
	Mag    uint8
}

func decodeCalibrationStatus(b byte) CalibrationStatus {
	return CalibrationStatus{
		System: (b >> 6) & 0x03,
		Gyro:   (b >> 4) & 0x03,
		Accel:  (b >> 2) & 0x03,
		Mag:    b & 0x03,
	}
}

// FullyCalibrated reports whether every counter has reached 3.
func (c CalibrationStatus) FullyCalibrated() bool {
	return c.System == 3 && c.Gyro == 3 && c.Accel == 3 && c.Mag == 3
}

func (c CalibrationStatus) toMap() map[string]interface{} {
	return map[string]interface{}{
		"system": int(c.System),
		"gyro":   int(c.Gyro),
		"accel":  int(c.Accel),
		"mag":    int(c.Mag),
	}
}

// Burst is every vector output of the chip, read one block after another. Each block reflects
// the chip at the moment it was read; there is no atomicity across blocks.
type Burst struct {
	Acceleration       r3.Vector
	MagneticField      r3.Vector
	AngularVelocity    spatialmath.AngularVelocity
	LinearAcceleration r3.Vector
	Gravity            r3.Vector
	Quaternion         Quaternion
	Euler              EulerAngles
}

// Revision identifies the chip and its firmware.
type Revision struct {
	ChipID     byte
	AccelID    byte
	MagID      byte
	GyroID     byte
	Software   uint16
	Bootloader byte
}

func decodeRevision(data []byte) Revision {
	return Revision{
		ChipID:     data[0],
		AccelID:    data[1],
		MagID:      data[2],
		GyroID:     data[3],
		Software:   uint16(data[5])<<8 | uint16(data[4]),
		Bootloader: data[6],
	}
}

func (r Revision) String() string {
	return fmt.Sprintf("chip 0x%02x accel 0x%02x mag 0x%02x gyro 0x%02x sw 0x%04x bl 0x%02x",
		r.ChipID, r.AccelID, r.MagID, r.GyroID, r.Software, r.Bootloader)
}

// SystemState is the SYS_STATUS code.
type SystemState uint8

var systemStates = []string{
	"idle",
	"system error",
	"initializing peripherals",
	"system initialization",
	"executing self-test",
	"sensor fusion running",
	"running without fusion",
}

func (s SystemState) String() string {
	if int(s) < len(systemStates) {
		return systemStates[s]
	}
	return fmt.Sprintf("unknown status %d", uint8(s))
}

// SystemError is the SYS_ERR code. It is only meaningful while SystemState reports an error.
type SystemError uint8

var systemErrors = []string{
	"no error",
	"peripheral initialization error",
	"system initialization error",
	"self test result failed",
	"register map value out of range",
	"register map address out of range",
	"register map write error",
	"low power mode not available for selected operation mode",
	"accelerometer power mode not available",
	"fusion algorithm configuration error",
	"sensor configuration error",
}

func (e SystemError) String() string {
	if int(e) < len(systemErrors) {
		return systemErrors[e]
	}
	return fmt.Sprintf("unknown error %d", uint8(e))
}

// SelfTestResult holds the power-on self-test bits of ST_RESULT.
type SelfTestResult struct {
	Accel bool
	Mag   bool
	Gyro  bool
	MCU   bool
}

// SystemStatus is SYS_STATUS, SYS_ERR and ST_RESULT.
type SystemStatus struct {
	State    SystemState
	Error    SystemError
	SelfTest SelfTestResult
}

func decodeSelfTest(b byte) SelfTestResult {
	return SelfTestResult{
		Accel: b&0x01 != 0,
		Mag:   b&0x02 != 0,
		Gyro:  b&0x04 != 0,
		MCU:   b&0x08 != 0,
	}
}

// CalibrationProfile is the offset and radius block the chip computes while calibrating.
// Writing it back after power-up skips most of the calibration dance.
type CalibrationProfile struct {
	AccelOffset [3]int16 `json:"accel_offset"`
	MagOffset   [3]int16 `json:"mag_offset"`
	GyroOffset  [3]int16 `json:"gyro_offset"`
	AccelRadius int16    `json:"accel_radius"`
	MagRadius   int16    `json:"mag_radius"`
}

func decodeCalibrationProfile(data []byte) CalibrationProfile {
	var p CalibrationProfile
	for i := 0; i < 3; i++ {
		p.AccelOffset[i] = int16LE(data[2*i], data[2*i+1])
		p.MagOffset[i] = int16LE(data[6+2*i], data[6+2*i+1])
		p.GyroOffset[i] = int16LE(data[12+2*i], data[12+2*i+1])
	}
	p.AccelRadius = int16LE(data[18], data[19])
	p.MagRadius = int16LE(data[20], data[21])
	return p
}

func (p CalibrationProfile) encode() []byte {
	data := make([]byte, calibrationProfileLength)
	for i := 0; i < 3; i++ {
		putInt16LE(data[2*i:], p.AccelOffset[i])
		putInt16LE(data[6+2*i:], p.MagOffset[i])
		putInt16LE(data[12+2*i:], p.GyroOffset[i])
	}
	putInt16LE(data[18:], p.AccelRadius)
	putInt16LE(data[20:], p.MagRadius)
	return data
}

func (p CalibrationProfile) toMap() map[string]interface{} {
	return map[string]interface{}{
		"accel_offset": []int{int(p.AccelOffset[0]), int(p.AccelOffset[1]), int(p.AccelOffset[2])},
		"mag_offset":   []int{int(p.MagOffset[0]), int(p.MagOffset[1]), int(p.MagOffset[2])},
		"gyro_offset":  []int{int(p.GyroOffset[0]), int(p.GyroOffset[1]), int(p.GyroOffset[2])},
		"accel_radius": int(p.AccelRadius),
		"mag_radius":   int(p.MagRadius),
	}
}
