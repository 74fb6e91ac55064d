package bno055

import "github.com/pkg/errors"

// UnitSelection is the content of UNIT_SEL. The zero value is the chip's default: m/s², °/s,
// degrees, °C and the Windows orientation convention.
type UnitSelection struct {
	AccelMilliG        bool
	AngularRateRadians bool
	EulerRadians       bool
	Fahrenheit         bool
	AndroidOrientation bool
}

func (u UnitSelection) encode() byte {
	var b byte
	if u.AccelMilliG {
		b |= 1 << 0
	}
	if u.AngularRateRadians {
		b |= 1 << 1
	}
	if u.EulerRadians {
		b |= 1 << 2
	}
	if u.Fahrenheit {
		b |= 1 << 4
	}
	if u.AndroidOrientation {
		b |= 1 << 7
	}
	return b
}

func decodeUnitSelection(b byte) UnitSelection {
	return UnitSelection{
		AccelMilliG:        b&(1<<0) != 0,
		AngularRateRadians: b&(1<<1) != 0,
		EulerRadians:       b&(1<<2) != 0,
		Fahrenheit:         b&(1<<4) != 0,
		AndroidOrientation: b&(1<<7) != 0,
	}
}

func (u UnitSelection) accelLSB() float64 {
	if u.AccelMilliG {
		return accelMilliGLSB
	}
	return accelMetersPerSecond2LSB
}

func (u UnitSelection) gyroLSB() float64 {
	if u.AngularRateRadians {
		return gyroRadiansLSB
	}
	return gyroDegreesLSB
}

func (u UnitSelection) eulerLSB() float64 {
	if u.EulerRadians {
		return eulerRadiansLSB
	}
	return eulerDegreesLSB
}

func (u UnitSelection) temperatureLSB() float64 {
	if u.Fahrenheit {
		return temperatureFahrenheitLSB
	}
	return temperatureCelsiusLSB
}

// Axis is a physical sensor axis used in an AxisMapping.
type Axis uint8

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// AxisMapping remaps and flips the sensor axes to match how the chip is mounted. Each output
// axis takes one physical axis; all three must differ.
type AxisMapping struct {
	X, Y, Z             Axis
	FlipX, FlipY, FlipZ bool
}

// DefaultAxisMapping is the chip's reset value (P1 placement).
var DefaultAxisMapping = AxisMapping{X: AxisX, Y: AxisY, Z: AxisZ}

func (m AxisMapping) validate() error {
	for _, a := range []Axis{m.X, m.Y, m.Z} {
		if a > AxisZ {
			return errors.Errorf("invalid axis %d", a)
		}
	}
	if m.X == m.Y || m.Y == m.Z || m.X == m.Z {
		return errors.Errorf("axes must be distinct, got x=%d y=%d z=%d", m.X, m.Y, m.Z)
	}
	return nil
}

// encode returns the AXIS_MAP_CONFIG and AXIS_MAP_SIGN values.
func (m AxisMapping) encode() (config, sign byte) {
	config = byte(m.X) | byte(m.Y)<<2 | byte(m.Z)<<4
	if m.FlipX {
		sign |= 1 << 2
	}
	if m.FlipY {
		sign |= 1 << 1
	}
	if m.FlipZ {
		sign |= 1 << 0
	}
	return config, sign
}

func decodeAxisMapping(config, sign byte) AxisMapping {
	return AxisMapping{
		X:     Axis(config & 0x03),
		Y:     Axis((config >> 2) & 0x03),
		Z:     Axis((config >> 4) & 0x03),
		FlipX: sign&(1<<2) != 0,
		FlipY: sign&(1<<1) != 0,
		FlipZ: sign&(1<<0) != 0,
	}
}

// AccelRange is the accelerometer full scale, ACC_CONFIG bits 1:0.
type AccelRange uint8

const (
	AccelRange2G AccelRange = iota
	AccelRange4G
	AccelRange8G
	AccelRange16G
)

// AccelBandwidth is the accelerometer filter bandwidth, ACC_CONFIG bits 4:2.
type AccelBandwidth uint8

const (
	AccelBandwidth7Hz AccelBandwidth = iota
	AccelBandwidth15Hz
	AccelBandwidth31Hz
	AccelBandwidth62Hz
	AccelBandwidth125Hz
	AccelBandwidth250Hz
	AccelBandwidth500Hz
	AccelBandwidth1000Hz
)

// AccelConfig is the page 1 accelerometer configuration. The fusion modes overwrite it, so it
// only sticks in the non-fusion modes.
type AccelConfig struct {
	Range     AccelRange
	Bandwidth AccelBandwidth
	// PowerMode is the raw accelerometer power mode, 0 (normal) through 5 (deep suspend).
	PowerMode uint8
}

func (c AccelConfig) encode() (byte, error) {
	if c.Range > AccelRange16G || c.Bandwidth > AccelBandwidth1000Hz || c.PowerMode > 5 {
		return 0, errors.Errorf("invalid accelerometer config %+v", c)
	}
	return byte(c.Range) | byte(c.Bandwidth)<<2 | c.PowerMode<<5, nil
}

func decodeAccelConfig(b byte) AccelConfig {
	return AccelConfig{
		Range:     AccelRange(b & 0x03),
		Bandwidth: AccelBandwidth((b >> 2) & 0x07),
		PowerMode: b >> 5,
	}
}

// GyroRange is the gyroscope full scale, GYR_CONFIG_0 bits 2:0.
type GyroRange uint8

const (
	GyroRange2000DPS GyroRange = iota
	GyroRange1000DPS
	GyroRange500DPS
	GyroRange250DPS
	GyroRange125DPS
)

// GyroBandwidth is the gyroscope filter bandwidth, GYR_CONFIG_0 bits 5:3.
type GyroBandwidth uint8

const (
	GyroBandwidth523Hz GyroBandwidth = iota
	GyroBandwidth230Hz
	GyroBandwidth116Hz
	GyroBandwidth47Hz
	GyroBandwidth23Hz
	GyroBandwidth12Hz
	GyroBandwidth64Hz
	GyroBandwidth32Hz
)

// GyroConfig is the page 1 gyroscope configuration.
type GyroConfig struct {
	Range     GyroRange
	Bandwidth GyroBandwidth
	// PowerMode is the raw GYR_CONFIG_1 power mode, 0 (normal) through 4 (advanced powersave).
	PowerMode uint8
}

func (c GyroConfig) encode() (config0, config1 byte, err error) {
	if c.Range > GyroRange125DPS || c.Bandwidth > GyroBandwidth32Hz || c.PowerMode > 4 {
		return 0, 0, errors.Errorf("invalid gyroscope config %+v", c)
	}
	return byte(c.Range) | byte(c.Bandwidth)<<3, c.PowerMode, nil
}

func decodeGyroConfig(config0, config1 byte) GyroConfig {
	return GyroConfig{
		Range:     GyroRange(config0 & 0x07),
		Bandwidth: GyroBandwidth((config0 >> 3) & 0x07),
		PowerMode: config1 & 0x07,
	}
}
