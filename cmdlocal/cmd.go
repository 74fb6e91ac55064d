// Package main for testing bno055 locally, without a viam-server
package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.viam.com/rdk/logging"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"bosch-sensortec/bno055"
)

var rootCmd = &cobra.Command{
	Use:   "bno055-local",
	Short: "read a BNO055 directly over I2C",
	Long:  "Puts a BNO055 in the requested operation mode and logs its readings, talking to the bus through periph.io",
	RunE: func(cmd *cobra.Command, args []string) error {
		return realMain(cmd)
	},
}

func main() {
	rootCmd.Flags().String("bus", "", "periph I2C bus name or number, empty for the first one")
	rootCmd.Flags().Bool("alt-address", false, "use the alternate address 0x29 instead of 0x28")
	rootCmd.Flags().String("mode", "ndof", "operation mode to read in")
	rootCmd.Flags().Int("count", 30, "number of readings to take")
	rootCmd.Flags().Duration("interval", time.Second, "time between readings")
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func realMain(cmd *cobra.Command) (err error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	logger := logging.NewLogger("bno055-local")

	busName, _ := cmd.Flags().GetString("bus")
	alt, _ := cmd.Flags().GetBool("alt-address")
	modeName, _ := cmd.Flags().GetString("mode")
	count, _ := cmd.Flags().GetInt("count")
	interval, _ := cmd.Flags().GetDuration("interval")

	mode, err := bno055.ParseOperationMode(modeName)
	if err != nil {
		return err
	}
	if mode == bno055.ConfigMode {
		return errors.New("the chip produces no readings in config mode")
	}

	if _, err := host.Init(); err != nil {
		return errors.Wrap(err, "initializing periph host drivers")
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return errors.Wrapf(err, "opening I2C bus %q", busName)
	}
	defer func() {
		err = multierr.Combine(err, bus.Close())
	}()

	var address byte = 0x28
	if alt {
		address = 0x29
	}
	device := bno055.NewDevice(bno055.NewTxBus(bus), address, logger)
	rev, err := device.Probe(ctx)
	if err != nil {
		return err
	}
	logger.Infof("found %s", rev)

	if err := device.SetOperationMode(ctx, bno055.ConfigMode); err != nil {
		return err
	}
	if err := device.SetPowerMode(ctx, bno055.PowerNormal); err != nil {
		return err
	}
	if err := device.SetOperationMode(ctx, mode); err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, device.SetPowerMode(ctx, bno055.PowerSuspend))
	}()

	for range count {
		if err := logReading(ctx, logger, device); err != nil {
			return err
		}
		time.Sleep(interval)
	}
	return nil
}

func logReading(ctx context.Context, logger logging.Logger, device *bno055.Device) error {
	line, err := describeReading(ctx, device)
	if err != nil {
		return err
	}
	logger.Info(line)
	return nil
}

// describeReading formats one reading of the quantities the current mode produces.
func describeReading(ctx context.Context, device *bno055.Device) (string, error) {
	calib, err := device.ReadCalibrationStatus(ctx)
	if err != nil {
		return "", err
	}
	mode := device.Mode()
	if mode == bno055.NDOF || mode == bno055.NDOFFMCOff {
		b, err := device.ReadBurst(ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("heading %0.2f roll %0.2f pitch %0.2f linear acceleration: %0.2f %0.2f %0.2f angular velocity: %0.2f %0.2f %0.2f calibration %+v",
			b.Euler.Heading, b.Euler.Roll, b.Euler.Pitch,
			b.LinearAcceleration.X, b.LinearAcceleration.Y, b.LinearAcceleration.Z,
			b.AngularVelocity.X, b.AngularVelocity.Y, b.AngularVelocity.Z, calib), nil
	}

	var parts []string
	if mode.HasAccelerometer() {
		acc, err := device.ReadAcceleration(ctx)
		if err != nil {
			return "", err
		}
		parts = append(parts, fmt.Sprintf("acceleration: %0.2f %0.2f %0.2f", acc.X, acc.Y, acc.Z))
	}
	if mode.HasMagnetometer() {
		mag, err := device.ReadMagneticField(ctx)
		if err != nil {
			return "", err
		}
		parts = append(parts, fmt.Sprintf("magnetic field: %0.2f %0.2f %0.2f", mag.X, mag.Y, mag.Z))
	}
	if mode.HasGyroscope() {
		av, err := device.ReadAngularVelocity(ctx)
		if err != nil {
			return "", err
		}
		parts = append(parts, fmt.Sprintf("angular velocity: %0.2f %0.2f %0.2f", av.X, av.Y, av.Z))
	}
	if mode.IsFusion() {
		euler, err := device.ReadEulerAngles(ctx)
		if err != nil {
			return "", err
		}
		parts = append(parts, fmt.Sprintf("heading %0.2f roll %0.2f pitch %0.2f", euler.Heading, euler.Roll, euler.Pitch))
	}
	parts = append(parts, fmt.Sprintf("calibration %+v", calib))
	return strings.Join(parts, " "), nil
}
