package tasks

import (
	"errors"
	"fmt"
	"math"

	"github.com/golang/glog"
	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/lsm6ds3tr"

	"github.com/robotalks/tasknet/pkg/task"
)

// Unit conversions of the LSM6DS3TR readings.
const (
	microGToMS2    = 9.80665e-6
	microDPSToRadS = math.Pi / 180 * 1e-6
)

// ErrIMUNotConnected is the fault of an IMU which doesn't answer.
var ErrIMUNotConnected = errors.New("lsm6ds3tr not connected")

// IMU reads acceleration (m/s^2) and rotation rate (rad/s) from a
// LSM6DS3TR. The sensor is configured on the first run; a sensor which
// can't be configured faults the task.
type IMU struct {
	bus        drivers.I2C
	dev        *lsm6ds3tr.Device
	configured bool
	fault      error
	readErrs   int
	last       [6]float32
}

// NewIMU creates an IMU task on bus.
func NewIMU(bus drivers.I2C) *IMU {
	return &IMU{bus: bus}
}

// Dimensions implements task.Task.
func (m *IMU) Dimensions() task.Dimensions {
	return task.Dimensions{Input: 0, Param: 0, Output: 6}
}

// Reset implements task.Task.
func (m *IMU) Reset() {
	m.configured, m.fault, m.dev = false, nil, nil
	m.Clear()
}

// Clear implements task.Task.
func (m *IMU) Clear() {
	m.last = [6]float32{}
	m.readErrs = 0
}

// Setup implements task.Task.
func (m *IMU) Setup([]float32) {}

// Fault implements task.Faulter.
func (m *IMU) Fault() error {
	return m.fault
}

func (m *IMU) configure() {
	m.configured = true
	if m.bus == nil {
		m.fault = ErrIMUNotConnected
		return
	}
	m.dev = lsm6ds3tr.New(m.bus)
	err := m.dev.Configure(lsm6ds3tr.Configuration{
		AccelRange:      lsm6ds3tr.ACCEL_8G,
		AccelSampleRate: lsm6ds3tr.ACCEL_SR_104,
		GyroRange:       lsm6ds3tr.GYRO_1000DPS,
		GyroSampleRate:  lsm6ds3tr.GYRO_SR_104,
	})
	if err != nil {
		m.fault = fmt.Errorf("configure lsm6ds3tr: %w", err)
	} else if !m.dev.Connected() {
		m.fault = ErrIMUNotConnected
	}
	if m.fault != nil {
		glog.Errorf("imu: %v", m.fault)
		return
	}
	glog.Info("lsm6ds3tr initialized")
}

// Run implements task.Task.
func (m *IMU) Run(input, output []float32, dt float64) {
	if !m.configured {
		m.configure()
	}
	if m.fault == nil {
		m.read()
	}
	copy(output, m.last[:])
}

func (m *IMU) read() {
	ax, ay, az, err := m.dev.ReadAcceleration()
	if err == nil {
		var gx, gy, gz int32
		if gx, gy, gz, err = m.dev.ReadRotation(); err == nil {
			m.last = [6]float32{
				float32(float64(ax) * microGToMS2),
				float32(float64(ay) * microGToMS2),
				float32(float64(az) * microGToMS2),
				float32(float64(gx) * microDPSToRadS),
				float32(float64(gy) * microDPSToRadS),
				float32(float64(gz) * microDPSToRadS),
			}
			return
		}
	}
	if m.readErrs++; m.readErrs == 1 || bool(glog.V(2)) {
		glog.Warningf("imu read: %v", err)
	}
}

// Describe implements task.Task.
func (m *IMU) Describe() string {
	if m.fault != nil {
		return fmt.Sprintf("lsm6ds3tr fault: %v", m.fault)
	}
	return fmt.Sprintf("lsm6ds3tr accel=%.2f gyro=%.3f", m.last[:3], m.last[3:])
}
