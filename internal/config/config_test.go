package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
	"vehicle-dynamics/internal/physics"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_DefaultValues(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "./logs", cfg.LogsDir)
	assert.Equal(t, 50.0, cfg.TickRate)
	assert.Equal(t, 20*time.Millisecond, cfg.TickDuration())
	assert.Equal(t, "D", cfg.Autopilot.Gear)
	assert.False(t, cfg.Telemetry.Influx.Enabled)
	assert.Equal(t, "http://localhost:8086", cfg.Telemetry.Influx.URL)
	assert.Equal(t, uint(500), cfg.Telemetry.Influx.BatchSize)
	assert.Equal(t, mgl64.Vec3{1, 0.25, 2}, cfg.HalfExtents())

	tuning, err := cfg.Tuning()
	require.NoError(t, err)
	want := physics.DefaultTuning()
	assert.Equal(t, want.GearRatios, tuning.GearRatios)
	assert.Equal(t, want.GripCurve.Keys, tuning.GripCurve.Keys)
	assert.Equal(t, want.MaxRPM, tuning.MaxRPM)
	assert.Equal(t, want.ReverseGear, tuning.ReverseGear)
	assert.True(t, tuning.EnableSuspension)
	assert.NoError(t, tuning.Validate())

	wheels, err := cfg.WheelSpecs()
	require.NoError(t, err)
	require.Len(t, wheels, 4)
	assert.Equal(t, physics.RoleSteer, wheels[0].Roles)
	assert.Equal(t, physics.RoleMotor, wheels[3].Roles)
	assert.Equal(t, mgl64.Vec3{0.8, -0.3, -1.5}, wheels[3].Mount)
}

func TestLoad_JSONOverridesDefaults(t *testing.T) {
	path := writeConfig(t, "vehicle.json", `{
		"logLevel": "debug",
		"tickRate": 100,
		"vehicle": {
			"maxRPM": 6,
			"gearRatios": [1.5, 2.5],
			"gripCurve": {
				"interpolation": "cubic",
				"keys": [{"slip": 0, "grip": 1}, {"slip": 0.5, "grip": 0.6}, {"slip": 1, "grip": 0.2}]
			},
			"wheels": [
				{"name": "front", "position": [0, -0.2, 1], "steer": true, "motor": true},
				{"position": [0, -0.2, -1]}
			]
		}
	}`)
	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 10*time.Millisecond, cfg.TickDuration())

	tuning, err := cfg.Tuning()
	require.NoError(t, err)
	assert.Equal(t, 6.0, tuning.MaxRPM)
	assert.Equal(t, 2.0, tuning.MinRPM, "untouched keys keep defaults")
	assert.Equal(t, []float64{1.5, 2.5}, tuning.GearRatios)
	assert.Equal(t, physics.InterpolateCubic, tuning.GripCurve.Interpolation)
	assert.InDelta(t, 0.6, tuning.GripCurve.Evaluate(0.5), 1e-9)

	wheels, err := cfg.WheelSpecs()
	require.NoError(t, err)
	require.Len(t, wheels, 2)
	assert.Equal(t, physics.RoleSteer|physics.RoleMotor, wheels[0].Roles)
	assert.Equal(t, "wheel-1", wheels[1].Name)
	assert.Equal(t, physics.Role(0), wheels[1].Roles)
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, "vehicle.yaml", `
logLevel: warn
vehicle:
  accelerationForce: 25
  enableSteering: false
telemetry:
  every: 5
  influx:
    enabled: true
    bucket: runs
`)
	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 25.0, cfg.Vehicle.AccelerationForce)
	assert.False(t, cfg.Vehicle.EnableSteering)
	assert.True(t, cfg.Vehicle.EnableDrivetrain)
	assert.Equal(t, 5, cfg.Telemetry.Every)
	assert.True(t, cfg.Telemetry.Influx.Enabled)
	assert.Equal(t, "runs", cfg.Telemetry.Influx.Bucket)
	assert.Equal(t, "vehicle-dynamics", cfg.Telemetry.Influx.Org)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "vehicle.json", `{"logLevel": "debug"}`)
	t.Setenv("VEHICLE_LOGLEVEL", "error")
	t.Setenv("VEHICLE_VEHICLE_MAXRPM", "7.5")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel)
	assert.Equal(t, 7.5, cfg.Vehicle.MaxRPM)
}

func TestLoad_ChangedFlagsWin(t *testing.T) {
	flags := pflag.NewFlagSet("sim", pflag.ContinueOnError)
	flags.Int("ticks", 10, "")
	flags.String("logLevel", "info", "")
	require.NoError(t, flags.Parse([]string{"--ticks=42"}))

	path := writeConfig(t, "vehicle.json", `{"ticks": 7, "logLevel": "debug"}`)
	cfg, err := Load(path, flags)
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.Ticks)
	assert.Equal(t, "debug", cfg.LogLevel, "unchanged flag does not override the file")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoad_InvalidHostSettings(t *testing.T) {
	path := writeConfig(t, "vehicle.json", `{
		"tickRate": 0,
		"body": {"halfExtents": [1, 2]},
		"vehicle": {"wheels": [{"name": "bad", "position": [1, 2]}]}
	}`)
	_, err := Load(path, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTickRate)
	assert.ErrorIs(t, err, ErrHalfExtents)
	assert.ErrorIs(t, err, ErrWheelPosition)
}

func TestConfig_TuningErrors(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	cfg.Vehicle.GripCurve.Interpolation = "bezier"
	_, err = cfg.Tuning()
	assert.ErrorIs(t, err, physics.ErrGripCurve)

	cfg.Vehicle.GripCurve.Interpolation = "cubic"
	cfg.Vehicle.GripCurve.Keys = cfg.Vehicle.GripCurve.Keys[:2]
	_, err = cfg.Tuning()
	assert.ErrorIs(t, err, physics.ErrGripCurve)
}

func TestConfig_WheelSpecsRejectsShortPosition(t *testing.T) {
	cfg := &Config{Vehicle: VehicleConfig{Wheels: []WheelConfig{{Name: "x", Position: []float64{1}}}}}
	_, err := cfg.WheelSpecs()
	assert.ErrorIs(t, err, ErrWheelPosition)
}

func TestConfig_AutopilotGear(t *testing.T) {
	cfg := &Config{Autopilot: AutopilotConfig{Gear: "reverse"}}
	g, err := cfg.AutopilotGear()
	require.NoError(t, err)
	assert.Equal(t, physics.Reverse, g)

	cfg.Autopilot.Gear = "X"
	_, err = cfg.AutopilotGear()
	assert.Error(t, err)
}
