// Package config loads vehicle tuning and host settings with viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"vehicle-dynamics/internal/physics"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. VEHICLE_LOGLEVEL.
const EnvPrefix = "VEHICLE"

var (
	ErrWheelPosition = errors.New("wheel position needs 3 components")
	ErrTickRate      = errors.New("tick rate must be positive")
	ErrHalfExtents   = errors.New("body half extents need 3 components")
)

// GripKeyConfig is one authored grip curve key.
type GripKeyConfig struct {
	Slip float64 `json:"slip" mapstructure:"slip"`
	Grip float64 `json:"grip" mapstructure:"grip"`
}

// GripCurveConfig holds the tire grip curve.
type GripCurveConfig struct {
	Interpolation string          `json:"interpolation" mapstructure:"interpolation"`
	Keys          []GripKeyConfig `json:"keys" mapstructure:"keys"`
}

// WheelConfig mounts one wheel in body space (X right, Y up, Z forward).
type WheelConfig struct {
	Name     string    `json:"name" mapstructure:"name"`
	Position []float64 `json:"position" mapstructure:"position"`
	Steer    bool      `json:"steer" mapstructure:"steer"`
	Motor    bool      `json:"motor" mapstructure:"motor"`
}

// VehicleConfig is the serialized physics.Tuning plus the wheel layout.
type VehicleConfig struct {
	Name              string          `json:"name" mapstructure:"name"`
	WheelDiameter     float64         `json:"wheelDiameter" mapstructure:"wheelDiameter"`
	GearRatios        []float64       `json:"gearRatios" mapstructure:"gearRatios"`
	MinRPM            float64         `json:"minRPM" mapstructure:"minRPM"`
	MaxRPM            float64         `json:"maxRPM" mapstructure:"maxRPM"`
	ReverseGear       int             `json:"reverseGear" mapstructure:"reverseGear"`
	AccelerationForce float64         `json:"accelerationForce" mapstructure:"accelerationForce"`
	BrakeForce        float64         `json:"brakeForce" mapstructure:"brakeForce"`
	AxialFriction     float64         `json:"axialFriction" mapstructure:"axialFriction"`
	SpringStrength    float64         `json:"springStrength" mapstructure:"springStrength"`
	Damping           float64         `json:"damping" mapstructure:"damping"`
	RestDistance      float64         `json:"restDistance" mapstructure:"restDistance"`
	SteeringStrength  float64         `json:"steeringStrength" mapstructure:"steeringStrength"`
	MaxSteerAngle     float64         `json:"maxSteerAngle" mapstructure:"maxSteerAngle"`
	GripCurve         GripCurveConfig `json:"gripCurve" mapstructure:"gripCurve"`
	EnableSuspension  bool            `json:"enableSuspension" mapstructure:"enableSuspension"`
	EnableSteering    bool            `json:"enableSteering" mapstructure:"enableSteering"`
	EnableDrivetrain  bool            `json:"enableDrivetrain" mapstructure:"enableDrivetrain"`
	ParallelWheels    bool            `json:"parallelWheels" mapstructure:"parallelWheels"`
	Wheels            []WheelConfig   `json:"wheels" mapstructure:"wheels"`
}

// BodyConfig holds the reference rigid body.
type BodyConfig struct {
	Mass        float64   `json:"mass" mapstructure:"mass"`
	HalfExtents []float64 `json:"halfExtents" mapstructure:"halfExtents"`
	Damping     float64   `json:"damping" mapstructure:"damping"`
}

// TerrainConfig selects the ground. An empty heightmap means a flat plane at Height.
type TerrainConfig struct {
	Heightmap string  `json:"heightmap" mapstructure:"heightmap"`
	CellSize  float64 `json:"cellSize" mapstructure:"cellSize"`
	MaxHeight float64 `json:"maxHeight" mapstructure:"maxHeight"`
	Height    float64 `json:"height" mapstructure:"height"`
}

// RouteConfig describes the loop the autopilot drives and where the car spawns.
type RouteConfig struct {
	RadiusX       float64 `json:"radiusX" mapstructure:"radiusX"`
	RadiusZ       float64 `json:"radiusZ" mapstructure:"radiusZ"`
	Samples       int     `json:"samples" mapstructure:"samples"`
	Width         float64 `json:"width" mapstructure:"width"`
	SpawnWaypoint int     `json:"spawnWaypoint" mapstructure:"spawnWaypoint"`
	Clearance     float64 `json:"clearance" mapstructure:"clearance"`
}

// AutopilotConfig holds the headless driver.
type AutopilotConfig struct {
	TargetSpeed float64 `json:"targetSpeed" mapstructure:"targetSpeed"`
	Lookahead   int     `json:"lookahead" mapstructure:"lookahead"`
	Gear        string  `json:"gear" mapstructure:"gear"`
}

// InfluxConfig holds InfluxDB v2 connection settings.
type InfluxConfig struct {
	Enabled       bool   `json:"enabled" mapstructure:"enabled"`
	URL           string `json:"url" mapstructure:"url"`
	Token         string `json:"token" mapstructure:"token"`
	Org           string `json:"org" mapstructure:"org"`
	Bucket        string `json:"bucket" mapstructure:"bucket"`
	BatchSize     uint   `json:"batchSize" mapstructure:"batchSize"`
	FlushInterval uint   `json:"flushInterval" mapstructure:"flushInterval"` // ms
}

// TelemetryConfig controls sampling of tick telemetry.
type TelemetryConfig struct {
	Every  int          `json:"every" mapstructure:"every"`
	Influx InfluxConfig `json:"influx" mapstructure:"influx"`
}

// Config is the whole file.
type Config struct {
	LogLevel  string          `json:"logLevel" mapstructure:"logLevel"`
	LogsDir   string          `json:"logsDir" mapstructure:"logsDir"`
	TickRate  float64         `json:"tickRate" mapstructure:"tickRate"` // Hz
	Ticks     int             `json:"ticks" mapstructure:"ticks"`
	Vehicle   VehicleConfig   `json:"vehicle" mapstructure:"vehicle"`
	Body      BodyConfig      `json:"body" mapstructure:"body"`
	Terrain   TerrainConfig   `json:"terrain" mapstructure:"terrain"`
	Route     RouteConfig     `json:"route" mapstructure:"route"`
	Autopilot AutopilotConfig `json:"autopilot" mapstructure:"autopilot"`
	Telemetry TelemetryConfig `json:"telemetry" mapstructure:"telemetry"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logLevel", "info")
	v.SetDefault("logsDir", "./logs")
	v.SetDefault("tickRate", 50)
	v.SetDefault("ticks", 3000)

	d := physics.DefaultTuning()
	v.SetDefault("vehicle.name", "hatchback")
	v.SetDefault("vehicle.wheelDiameter", d.WheelDiameter)
	v.SetDefault("vehicle.gearRatios", d.GearRatios)
	v.SetDefault("vehicle.minRPM", d.MinRPM)
	v.SetDefault("vehicle.maxRPM", d.MaxRPM)
	v.SetDefault("vehicle.reverseGear", d.ReverseGear)
	v.SetDefault("vehicle.accelerationForce", d.AccelerationForce)
	v.SetDefault("vehicle.brakeForce", d.BrakeForce)
	v.SetDefault("vehicle.axialFriction", d.AxialFriction)
	v.SetDefault("vehicle.springStrength", d.SpringStrength)
	v.SetDefault("vehicle.damping", d.Damping)
	v.SetDefault("vehicle.restDistance", d.RestDistance)
	v.SetDefault("vehicle.steeringStrength", d.SteeringStrength)
	v.SetDefault("vehicle.maxSteerAngle", d.MaxSteerAngle)
	v.SetDefault("vehicle.enableSuspension", d.EnableSuspension)
	v.SetDefault("vehicle.enableSteering", d.EnableSteering)
	v.SetDefault("vehicle.enableDrivetrain", d.EnableDrivetrain)
	v.SetDefault("vehicle.parallelWheels", false)

	keys := make([]map[string]any, len(d.GripCurve.Keys))
	for i, k := range d.GripCurve.Keys {
		keys[i] = map[string]any{"slip": k.Slip, "grip": k.Grip}
	}
	v.SetDefault("vehicle.gripCurve.interpolation", d.GripCurve.Interpolation.String())
	v.SetDefault("vehicle.gripCurve.keys", keys)
	v.SetDefault("vehicle.wheels", []map[string]any{
		{"name": "front-left", "position": []float64{-0.8, -0.3, 1.5}, "steer": true},
		{"name": "front-right", "position": []float64{0.8, -0.3, 1.5}, "steer": true},
		{"name": "rear-left", "position": []float64{-0.8, -0.3, -1.5}, "motor": true},
		{"name": "rear-right", "position": []float64{0.8, -0.3, -1.5}, "motor": true},
	})

	v.SetDefault("body.mass", 1.0)
	v.SetDefault("body.halfExtents", []float64{1, 0.25, 2})
	v.SetDefault("body.damping", 0.05)

	v.SetDefault("terrain.heightmap", "")
	v.SetDefault("terrain.cellSize", 1.0)
	v.SetDefault("terrain.maxHeight", 8.0)
	v.SetDefault("terrain.height", 0.0)

	v.SetDefault("route.radiusX", 60.0)
	v.SetDefault("route.radiusZ", 40.0)
	v.SetDefault("route.samples", 128)
	v.SetDefault("route.width", 8.0)
	v.SetDefault("route.spawnWaypoint", 0)
	v.SetDefault("route.clearance", 1.0)

	v.SetDefault("autopilot.targetSpeed", 8.0)
	v.SetDefault("autopilot.lookahead", 4)
	v.SetDefault("autopilot.gear", "D")

	v.SetDefault("telemetry.every", 10)
	v.SetDefault("telemetry.influx.enabled", false)
	v.SetDefault("telemetry.influx.url", "http://localhost:8086")
	v.SetDefault("telemetry.influx.token", "")
	v.SetDefault("telemetry.influx.org", "vehicle-dynamics")
	v.SetDefault("telemetry.influx.bucket", "telemetry")
	v.SetDefault("telemetry.influx.batchSize", 500)
	v.SetDefault("telemetry.influx.flushInterval", 1000)
}

// Load reads path (format from its extension) over the defaults. An empty
// path uses defaults only. Environment variables and changed flags override
// the file.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("binding flags: %w", err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the host settings. Vehicle tuning is validated by physics.
func (c *Config) Validate() error {
	var errs []error
	if !(c.TickRate > 0) {
		errs = append(errs, fmt.Errorf("%w: %v", ErrTickRate, c.TickRate))
	}
	if len(c.Body.HalfExtents) != 3 {
		errs = append(errs, fmt.Errorf("%w: got %d", ErrHalfExtents, len(c.Body.HalfExtents)))
	}
	for i, w := range c.Vehicle.Wheels {
		if len(w.Position) != 3 {
			errs = append(errs, fmt.Errorf("%w: wheel %d (%s) has %d", ErrWheelPosition, i, w.Name, len(w.Position)))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Tuning converts the vehicle section into physics.Tuning.
func (c *Config) Tuning() (physics.Tuning, error) {
	vc := c.Vehicle
	mode, err := physics.ParseInterpolation(vc.GripCurve.Interpolation)
	if err != nil {
		return physics.Tuning{}, err
	}
	keys := make([]physics.GripKey, len(vc.GripCurve.Keys))
	for i, k := range vc.GripCurve.Keys {
		keys[i] = physics.GripKey{Slip: k.Slip, Grip: k.Grip}
	}
	curve, err := physics.NewGripCurve(keys, mode)
	if err != nil {
		return physics.Tuning{}, err
	}
	return physics.Tuning{
		WheelDiameter:     vc.WheelDiameter,
		GearRatios:        append([]float64(nil), vc.GearRatios...),
		MinRPM:            vc.MinRPM,
		MaxRPM:            vc.MaxRPM,
		ReverseGear:       vc.ReverseGear,
		AccelerationForce: vc.AccelerationForce,
		BrakeForce:        vc.BrakeForce,
		AxialFriction:     vc.AxialFriction,
		SpringStrength:    vc.SpringStrength,
		Damping:           vc.Damping,
		RestDistance:      vc.RestDistance,
		GripCurve:         curve,
		SteeringStrength:  vc.SteeringStrength,
		MaxSteerAngle:     vc.MaxSteerAngle,
		EnableSuspension:  vc.EnableSuspension,
		EnableSteering:    vc.EnableSteering,
		EnableDrivetrain:  vc.EnableDrivetrain,
		ParallelWheels:    vc.ParallelWheels,
	}, nil
}

// WheelSpecs converts the wheel layout.
func (c *Config) WheelSpecs() ([]physics.WheelSpec, error) {
	specs := make([]physics.WheelSpec, 0, len(c.Vehicle.Wheels))
	for i, w := range c.Vehicle.Wheels {
		if len(w.Position) != 3 {
			return nil, fmt.Errorf("%w: wheel %d (%s) has %d", ErrWheelPosition, i, w.Name, len(w.Position))
		}
		var roles physics.Role
		if w.Steer {
			roles |= physics.RoleSteer
		}
		if w.Motor {
			roles |= physics.RoleMotor
		}
		name := w.Name
		if name == "" {
			name = fmt.Sprintf("wheel-%d", i)
		}
		specs = append(specs, physics.WheelSpec{
			Name:  name,
			Mount: mgl64.Vec3{w.Position[0], w.Position[1], w.Position[2]},
			Roles: roles,
		})
	}
	return specs, nil
}

// TickDuration is the fixed physics step.
func (c *Config) TickDuration() time.Duration {
	if !(c.TickRate > 0) {
		return 0
	}
	return time.Duration(float64(time.Second) / c.TickRate)
}

// HalfExtents returns the body box half extents.
func (c *Config) HalfExtents() mgl64.Vec3 {
	if len(c.Body.HalfExtents) != 3 {
		return mgl64.Vec3{}
	}
	return mgl64.Vec3{c.Body.HalfExtents[0], c.Body.HalfExtents[1], c.Body.HalfExtents[2]}
}

// AutopilotGear parses the gear the headless driver selects.
func (c *Config) AutopilotGear() (physics.GearMode, error) {
	return physics.ParseGearMode(c.Autopilot.Gear)
}
