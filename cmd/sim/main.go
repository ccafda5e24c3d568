package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"
	"vehicle-dynamics/internal/common"
	"vehicle-dynamics/internal/config"
	"vehicle-dynamics/internal/input"
	"vehicle-dynamics/internal/logging"
	"vehicle-dynamics/internal/physics"
	"vehicle-dynamics/internal/sim"
	"vehicle-dynamics/internal/telemetry"
	"vehicle-dynamics/internal/terrain"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/spf13/pflag"
)

const appName = "vehicle-sim"

// ground is what the wheels probe and what the car spawns on.
type ground interface {
	physics.GroundProbe
	terrain.Surface
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	flags := pflag.NewFlagSet(appName, pflag.ExitOnError)
	cfgPath := flags.StringP("config", "c", "", "config file (json, yaml or toml)")
	flags.Int("ticks", 3000, "ticks to simulate, 0 runs until interrupted")
	flags.String("logLevel", "info", "debug, info, warn or error")
	flags.Float64("tickRate", 50, "physics rate in Hz")
	_ = flags.Parse(os.Args[1:])

	cfg, err := config.Load(*cfgPath, flags)
	if err != nil {
		return err
	}

	start := time.Now()
	var file io.Writer
	if f, err := logging.OpenLogFile(cfg.LogsDir, appName, start); err != nil {
		fmt.Fprintf(os.Stderr, "logging to console only: %v\n", err)
	} else {
		defer f.Close()
		file = f
	}
	logger := logging.Setup(os.Stdout, file, cfg.LogLevel)
	logger.Info("Logging initialized", "level", cfg.LogLevel)

	g, err := loadGround(cfg.Terrain)
	if err != nil {
		return err
	}
	tuning, err := cfg.Tuning()
	if err != nil {
		return fmt.Errorf("vehicle tuning: %w", err)
	}
	wheels, err := cfg.WheelSpecs()
	if err != nil {
		return err
	}

	body, err := sim.NewRigidBody(cfg.Body.Mass, cfg.HalfExtents())
	if err != nil {
		return err
	}
	body.SetDamping(cfg.Body.Damping)

	route := terrain.NewLoopRoute(cfg.Route.RadiusX, cfg.Route.RadiusZ, cfg.Route.Samples, cfg.Route.Width)
	spawnPos, spawnRot := sim.SpawnPose(route, g, cfg.Route.SpawnWaypoint, cfg.Route.Clearance)
	body.Teleport(spawnPos, spawnRot)

	vlog := logger.With("vehicle", cfg.Vehicle.Name)
	vehicle, err := physics.NewVehicle(tuning, wheels, body, g, physics.WithLogger(vlog))
	if err != nil {
		return err
	}

	pilot := input.NewAutopilot(route, body, cfg.Autopilot.TargetSpeed)
	pilot.Lookahead = cfg.Autopilot.Lookahead
	s := sim.New(vehicle, body, pilot, cfg.TickDuration())

	metrics, err := telemetry.RegisterMetrics(telemetry.Meter(), cfg.Vehicle.Name, func() physics.Telemetry {
		return s.Snapshot().Telemetry
	})
	if err != nil {
		return err
	}
	defer metrics.Unregister()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if cfg.Telemetry.Influx.Enabled {
		sink, err := telemetry.Dial(ctx, cfg.Telemetry.Influx, logger)
		if err != nil {
			logger.Warn("influx unavailable, not recording", "err", err)
		} else {
			defer sink.Close()
			rec := telemetry.NewRecorder(sink, cfg.Telemetry.Every, cfg.Vehicle.Name, start)
			s.OnTick(rec.Record)
			logger.Info("recording telemetry", "bucket", cfg.Telemetry.Influx.Bucket, "every", cfg.Telemetry.Every)
		}
	}

	stats := newRunStats(route, spawnPos, logger)
	s.OnTick(stats.observe)
	s.OnTick(func(f sim.Frame) {
		if up := f.Rotation.Rotate(physics.AxisUp); up.Y() < 0.2 {
			logger.Warn("vehicle flipped, respawning", "tick", f.Tick, "x", f.Position.X(), "z", f.Position.Z())
			s.Respawn(spawnPos, spawnRot)
			stats.respawns++
			stats.moveTo(spawnPos)
			vehicle.SetAutomaticGear(mustGear(cfg, logger))
		}
	})

	vehicle.SetAutomaticGear(mustGear(cfg, logger))
	logger.Info("simulation starting",
		"ticks", cfg.Ticks, "step", cfg.TickDuration(), "wheels", len(wheels),
		"parallel", tuning.ParallelWheels, "terrain", terrainName(cfg.Terrain))

	n, err := s.Run(ctx, cfg.Ticks)
	if err != nil {
		logger.Info("simulation interrupted", "err", err)
	}
	stats.summary(s.Snapshot(), n)
	return nil
}

func mustGear(cfg *config.Config, logger *slog.Logger) physics.GearMode {
	gear, err := cfg.AutopilotGear()
	if err != nil {
		logger.Warn("bad autopilot gear, using D", "err", err)
		return physics.Driving
	}
	return gear
}

func loadGround(tc config.TerrainConfig) (ground, error) {
	if tc.Heightmap == "" {
		return terrain.Plane{Height: tc.Height}, nil
	}
	hf, err := terrain.LoadHeightmap(tc.Heightmap, tc.CellSize, tc.MaxHeight)
	if err != nil {
		return nil, err
	}
	return hf, nil
}

func terrainName(tc config.TerrainConfig) string {
	if tc.Heightmap == "" {
		return "plane"
	}
	return tc.Heightmap
}

// runStats tracks distance, route excursions and top speed for the summary line.
type runStats struct {
	route    *terrain.Route
	logger   *slog.Logger
	last     common.Vec2
	distance float64
	topSpeed float64
	offRoute int
	wasOff   bool
	respawns int
}

func newRunStats(route *terrain.Route, spawn mgl64.Vec3, logger *slog.Logger) *runStats {
	r := &runStats{route: route, logger: logger}
	r.moveTo(spawn)
	return r
}

// moveTo resets the odometer origin without counting distance.
func (r *runStats) moveTo(p mgl64.Vec3) {
	r.last = common.Vec2{X: p.X(), Y: p.Z()}
}

func (r *runStats) observe(f sim.Frame) {
	pos := common.Vec2{X: f.Position.X(), Y: f.Position.Z()}
	r.distance += pos.Sub(r.last).Len()
	r.last = pos
	r.topSpeed = max(r.topSpeed, f.Telemetry.Speed)

	wp, idx := r.route.ClosestWaypoint(pos)
	if idx < 0 {
		return
	}
	_, d := r.route.Offset(pos)
	off := d > wp.Width/2 || d < -wp.Width/2
	if off {
		r.offRoute++
	}
	if off && !r.wasOff {
		r.logger.Debug("left the route", "tick", f.Tick, "offset", d, "waypoint", idx)
	}
	r.wasOff = off
}

func (r *runStats) summary(f sim.Frame, ticks int) {
	r.logger.Info("simulation finished",
		"ticks", ticks,
		"simulated", f.Elapsed,
		"distance", fmt.Sprintf("%.1fm", r.distance),
		"topSpeed", fmt.Sprintf("%.1fkm/h", r.topSpeed*physics.KmhPerMs),
		"finalMode", f.Telemetry.Mode,
		"finalGear", f.Telemetry.Gear,
		"shifts", f.Telemetry.Shifts,
		"offRouteTicks", r.offRoute,
		"respawns", r.respawns,
	)
}
