package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"vehicle-dynamics/internal/config"
	"vehicle-dynamics/internal/sim"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement is the InfluxDB measurement name of tick samples.
const Measurement = "vehicle_tick"

// PointWriter accepts points asynchronously. influxdb2 api.WriteAPI satisfies it.
type PointWriter interface {
	WritePoint(point *influxdb2_write.Point)
}

// Recorder samples simulation frames into points. Register Record with sim.OnTick.
type Recorder struct {
	w       PointWriter
	every   uint64
	vehicle string
	start   time.Time
	written uint64
}

// NewRecorder writes every n-th frame, stamped from start plus simulated time.
func NewRecorder(w PointWriter, every int, vehicle string, start time.Time) *Recorder {
	return &Recorder{w: w, every: uint64(max(every, 1)), vehicle: vehicle, start: start}
}

// Record writes f when its tick falls on the sampling interval.
func (r *Recorder) Record(f sim.Frame) {
	if f.Tick%r.every != 0 {
		return
	}
	r.w.WritePoint(Point(r.vehicle, r.start, f))
	r.written++
}

// Written counts points handed to the writer.
func (r *Recorder) Written() uint64 { return r.written }

// Point converts one frame.
func Point(vehicle string, start time.Time, f sim.Frame) *influxdb2_write.Point {
	t := f.Telemetry
	return influxdb2.NewPoint(
		Measurement,
		map[string]string{
			"vehicle": vehicle,
			"mode":    t.Mode.String(),
		},
		map[string]interface{}{
			"tick":     int64(f.Tick),
			"speed":    t.Speed,
			"rpm":      t.RPM,
			"gear":     int64(t.Gear),
			"steer":    t.Steer,
			"gas":      f.Controls.Gas,
			"brake":    f.Controls.Brake,
			"contacts": int64(t.Contacts),
			"x":        f.Position.X(),
			"y":        f.Position.Y(),
			"z":        f.Position.Z(),
			"heading":  f.Heading(),
		},
		start.Add(f.Elapsed),
	)
}

// Sink is a live InfluxDB connection.
type Sink struct {
	client influxdb2.Client
	api    influxdb2_api.WriteAPI
}

// Dial connects and checks the server is up. Write errors are logged from a
// background goroutine until Close.
func Dial(ctx context.Context, cfg config.InfluxConfig, logger *slog.Logger) (*Sink, error) {
	if !cfg.Enabled {
		return nil, errors.New("influx is disabled")
	}
	client := influxdb2.NewClientWithOptions(
		cfg.URL,
		cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(max(cfg.BatchSize, 1)).
			SetFlushInterval(max(cfg.FlushInterval, 1)),
	)
	running, err := client.Ping(ctx)
	if err != nil || !running {
		client.Close()
		if err == nil {
			err = errors.New("server not ready")
		}
		return nil, fmt.Errorf("connecting to influx at %s: %w", cfg.URL, err)
	}

	s := &Sink{client: client, api: client.WriteAPI(cfg.Org, cfg.Bucket)}
	errorsCh := s.api.Errors()
	go func() {
		for writeErr := range errorsCh {
			logger.Error("influx write failed", "bucket", cfg.Bucket, "err", writeErr)
		}
	}()
	return s, nil
}

// WritePoint implements PointWriter.
func (s *Sink) WritePoint(p *influxdb2_write.Point) { s.api.WritePoint(p) }

// Close flushes pending points and closes the client.
func (s *Sink) Close() {
	s.api.Flush()
	s.client.Close()
}
