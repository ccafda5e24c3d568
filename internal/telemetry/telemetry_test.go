package telemetry

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"
	"vehicle-dynamics/internal/config"
	"vehicle-dynamics/internal/physics"
	"vehicle-dynamics/internal/sim"

	"github.com/go-gl/mathgl/mgl64"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

type observed struct {
	floats []float64
	ints   []int64
}

func (o *observed) ObserveFloat64(_ metric.Float64Observable, v float64, _ ...metric.ObserveOption) {
	o.floats = append(o.floats, v)
}

func (o *observed) ObserveInt64(_ metric.Int64Observable, v int64, _ ...metric.ObserveOption) {
	o.ints = append(o.ints, v)
}

func TestRegisterMetrics_ObservesSource(t *testing.T) {
	tel := physics.Telemetry{Speed: 12.5, RPM: 3.2, Gear: 2, Mode: physics.Driving, Shifts: 7}
	calls := 0
	ms, err := RegisterMetrics(noop.NewMeterProvider().Meter("test"), "hatch", func() physics.Telemetry {
		calls++
		return tel
	})
	require.NoError(t, err)

	var o observed
	ms.observe(&o)
	assert.Equal(t, 1, calls)
	assert.Equal(t, []float64{12.5, 3.2}, o.floats)
	assert.Equal(t, []int64{2, 7}, o.ints)
	assert.NoError(t, ms.Unregister())
}

func TestMeter_DefaultIsUsable(t *testing.T) {
	_, err := RegisterMetrics(Meter(), "hatch", func() physics.Telemetry { return physics.Telemetry{} })
	assert.NoError(t, err)
}

type collector struct{ points []*influxdb2_write.Point }

func (c *collector) WritePoint(p *influxdb2_write.Point) { c.points = append(c.points, p) }

func frame(tick uint64) sim.Frame {
	return sim.Frame{
		Tick:     tick,
		Elapsed:  time.Duration(tick) * 20 * time.Millisecond,
		Position: mgl64.Vec3{1, 0.9, -3},
		Rotation: mgl64.QuatIdent(),
		Controls: physics.Controls{Gas: 1},
		Telemetry: physics.Telemetry{
			Speed: 4, RPM: 2.5, Gear: 1, Mode: physics.Driving, Steer: -0.25, Contacts: 4,
		},
	}
}

func TestRecorder_SamplesEveryNth(t *testing.T) {
	var c collector
	r := NewRecorder(&c, 5, "hatch", time.Unix(0, 0))
	for tick := uint64(1); tick <= 23; tick++ {
		r.Record(frame(tick))
	}
	assert.Len(t, c.points, 4)
	assert.Equal(t, uint64(4), r.Written())
}

func TestRecorder_NonPositiveIntervalRecordsAll(t *testing.T) {
	var c collector
	r := NewRecorder(&c, 0, "hatch", time.Unix(0, 0))
	r.Record(frame(1))
	r.Record(frame(2))
	assert.Len(t, c.points, 2)
}

func TestPoint(t *testing.T) {
	start := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	p := Point("hatch", start, frame(50))

	assert.Equal(t, Measurement, p.Name())
	assert.Equal(t, start.Add(time.Second), p.Time())

	tags := map[string]string{}
	for _, tag := range p.TagList() {
		tags[tag.Key] = tag.Value
	}
	assert.Equal(t, map[string]string{"vehicle": "hatch", "mode": "D"}, tags)

	fields := map[string]interface{}{}
	for _, f := range p.FieldList() {
		fields[f.Key] = f.Value
	}
	assert.Equal(t, int64(50), fields["tick"])
	assert.Equal(t, 4.0, fields["speed"])
	assert.Equal(t, int64(1), fields["gear"])
	assert.Equal(t, -0.25, fields["steer"])
	assert.Equal(t, 1.0, fields["gas"])
	assert.Equal(t, -3.0, fields["z"])
	assert.Equal(t, int64(4), fields["contacts"])

	line := influxdb2_write.PointToLineProtocol(p, time.Nanosecond)
	assert.Contains(t, line, "vehicle_tick,mode=D,vehicle=hatch ")
}

func TestDial_Disabled(t *testing.T) {
	_, err := Dial(context.Background(), config.InfluxConfig{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}

func TestDial_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := Dial(ctx, config.InfluxConfig{Enabled: true, URL: "http://127.0.0.1:1", Org: "o", Bucket: "b"},
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}
