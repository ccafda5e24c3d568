// Package telemetry exports vehicle state as OpenTelemetry metrics and as
// InfluxDB points.
package telemetry

import (
	"context"
	"fmt"
	"vehicle-dynamics/internal/physics"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "vehicle-dynamics/internal/telemetry"

// Meter returns the global meter. It is a no-op unless the host installs a provider.
func Meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// observer is the subset of metric.Observer the callback uses.
type observer interface {
	ObserveFloat64(obsrv metric.Float64Observable, value float64, opts ...metric.ObserveOption)
	ObserveInt64(obsrv metric.Int64Observable, value int64, opts ...metric.ObserveOption)
}

// Metrics holds the vehicle instruments.
type Metrics struct {
	speed  metric.Float64ObservableGauge
	rpm    metric.Float64ObservableGauge
	gear   metric.Int64ObservableGauge
	shifts metric.Int64ObservableCounter

	source func() physics.Telemetry
	attrs  metric.MeasurementOption
	reg    metric.Registration
}

// RegisterMetrics creates the gauges and registers one callback that reads
// source at collection time. source must be safe to call from the exporter goroutine.
func RegisterMetrics(m metric.Meter, vehicle string, source func() physics.Telemetry) (*Metrics, error) {
	ms := &Metrics{
		source: source,
		attrs:  metric.WithAttributes(attribute.String("vehicle", vehicle)),
	}

	var err error
	ms.speed, err = m.Float64ObservableGauge(
		"vehicle.speed",
		metric.WithDescription("Body speed"),
		metric.WithUnit("m/s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating speed gauge: %w", err)
	}
	ms.rpm, err = m.Float64ObservableGauge(
		"vehicle.rpm",
		metric.WithDescription("Smoothed engine RPM in thousands"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating rpm gauge: %w", err)
	}
	ms.gear, err = m.Int64ObservableGauge(
		"vehicle.gear",
		metric.WithDescription("Current ratio index, tagged with the selector mode"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating gear gauge: %w", err)
	}
	ms.shifts, err = m.Int64ObservableCounter(
		"vehicle.shifts",
		metric.WithDescription("Total ratio changes"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating shifts counter: %w", err)
	}

	ms.reg, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			ms.observe(o)
			return nil
		},
		ms.speed, ms.rpm, ms.gear, ms.shifts,
	)
	if err != nil {
		return nil, fmt.Errorf("registering vehicle callback: %w", err)
	}
	return ms, nil
}

func (ms *Metrics) observe(o observer) {
	t := ms.source()
	o.ObserveFloat64(ms.speed, t.Speed, ms.attrs)
	o.ObserveFloat64(ms.rpm, t.RPM, ms.attrs)
	o.ObserveInt64(ms.gear, int64(t.Gear), ms.attrs, metric.WithAttributes(attribute.String("mode", t.Mode.String())))
	o.ObserveInt64(ms.shifts, int64(t.Shifts), ms.attrs)
}

// Unregister stops the callback.
func (ms *Metrics) Unregister() error {
	if ms.reg == nil {
		return nil
	}
	return ms.reg.Unregister()
}
