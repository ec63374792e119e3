package sim

import (
	"context"
	"errors"
	"fmt"

	"github.com/san-kum/pneumostab/internal/dynamo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/san-kum/pneumostab/internal/sim"

type telemetry struct {
	advanced    metric.Int64Counter
	aborted     metric.Int64Counter
	transferred metric.Float64Histogram
}

func newTelemetry(m metric.Meter) (*telemetry, error) {
	var (
		t   telemetry
		err error
	)
	t.advanced, err = m.Int64Counter(
		"pneumostab.ticks.advanced",
		metric.WithDescription("Ticks committed by the driver"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating advanced counter: %w", err)
	}

	t.aborted, err = m.Int64Counter(
		"pneumostab.ticks.aborted",
		metric.WithDescription("Ticks refused because a corner or exchange failed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating aborted counter: %w", err)
	}

	t.transferred, err = m.Float64Histogram(
		"pneumostab.valve.mass_transferred",
		metric.WithDescription("Gas mass moved through open valves per tick"),
		metric.WithUnit("kg"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating transfer histogram: %w", err)
	}
	return &t, nil
}

func (t *telemetry) recordTick(moved float64) {
	ctx := context.Background()
	t.advanced.Add(ctx, 1)
	if moved > 0 {
		t.transferred.Record(ctx, moved)
	}
}

func (t *telemetry) recordAbort(c dynamo.Corner, err error) {
	attrs := []attribute.KeyValue{attribute.String("reason", abortReason(err))}
	if c.Valid() {
		attrs = append(attrs, attribute.String("corner", c.String()))
	}
	t.aborted.Add(context.Background(), 1, metric.WithAttributes(attrs...))
}

func abortReason(err error) string {
	switch {
	case errors.Is(err, dynamo.ErrGeometryOutOfRange):
		return "geometry"
	case errors.Is(err, dynamo.ErrInvalidVolume):
		return "volume"
	case errors.Is(err, dynamo.ErrInvalidInput):
		return "input"
	default:
		return "other"
	}
}
