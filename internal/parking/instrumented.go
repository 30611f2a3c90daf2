package parking

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentedEngine wraps the allocation engine with spans and metrics.
type InstrumentedEngine struct {
	*Engine
	telemetry *TelemetryProvider

	// Metrics
	parkOperations    metric.Int64Counter
	releaseOperations metric.Int64Counter
	occupancyGauge    metric.Int64UpDownCounter
	operationDuration metric.Float64Histogram
}

func NewInstrumentedEngine(engine *Engine, telemetry *TelemetryProvider) (*InstrumentedEngine, error) {
	meter := telemetry.Meter()

	parkOperations, err := meter.Int64Counter("park_operations_total",
		metric.WithDescription("Total number of park operations"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	releaseOperations, err := meter.Int64Counter("release_operations_total",
		metric.WithDescription("Total number of release operations"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	occupancyGauge, err := meter.Int64UpDownCounter("yard_occupancy",
		metric.WithDescription("Current number of occupied spots"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	operationDuration, err := meter.Float64Histogram("operation_duration_seconds",
		metric.WithDescription("Duration of allocation operations"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return &InstrumentedEngine{
		Engine:            engine,
		telemetry:         telemetry,
		parkOperations:    parkOperations,
		releaseOperations: releaseOperations,
		occupancyGauge:    occupancyGauge,
		operationDuration: operationDuration,
	}, nil
}

func (ie *InstrumentedEngine) Park(ctx context.Context, plate string, opts ParkOptions) (Spot, error) {
	tracer := ie.telemetry.Tracer()
	ctx, span := tracer.Start(ctx, "allocation.park",
		trace.WithAttributes(
			attribute.String("vehicle.plate", plate),
			attribute.Int64("spot.requested_id", opts.SpotID),
			attribute.Int64("yard.requested_id", opts.YardID),
		))
	defer span.End()

	start := time.Now()

	span.AddEvent("finding_free_spot")

	spot, err := ie.Engine.Park(ctx, plate, opts)

	duration := time.Since(start).Seconds()

	labels := []attribute.KeyValue{
		attribute.String("operation", "park"),
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		labels = append(labels, attribute.String("status", "failed"))
		ie.parkOperations.Add(ctx, 1, metric.WithAttributes(labels...))
	} else {
		labels = append(labels,
			attribute.String("status", "success"),
			attribute.Int64("allocated_spot", spot.ID),
		)
		span.SetAttributes(
			attribute.Int64("spot.id", spot.ID),
			attribute.Int64("yard.id", spot.YardID),
		)
		span.AddEvent("spot_allocated", trace.WithAttributes(
			attribute.Int64("spot.id", spot.ID),
		))

		ie.parkOperations.Add(ctx, 1, metric.WithAttributes(labels...))
		ie.occupancyGauge.Add(ctx, 1)
	}

	ie.operationDuration.Record(ctx, duration, metric.WithAttributes(labels...))

	return spot, err
}

func (ie *InstrumentedEngine) Release(ctx context.Context, plate string) (Spot, error) {
	tracer := ie.telemetry.Tracer()
	ctx, span := tracer.Start(ctx, "allocation.release",
		trace.WithAttributes(
			attribute.String("vehicle.plate", plate),
		))
	defer span.End()

	start := time.Now()

	span.AddEvent("releasing_spot")

	spot, err := ie.Engine.Release(ctx, plate)

	duration := time.Since(start).Seconds()

	labels := []attribute.KeyValue{
		attribute.String("operation", "release"),
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		labels = append(labels, attribute.String("status", "failed"))
	} else {
		labels = append(labels, attribute.String("status", "success"))
		span.SetAttributes(
			attribute.Int64("spot.id", spot.ID),
			attribute.Int64("yard.id", spot.YardID),
		)
		span.AddEvent("spot_released")
		ie.occupancyGauge.Add(ctx, -1)
	}

	ie.releaseOperations.Add(ctx, 1, metric.WithAttributes(labels...))
	ie.operationDuration.Record(ctx, duration, metric.WithAttributes(labels...))

	return spot, err
}
