// Package telemetry records OpenTelemetry traces and metrics around every
// request-reply service and event consumer in the application.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/example/task-marketplace/modules/telemetry"

const (
	kindService = "service"
	kindEvent   = "event"
)

// Module is a mono middleware module that wraps handlers with spans, call
// counters and latency histograms.
type Module struct {
	enabled  bool
	output   io.Writer
	interval time.Duration
	shutdown func(context.Context) error

	tracer   trace.Tracer
	logger   *slog.Logger
	calls    metric.Int64Counter
	duration metric.Float64Histogram
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.MiddlewareModule = (*Module)(nil)

// NewModule creates the telemetry module. With TELEMETRY_ENABLED=true it
// installs stdout exporters on Start; otherwise instruments stay no-op.
// TELEMETRY_INTERVAL_SECONDS sets the metric export period (default 60).
func NewModule() (*Module, error) {
	enabled, _ := strconv.ParseBool(os.Getenv("TELEMETRY_ENABLED"))

	interval := time.Minute
	if v := os.Getenv("TELEMETRY_INTERVAL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			interval = time.Duration(n) * time.Second
		}
	}

	logger := slog.Default()
	if enabled {
		logger = otelslog.NewLogger(instrumentationName)
	}

	m, err := NewModuleWithProviders(otel.GetMeterProvider(), otel.GetTracerProvider(), logger)
	if err != nil {
		return nil, err
	}
	m.enabled = enabled
	m.output = os.Stdout
	m.interval = interval
	return m, nil
}

// NewModuleWithProviders builds the module on explicit providers and never
// touches the global SDK.
func NewModuleWithProviders(mp metric.MeterProvider, tp trace.TracerProvider, logger *slog.Logger) (*Module, error) {
	if logger == nil {
		logger = slog.Default()
	}
	meter := mp.Meter(instrumentationName)

	calls, err := meter.Int64Counter("marketplace.handler.calls",
		metric.WithDescription("Number of service calls and consumed events"),
		metric.WithUnit("{call}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create call counter: %w", err)
	}
	duration, err := meter.Float64Histogram("marketplace.handler.duration",
		metric.WithDescription("Handler latency"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	return &Module{
		tracer:   tp.Tracer(instrumentationName),
		logger:   logger,
		calls:    calls,
		duration: duration,
	}, nil
}

// Name returns the module name.
func (m *Module) Name() string {
	return "telemetry"
}

// Start installs the exporters when telemetry is enabled.
func (m *Module) Start(ctx context.Context) error {
	if !m.enabled {
		slog.Info("Telemetry exporters disabled")
		return nil
	}

	shutdown, err := SetupOTelSDK(ctx, m.output, m.interval)
	if err != nil {
		return fmt.Errorf("failed to set up OpenTelemetry: %w", err)
	}
	m.shutdown = shutdown
	slog.Info("Telemetry started", "interval", m.interval)
	return nil
}

// Stop flushes pending telemetry.
func (m *Module) Stop(ctx context.Context) error {
	if m.shutdown == nil {
		return nil
	}
	if err := m.shutdown(ctx); err != nil {
		return fmt.Errorf("failed to flush telemetry: %w", err)
	}
	slog.Info("Telemetry stopped")
	return nil
}

// OnModuleLifecycle logs module start-up time and stop failures.
func (m *Module) OnModuleLifecycle(
	ctx context.Context,
	event types.ModuleLifecycleEvent,
) types.ModuleLifecycleEvent {
	switch event.Type {
	case types.ModuleStartedEvent:
		m.logger.InfoContext(ctx, "Module started",
			"module", event.ModuleName,
			"startup_ms", event.Duration.Milliseconds())
	case types.ModuleStoppedEvent:
		if event.Error != nil {
			m.logger.WarnContext(ctx, "Module stopped with error",
				"module", event.ModuleName,
				"error", event.Error)
		}
	}
	return event
}

// OnServiceRegistration wraps request-reply handlers.
func (m *Module) OnServiceRegistration(
	_ context.Context,
	reg types.ServiceRegistration,
) types.ServiceRegistration {
	if reg.Type == types.ServiceTypeRequestReply && reg.RequestHandler != nil {
		reg.RequestHandler = m.wrapRequestReplyHandler(reg.RequestHandler, reg.Name)
	}
	return reg
}

// OnConfigurationChange passes through configuration events.
func (m *Module) OnConfigurationChange(
	_ context.Context,
	event types.ConfigurationEvent,
) types.ConfigurationEvent {
	return event
}

// OnOutgoingMessage passes through outgoing messages.
func (m *Module) OnOutgoingMessage(
	octx types.OutgoingMessageContext,
) types.OutgoingMessageContext {
	return octx
}

// OnEventConsumerRegistration wraps event consumer handlers.
func (m *Module) OnEventConsumerRegistration(
	_ context.Context,
	entry types.EventConsumerEntry,
) types.EventConsumerEntry {
	if entry.Handler != nil {
		entry.Handler = m.wrapEventConsumerHandler(entry.Handler, entry.EventDef.Name)
	}
	return entry
}

// OnEventStreamConsumerRegistration passes through stream consumers; the
// application registers none.
func (m *Module) OnEventStreamConsumerRegistration(
	_ context.Context,
	entry types.EventStreamConsumerEntry,
) types.EventStreamConsumerEntry {
	return entry
}

func (m *Module) wrapRequestReplyHandler(
	original types.RequestReplyHandler,
	serviceName string,
) types.RequestReplyHandler {
	return func(ctx context.Context, req *types.Msg) ([]byte, error) {
		ctx, span := m.tracer.Start(ctx, "service "+serviceName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attribute.String("mono.service", serviceName)))
		defer span.End()

		start := time.Now()
		resp, err := original(ctx, req)
		m.record(ctx, span, kindService, serviceName, time.Since(start), err)
		return resp, err
	}
}

func (m *Module) wrapEventConsumerHandler(
	original types.EventConsumerHandler,
	eventName string,
) types.EventConsumerHandler {
	return func(ctx context.Context, msg *types.Msg) error {
		ctx, span := m.tracer.Start(ctx, "event "+eventName,
			trace.WithSpanKind(trace.SpanKindConsumer),
			trace.WithAttributes(attribute.String("mono.event", eventName)))
		defer span.End()

		start := time.Now()
		err := original(ctx, msg)
		m.record(ctx, span, kindEvent, eventName, time.Since(start), err)
		return err
	}
}

func (m *Module) record(ctx context.Context, span trace.Span, kind, name string, latency time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		m.logger.WarnContext(ctx, "Handler failed",
			"kind", kind,
			"name", name,
			"error", err)
	}

	attrs := metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("name", name),
		attribute.String("outcome", outcome),
	)
	m.calls.Add(ctx, 1, attrs)
	m.duration.Record(ctx, float64(latency.Microseconds())/1000, attrs)
}
