// Package telemetry records pipeline stage events and exports traces and
// metrics over OpenTelemetry.
//
// # Overview
//
// Every pipeline stage produces one Event describing what ran, for how long,
// and over how many words. Events flow through a Collector, which fans them
// out to the configured sinks: a local SQLite store (queried by "spr stats"),
// a NATS subject tree for live consumers, and OTLP exporters feeding an OTEL
// Collector.
//
// # Usage
//
// Build the provider and collector once at startup:
//
//	tel, err := telemetry.New(ctx, cfg.Telemetry, version)
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(ctx)
//
//	collector := telemetry.NewCollector(ctx, cfg.Telemetry, tel, logger)
//	defer collector.Close(ctx)
//
// Emit is fire-and-forget. A sink that cannot accept an event logs a warning
// and drops it; pipeline work never blocks on telemetry and never fails
// because of it.
//
// # Testing
//
// Use Capture to assert on emitted events, and TestTelemetry for in-memory
// span inspection:
//
//	cap := telemetry.NewCapture()
//	cap.Emit(ctx, ev)
//	require.Len(t, cap.Events(), 1)
package telemetry
