// Package telemetry provides the Prometheus collectors and the OpenTelemetry
// tracer used by the scheduler and the renderer.
//
// Both types are optional: nil values are valid and record nothing, so
// packages call them unconditionally.
//
//	reg := prometheus.NewRegistry()
//	app := weave.CreateApp(root,
//	    weave.WithMetrics(telemetry.NewMetrics(telemetry.WithRegistry(reg))),
//	    weave.WithTracer(telemetry.NewTracer()),
//	)
package telemetry
