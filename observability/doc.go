// Package observability wires OpenTelemetry tracing and metrics into the
// request client.
//
// Exporters are configured once at process start:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("cloudreq"))
//	defer tp.Shutdown(ctx)
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("cloudreq"))
//	defer mp.Shutdown(ctx)
//
// Every send or stream is then wrapped in a Call:
//
//	ctx, call := observability.StartCall(ctx, metrics, observability.KindSend, "GET", url)
//	defer call.End(status, err)
package observability
