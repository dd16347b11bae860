// Package tracer provides distributed tracing functionality using OpenTelemetry.
//
// The producer pipeline injects the current trace context into outgoing
// message headers with GetCarrier; the consumer pipeline restores it with
// SetCarrierOnContext before starting the handler span, so a message keeps a
// single trace across the broker hop.
//
// Basic Usage:
//
//	tracerClient := tracer.NewClient(tracer.Config{
//		ServiceName:  "orders-service",
//		AppEnv:       "production",
//		EnableExport: true,
//	}, log)
//
//	ctx, span := tracerClient.StartSpan(ctx, "process-order")
//	defer span.End()
//
//	if err := process(ctx); err != nil {
//		tracerClient.RecordErrorOnSpan(span, err)
//	}
//
// FX Module Integration:
//
//	app := fx.New(
//		logger.FXModule,
//		tracer.FXModule,
//		fx.Provide(func() tracer.Config { return tracer.Config{ServiceName: "orders"} }),
//	)
package tracer
