/*
Package tracing provides lightweight request tracing for the desktop API.

Every HTTP request gets a span whose trace id is taken from the incoming
X-Trace-ID header or minted as a request ULID. The ids are echoed back on the
response (X-Trace-ID, X-Span-ID, X-Request-ID) so a client can quote them when
reporting a problem, and completed spans are logged through zap by a single
collector goroutine.

# Usage

	tracer := tracing.New("nexus-desktop", logger.Logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	// Manual span creation
	span, ctx := tracer.StartSpan(ctx, "operation")
	defer func() {
		span.Finish()
		tracer.Submit(span)
	}()

Spans are buffered (1000) and dropped with a warning when the collector falls
behind.
*/
package tracing
