/*
Package tracing times conversation operations as spans.

A GetResponse call is one trace; every hop it takes (the first request,
each redirect, an authentication retry) is a child span tagged with the
method, URL and status. Finished spans are buffered and logged by a
collector goroutine so the exchange itself never waits on logging.

# Usage

	tracer := tracing.New(logger, 0)
	defer tracer.Close()

	span, ctx := tracer.StartSpan(ctx, "conversation.get_response")
	span.SetTag("url", u)
	resp, err := do(ctx)
	tracer.End(span, err)

A nil *Tracer is valid: StartSpan returns a nil span and End does nothing,
so callers can trace unconditionally.
*/
package tracing
