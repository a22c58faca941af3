// Package core provides the gemkit client facade and the provider-neutral types
// shared by every backend.
//
// # Client and Provider
//
// The entry point is [Client], which wraps a [Provider] and adds validation,
// retries, telemetry and a fluent builder:
//
//	provider := gemini.New(os.Getenv("GEMINI_API_KEY"))
//	client := core.NewClient(provider,
//	    core.WithRetryPolicy(core.DefaultRetryPolicy()),
//	    core.WithTelemetry(myHook),
//	)
//
// Most programs use gemini.NewClient, which builds both from a ClientConfig.
//
// # Generating
//
//	resp, err := client.Request("gemini-2.5-flash").
//	    System("You are terse.").
//	    User("Name three primes.").
//	    Temperature(0.2).
//	    GetResponse(ctx)
//
// A [GenerationRequest] can also be filled directly and passed to
// [Client.Generate]. Requests are validated before any network I/O; invalid
// parameters come back as an [APIError] of kind [KindInvalidRequest].
//
// # Streaming
//
// [Client.GenerateStream] returns an iterator. Each element is a
// [StreamChunk] holding content deltas in arrival order:
//
//	for chunk, err := range client.GenerateStream(ctx, req) {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Print(chunk.Text())
//	}
//
// Leaving the loop early releases the connection. Use [Collect] to
// concatenate a stream into a [GenerationResponse].
//
// # Errors
//
// Every failure is an *[APIError]. Its [ErrorKind] is one of Network,
// Timeout, AuthFailure, InvalidRequest, RateLimited, ServerError, Decode or
// SafetyBlocked, and each kind has a sentinel for errors.Is:
//
//	if errors.Is(err, core.ErrRateLimited) {
//	    var ae *core.APIError
//	    errors.As(err, &ae)
//	    wait(ae.RetryAfter)
//	}
//
// # Retry Policy
//
// Network, Timeout, ServerError and RateLimited failures are retried with
// exponential backoff (BaseDelay * 2^n, capped at MaxDelay). A RetryAfter hint
// from the service replaces the computed delay. When the policy gives up, the
// last error is returned unchanged.
//
// # Thread Safety
//
// [Client] is safe for concurrent use. [RequestBuilder] is not; use
// [RequestBuilder.Clone] to fan out from a shared base.
package core
