package types

import "context"

// Fetcher performs one source's outbound calls and reshapes the response
// into that source's normalized document.
//
// Implementations report every problem (network errors, bad statuses,
// malformed bodies, missing fields) as a Failure instead of panicking.
// Sub-items that fail on their own are dropped; Failure is reserved for
// a source that produced nothing usable.
type Fetcher interface {
	Fetch(ctx context.Context) Result
}

type FetcherFunc func(ctx context.Context) Result

func (f FetcherFunc) Fetch(ctx context.Context) Result {
	return f(ctx)
}
