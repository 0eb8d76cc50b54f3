package types

import "fmt"

// Result is the outcome of one source fetch: either a document or a failure reason.
// The zero value is a failure with an empty reason.
type Result struct {
	document any
	reason   string
	ok       bool
}

func Success(document any) Result {
	return Result{document: document, ok: true}
}

func Failure(reason string) Result {
	return Result{reason: reason}
}

func Failuref(format string, args ...any) Result {
	return Failure(fmt.Sprintf(format, args...))
}

// FailureFrom describes err as a failure, prefixed with what was being done.
func FailureFrom(action string, err error) Result {
	return Failuref("%s: %v", action, err)
}

func (r Result) OK() bool {
	return r.ok
}

// Document is the normalized payload of a successful result.
func (r Result) Document() any {
	return r.document
}

// Reason explains a failed result. It is empty for successes.
func (r Result) Reason() string {
	if r.ok {
		return ""
	}
	if r.reason == "" {
		return "unknown failure"
	}
	return r.reason
}

func (r Result) String() string {
	if r.ok {
		return "success"
	}
	return "failure: " + r.Reason()
}

// Outcome is how a run records each source.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	// OutcomeFailed means the fetcher returned a Failure, or its document could not be stored.
	OutcomeFailed Outcome = "failed"
	// OutcomeError means the fetcher panicked or never got to run.
	OutcomeError Outcome = "error"
)
