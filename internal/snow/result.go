package snow

import (
	"errors"
)

// Providers wrap these so callers can tell failures apart with errors.Is.
var (
	ErrTransport         = errors.New("transport failure")
	ErrUpstreamStatus    = errors.New("unexpected upstream status")
	ErrMalformedResponse = errors.New("malformed upstream response")
	ErrCircuitOpen       = errors.New("circuit breaker open")
)

// FailureKind names why a fetch did not produce a value.
type FailureKind string

const (
	KindOK          FailureKind = "ok"
	KindTransport   FailureKind = "transport"
	KindStatus      FailureKind = "status"
	KindMalformed   FailureKind = "malformed"
	KindCircuitOpen FailureKind = "circuit_open"
	KindUnknown     FailureKind = "unknown"
)

// Classify maps a fetch error onto a FailureKind.
func Classify(err error) FailureKind {
	switch {
	case err == nil:
		return KindOK
	case errors.Is(err, ErrCircuitOpen):
		return KindCircuitOpen
	case errors.Is(err, ErrUpstreamStatus):
		return KindStatus
	case errors.Is(err, ErrMalformedResponse):
		return KindMalformed
	case errors.Is(err, ErrTransport):
		return KindTransport
	default:
		return KindUnknown
	}
}

// FetchResult is the outcome of fetching one resort: either a value in
// inches or the reason there is none.
type FetchResult struct {
	Resort  string
	Inches  float64
	Reading SeasonReading
	Kind    FailureKind
	Err     error
}

// OK reports whether the fetch produced a value.
func (r FetchResult) OK() bool {
	return r.Err == nil
}

// Succeeded builds a successful result from a provider reading.
func Succeeded(reading SeasonReading) FetchResult {
	return FetchResult{
		Resort:  reading.Resort,
		Inches:  SeasonInches(reading.SnowfallCM),
		Reading: reading,
		Kind:    KindOK,
	}
}

// Failed builds a failed result for resort.
func Failed(resort string, err error) FetchResult {
	return FetchResult{
		Resort: resort,
		Kind:   Classify(err),
		Err:    err,
	}
}
