package sentinel

import "errors"

// Sentinel errors for the document-loading pipeline. Gateways return these
// (optionally wrapped with diagnostic detail) so the loader and the HTTP layer
// can translate them without string matching.
//
// - ErrNotFound: document absent from the cache store
// - ErrStoreUnavailable: cache store unreachable; retryable by the caller
// - ErrInconsistentCache: existence check and read disagree, a store anomaly
// - ErrAuthFailure: Certfy token exchange rejected
// - ErrNotFoundUpstream: Certfy has no schedule for the id
// - ErrFetchFailure: any other non-success Certfy response
var (
	ErrNotFound          = errors.New("not found")
	ErrStoreUnavailable  = errors.New("store unavailable")
	ErrInconsistentCache = errors.New("inconsistent cache")
	ErrAuthFailure       = errors.New("auth failure")
	ErrNotFoundUpstream  = errors.New("not found upstream")
	ErrFetchFailure      = errors.New("fetch failure")
)
