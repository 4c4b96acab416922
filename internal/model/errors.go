package model

import "github.com/rotisserie/eris"

// Error taxonomy for the discovery pipeline. Only ErrImageUnreadable is
// surfaced to callers as a request failure; every other condition is absorbed
// by cascading to the next tier and recorded in response metadata.
var (
	// ErrModelUnavailable means the segmentation model could not be loaded.
	// Non-fatal; discovery is treated as unavailable and the cascade proceeds.
	ErrModelUnavailable = eris.New("segmentation model unavailable")

	// ErrImageUnreadable means the input image is missing or malformed.
	// Fatal to the request.
	ErrImageUnreadable = eris.New("image unreadable")

	// ErrDescribeService means the enrichment call failed. Components keep
	// their raw attributes.
	ErrDescribeService = eris.New("describe service error")

	// ErrGenerateParse means the generative tier returned an unparseable
	// component list. Triggers the placeholder tier.
	ErrGenerateParse = eris.New("generate response parse error")

	// ErrCacheIO means a cache read or write failed. The pipeline still
	// returns a fresh result, just uncached.
	ErrCacheIO = eris.New("cache io error")
)
