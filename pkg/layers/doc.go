// Package layers loads catalog layers and tracks which ones are active.
//
// A [Fetcher] reads layer bytes from http(s) URLs, with retries on transient
// failures and a byte cache, or from paths under a local data directory.
// A [Registry] owns the set of active layers: activating the same URL twice
// loads it once, concurrent activations share a single load, and
// deactivating a layer that is still loading cancels the load and discards
// its result.
//
// Default path styles and the highlight applied to the active layer live in
// style.go.
package layers
