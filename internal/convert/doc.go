// Package convert ties the detector, normalizer, serializers, and container
// codecs into the two top-level operations: Import (raw bytes to canonical
// card) and Export (canonical card to output bytes in a target format).
//
// Each call is a pure computation over its own buffers; there is no shared
// state, caching, or locking, so conversions may run concurrently without
// coordination. Cancellation and timeouts are the caller's concern.
package convert
