// Package cards defines the canonical in-memory character card that every
// supported format normalizes into and serializes out of.
//
// A Card is constructed fresh per import and discarded once the caller has
// produced output bytes or a library record; it has no persistence format of
// its own. Core narrative fields are plain strings and never nil. Everything a
// dialect carries that the canonical model does not understand lives in the
// Extensions bag and survives round trips untouched.
//
// Warnings collect the recoverable tier of the error taxonomy: quirks the
// normalizer and codecs repair with documented defaults rather than failing.
package cards
