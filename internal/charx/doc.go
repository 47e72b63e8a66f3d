// Package charx reads and builds CHARX archives: a ZIP with a root card.json
// (CCv3) and an assets/ tree of binary blobs addressed by embeded:// URIs.
//
// Built archives list assets in canonical card order, never alphabetically.
// Output path collisions are resolved deterministically by original array
// order: the first occurrence keeps the bare name, later ones gain a numeric
// suffix. Before finalizing, every embeded:// URI in the card JSON is checked
// against the archive's physical entries; a dangling reference fails the
// build rather than being dropped silently.
package charx
