// Package pngcard embeds card JSON in PNG tEXt chunks and reads it back.
//
// Reading scans for the recognized keywords in priority order: chara, then
// ccv3, then chara_card_v3. When multiple recognized chunks disagree, the
// higher-priority keyword wins; this precedence is preserved exactly because
// nothing in the chunk stream distinguishes "newer" from "more complete".
//
// Writing strips every pre-existing tEXt and zTXt chunk using a recognized
// keyword before inserting a single fresh chara chunk, so re-exporting an
// edited card never accumulates stale duplicates. Pixel data and all other
// chunks pass through byte-identical.
package pngcard
