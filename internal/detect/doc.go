// Package detect classifies raw byte buffers before any codec runs: PNG by
// magic, ZIP by local-file-header signature (anywhere in the buffer, so
// SFX-prefixed archives still open), JSON as a tolerant-parse fallback.
// ZIP archives are further classified as CHARX or Voxta by layout; when
// neither matches the detector fails closed.
package detect
