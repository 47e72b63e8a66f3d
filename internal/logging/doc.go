// Package logging constructs the slog loggers used across cardex and exposes
// typed attribute helpers so call sites stay terse and consistent.
package logging
