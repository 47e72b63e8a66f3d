// Package config loads, normalizes, and validates the TOML configuration for
// the cardex CLI.
//
// Load resolves the file (explicit flag, ~/.config/cardex/config.toml, or a
// project-local cardex.toml), decodes it over the defaults, expands home
// paths, applies environment fallbacks, and validates the result. A missing
// file is not an error; defaults apply.
package config
