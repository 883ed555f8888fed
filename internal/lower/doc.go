// Package lower holds mica's legalization patterns. Its one production
// pass, LegalizeToArithmetic, rewrites rng.get_and_update_state into
// plain arithmetic and memory ops over a module-wide counter global.
package lower
