// Package rewrite implements partial dialect conversion over ir
// modules: a conversion target declares which op kinds are legal, a
// pattern set maps illegal kinds to rewrites, and the driver applies
// patterns strictly sequentially until no illegal op remains.
//
// A conversion either fully rewrites every illegal op or fails as a
// whole; there is no partial-success state for a single application.
package rewrite
