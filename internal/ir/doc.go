// Package ir defines the mica intermediate representation.
//
// A Module owns two arenas, one for operations and one for values, and
// refers to both exclusively through integer handles (OpID, ValueID).
// Rewrites rewire handles; they never copy consuming operations. The
// module also owns a symbol table mapping global symbol names to their
// defining operations, with a single check-and-insert primitive so that
// find-or-create callers cannot race a lookup against an insertion.
package ir
