// Package ir provides the Assertion intermediate representation for
// desugared contracts.
//
// This package contains type definitions, identifier allocation, canonical
// serialization, and deterministic rendering. All other internal packages
// import ir; ir imports nothing internal. This ensures IR remains the
// foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Assertion is a closed sum type, matched exhaustively by every consumer
//   - NO float types anywhere - binder and parameter types are bool, int, or string
//   - ExprIDs are a stable pre-order numbering per scope, starting at ExprIDBase
//   - SpecIDs are UUID-shaped and globally unique per contract occurrence
//   - Records are write-once; nothing in this package mutates a built tree
package ir
