// Package registry owns the specification records of a compilation unit.
//
// The in-memory Registry enforces write-once registration keyed by item
// reference and tracks each item's lifecycle state. The Store persists an
// exported snapshot to SQLite so external tooling can inspect, diff, and
// hash-verify records without rerunning the front end.
package registry
