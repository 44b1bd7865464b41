// Package sqlite provides the structured data tools: one read-only sqlite table per
// medical domain, queried with model-generated SQL.
//
// A Tool is bound to exactly one table at construction. Every Execute call acquires a
// dedicated connection from the pool and releases it (together with the row cursor)
// on every exit path.
package sqlite
