// Package dedup collapses near-duplicate event reports that share a
// correlation tag into a single canonical record.
//
// Doorbells on flaky links retry event writes, so one physical occurrence can
// land under several timestamps carrying the same payload.tag. After each
// write, Engine.Deduplicate finds every sibling with that tag, keeps the
// earliest key, shallow-merges the later records onto it in key order, deletes
// the later records and rewrites the canonical one.
//
// Consistency:
//
// The merge touches several keys without a transaction and concurrent writes
// to the same tag are not serialised. Running the engine once per write is
// enough for the group to converge: once every sibling has been processed,
// exactly one record survives and its fields equal the in-order merge of all
// of them. Re-running on a converged group changes nothing.
package dedup
