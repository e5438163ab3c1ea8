// Package ingestion runs the offline build that turns raw extraction
// output and the curated corpus into serving-ready state.
//
// The Pipeline validates its input, normalizes the knowledge graph,
// embeds document chunks and FAQ questions in fixed-size batches on a
// worker pool, builds both vector indexes and persists everything
// through the storage repositories as whole replacements. Malformed
// input records are skipped and counted in the run report rather than
// aborting the build; embedding and persistence failures abort it.
package ingestion
