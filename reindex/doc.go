// Package reindex re-embeds the persisted retrieval corpus with a new
// or updated embedding model.
//
// It walks every stored document chunk and FAQ entry in batches,
// requests fresh embeddings with retry and exponential backoff, and
// writes the updated vectors back in place. Graph data and record text
// are never modified. Progress is reported to a caller-supplied writer
// so long runs remain observable from the command line.
package reindex
