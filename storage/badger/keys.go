package badger

import (
	"encoding/binary"

	"github.com/poiesic/retrievit/core"
)

// Key prefixes for different data types. Prefixes are mutually disjoint, so
// a record scan never has to skip index or marker keys.
const (
	entityRecordPrefix = "entrec"
	entityAliasPrefix  = "entali"
	edgeRecordPrefix   = "edgrec"
	chunkRecordPrefix  = "churec"
	faqRecordPrefix    = "faqrec"
	graphMetaKeyName   = "gramet:latest"
	reportKeyName      = "norrep:latest"
)

// makeRecordKey generates a key for a record by ID.
// The ID is written in BigEndian order so that lexicographic iteration
// over the prefix yields records in ascending ID order.
func makeRecordKey(prefix string, id core.ID) []byte {
	prefixBytes := []byte(prefix + ":")
	buf := make([]byte, len(prefixBytes)+8)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeEntityKey generates a key for an entity by ID.
func makeEntityKey(id core.ID) []byte {
	return makeRecordKey(entityRecordPrefix, id)
}

// makeAliasKey generates a key for the alias index.
// Format: prefix:alias, valued by the owning entity ID.
func makeAliasKey(alias string) []byte {
	return []byte(entityAliasPrefix + ":" + alias)
}

// makeEdgeKey generates a key for an edge by its canonical identity.
// Edge keys embed fixed-width hex IDs, so iteration is ordered by subject.
func makeEdgeKey(edge *core.Edge) []byte {
	return []byte(edgeRecordPrefix + ":" + edge.Key())
}

// makeChunkKey generates a key for a document chunk by ID.
func makeChunkKey(id core.ID) []byte {
	return makeRecordKey(chunkRecordPrefix, id)
}

// makeFAQKey generates a key for an FAQ entry by ID.
func makeFAQKey(id core.ID) []byte {
	return makeRecordKey(faqRecordPrefix, id)
}

// makeGraphMetaKey generates the key of the graph completeness marker.
func makeGraphMetaKey() []byte {
	return []byte(graphMetaKeyName)
}

// makeReportKey generates the key of the latest normalization report.
func makeReportKey() []byte {
	return []byte(reportKeyName)
}

// recordPrefix returns the iteration prefix for a record family.
func recordPrefix(prefix string) []byte {
	return []byte(prefix + ":")
}
