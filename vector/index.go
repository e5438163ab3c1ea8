// Package vector provides a flat, immutable cosine-similarity index.
//
// An index is built once over a full collection and replaced wholesale on
// rebuild; there is no incremental mutation. All vectors are unit
// normalized at build time, so query similarity reduces to a dot product.
package vector

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"sort"

	"github.com/poiesic/retrievit/core"
)

// Index is a flat KNN index over unit-normalized vectors. It is immutable
// after construction and safe for concurrent readers.
type Index struct {
	ids  []core.ID
	data []float32 // row i at data[i*dim : (i+1)*dim]
	dim  int
}

// Result is one index hit.
type Result struct {
	Id    core.ID
	Score float64 // cosine similarity, clamped to [0, 1] by fusion later
}

// NewIndex builds an index over the given vectors. The dimension is fixed
// by the collection; any disagreeing vector fails the build with
// core.ErrDimensionMismatch. An empty collection yields a valid empty
// index.
func NewIndex(items map[core.ID][]float32) (*Index, error) {
	ids := slices.Sorted(maps.Keys(items))
	if len(ids) == 0 {
		return &Index{}, nil
	}

	dim := len(items[ids[0]])
	if dim == 0 {
		return nil, fmt.Errorf("%w: vector for %016x is empty", core.ErrDimensionMismatch, uint64(ids[0]))
	}

	index := &Index{
		ids:  ids,
		data: make([]float32, 0, len(ids)*dim),
		dim:  dim,
	}
	for _, id := range ids {
		vector := items[id]
		if len(vector) != dim {
			return nil, fmt.Errorf("%w: vector for %016x has dimension %d, index has %d",
				core.ErrDimensionMismatch, uint64(id), len(vector), dim)
		}
		index.data = append(index.data, normalize(vector)...)
	}
	return index, nil
}

// Len returns the number of vectors in the index.
func (idx *Index) Len() int {
	return len(idx.ids)
}

// Dimension returns the vector dimension the index was built with.
// Zero for an empty index.
func (idx *Index) Dimension() int {
	return idx.dim
}

// Search returns the k nearest vectors to the query by cosine similarity,
// ordered by similarity descending with ties broken by ascending id. The
// same query against the same index always returns the same ranking.
//
// k larger than the collection is clamped; k < 1 returns no results. A
// query whose dimension disagrees with the index fails with
// core.ErrDimensionMismatch.
func (idx *Index) Search(query []float32, k int) ([]Result, error) {
	if idx.Len() == 0 || k < 1 {
		return nil, nil
	}
	if len(query) != idx.dim {
		return nil, fmt.Errorf("%w: query has dimension %d, index has %d",
			core.ErrDimensionMismatch, len(query), idx.dim)
	}

	normalized := normalize(query)

	results := make([]Result, len(idx.ids))
	for i, id := range idx.ids {
		row := idx.data[i*idx.dim : (i+1)*idx.dim]
		results[i] = Result{Id: id, Score: dotProduct(normalized, row)}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Id < results[j].Id
	})

	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

// normalize returns a unit-length copy of the vector. A zero vector stays
// zero and scores 0 against everything.
func normalize(vector []float32) []float32 {
	var sum float64
	for _, v := range vector {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return slices.Clone(vector)
	}
	inv := 1 / math.Sqrt(sum)
	out := make([]float32, len(vector))
	for i, v := range vector {
		out[i] = float32(float64(v) * inv)
	}
	return out
}

// dotProduct accumulates in float64 so result ordering is stable across
// summation of long vectors.
func dotProduct(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
