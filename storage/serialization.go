// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package storage

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/retrievit/core"
)

// Serializers follow the MUS format: varint numbers, length-prefixed strings
// and slices, raw little-endian floats, timestamps as unix microseconds.

// GraphMeta records the shape of a completely persisted graph. It is written
// after all entity and edge records, so its presence marks the graph as whole.
type GraphMeta struct {
	Entities int
	Edges    int
}

// Hand-written MUS serializers for the stored record types, in the shape
// musgen emits. Field order matches struct order and must not change once
// records are on disk.
var (
	IDMUS        = idMUS{}
	EntityMUS    = entityMUS{}
	EdgeMUS      = edgeMUS{}
	ChunkMUS     = chunkMUS{}
	FAQMUS       = faqMUS{}
	ConflictMUS  = conflictMUS{}
	ReportMUS    = reportMUS{}
	GraphMetaMUS = graphMetaMUS{}
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, IDMUS.Size(id))
	IDMUS.Marshal(id, buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := IDMUS.Unmarshal(data)
	return id, err
}

// MarshalEntity serializes an Entity to bytes.
func MarshalEntity(entity *core.Entity) []byte {
	buf := make([]byte, EntityMUS.Size(*entity))
	EntityMUS.Marshal(*entity, buf)
	return buf
}

// UnmarshalEntity deserializes an Entity from bytes.
func UnmarshalEntity(data []byte) (*core.Entity, error) {
	entity, _, err := EntityMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

// MarshalEdge serializes an Edge to bytes.
func MarshalEdge(edge *core.Edge) []byte {
	buf := make([]byte, EdgeMUS.Size(*edge))
	EdgeMUS.Marshal(*edge, buf)
	return buf
}

// UnmarshalEdge deserializes an Edge from bytes.
func UnmarshalEdge(data []byte) (*core.Edge, error) {
	edge, _, err := EdgeMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &edge, nil
}

// MarshalChunk serializes a DocumentChunk to bytes.
func MarshalChunk(chunk *core.DocumentChunk) []byte {
	buf := make([]byte, ChunkMUS.Size(*chunk))
	ChunkMUS.Marshal(*chunk, buf)
	return buf
}

// UnmarshalChunk deserializes a DocumentChunk from bytes.
func UnmarshalChunk(data []byte) (*core.DocumentChunk, error) {
	chunk, _, err := ChunkMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &chunk, nil
}

// MarshalFAQ serializes an FAQEntry to bytes.
func MarshalFAQ(faq *core.FAQEntry) []byte {
	buf := make([]byte, FAQMUS.Size(*faq))
	FAQMUS.Marshal(*faq, buf)
	return buf
}

// UnmarshalFAQ deserializes an FAQEntry from bytes.
func UnmarshalFAQ(data []byte) (*core.FAQEntry, error) {
	faq, _, err := FAQMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &faq, nil
}

// MarshalReport serializes a NormalizationReport to bytes.
func MarshalReport(report *core.NormalizationReport) []byte {
	buf := make([]byte, ReportMUS.Size(*report))
	ReportMUS.Marshal(*report, buf)
	return buf
}

// UnmarshalReport deserializes a NormalizationReport from bytes.
func UnmarshalReport(data []byte) (*core.NormalizationReport, error) {
	report, _, err := ReportMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// MarshalGraphMeta serializes a GraphMeta to bytes.
func MarshalGraphMeta(meta *GraphMeta) []byte {
	buf := make([]byte, GraphMetaMUS.Size(*meta))
	GraphMetaMUS.Marshal(*meta, buf)
	return buf
}

// UnmarshalGraphMeta deserializes a GraphMeta from bytes.
func UnmarshalGraphMeta(data []byte) (*GraphMeta, error) {
	meta, _, err := GraphMetaMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &meta, nil
}

type idMUS struct{}

func (s idMUS) Marshal(v core.ID, bs []byte) (n int) {
	return varint.Uint64.Marshal(uint64(v), bs)
}

func (s idMUS) Unmarshal(bs []byte) (v core.ID, n int, err error) {
	var num uint64
	num, n, err = varint.Uint64.Unmarshal(bs)
	v = core.ID(num)
	return
}

func (s idMUS) Size(v core.ID) (size int) {
	return varint.Uint64.Size(uint64(v))
}

type entityMUS struct{}

func (s entityMUS) Marshal(v core.Entity, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += ord.String.Marshal(v.Name, bs[n:])
	n += ord.String.Marshal(v.Type, bs[n:])
	n += marshalStringSlice(v.Aliases, bs[n:])
	n += marshalStringSlice(v.Sources, bs[n:])
	n += varint.Int.Marshal(v.Mentions, bs[n:])
	return n
}

func (s entityMUS) Unmarshal(bs []byte) (v core.Entity, n int, err error) {
	var n1 int
	v.Id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	v.Name, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Type, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Aliases, n1, err = unmarshalStringSlice(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Sources, n1, err = unmarshalStringSlice(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Mentions, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	return
}

func (s entityMUS) Size(v core.Entity) (size int) {
	size = IDMUS.Size(v.Id)
	size += ord.String.Size(v.Name)
	size += ord.String.Size(v.Type)
	size += sizeStringSlice(v.Aliases)
	size += sizeStringSlice(v.Sources)
	size += varint.Int.Size(v.Mentions)
	return size
}

type edgeMUS struct{}

func (s edgeMUS) Marshal(v core.Edge, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Subject, bs)
	n += ord.String.Marshal(v.Predicate, bs[n:])
	n += IDMUS.Marshal(v.Object, bs[n:])
	n += raw.Float64.Marshal(v.Confidence, bs[n:])
	n += marshalStringSlice(v.Sources, bs[n:])
	return n
}

func (s edgeMUS) Unmarshal(bs []byte) (v core.Edge, n int, err error) {
	var n1 int
	v.Subject, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	v.Predicate, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Object, n1, err = IDMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Confidence, n1, err = raw.Float64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Sources, n1, err = unmarshalStringSlice(bs[n:])
	n += n1
	return
}

func (s edgeMUS) Size(v core.Edge) (size int) {
	size = IDMUS.Size(v.Subject)
	size += ord.String.Size(v.Predicate)
	size += IDMUS.Size(v.Object)
	size += raw.Float64.Size(v.Confidence)
	size += sizeStringSlice(v.Sources)
	return size
}

type chunkMUS struct{}

func (s chunkMUS) Marshal(v core.DocumentChunk, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += ord.String.Marshal(v.Document, bs[n:])
	n += ord.String.Marshal(v.Text, bs[n:])
	n += marshalFloat32Slice(v.Vector, bs[n:])
	return n
}

func (s chunkMUS) Unmarshal(bs []byte) (v core.DocumentChunk, n int, err error) {
	var n1 int
	v.Id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	v.Document, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Text, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Vector, n1, err = unmarshalFloat32Slice(bs[n:])
	n += n1
	return
}

func (s chunkMUS) Size(v core.DocumentChunk) (size int) {
	size = IDMUS.Size(v.Id)
	size += ord.String.Size(v.Document)
	size += ord.String.Size(v.Text)
	size += sizeFloat32Slice(v.Vector)
	return size
}

type faqMUS struct{}

func (s faqMUS) Marshal(v core.FAQEntry, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += ord.String.Marshal(v.Question, bs[n:])
	n += ord.String.Marshal(v.Answer, bs[n:])
	n += marshalFloat32Slice(v.Vector, bs[n:])
	return n
}

func (s faqMUS) Unmarshal(bs []byte) (v core.FAQEntry, n int, err error) {
	var n1 int
	v.Id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	v.Question, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Answer, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Vector, n1, err = unmarshalFloat32Slice(bs[n:])
	n += n1
	return
}

func (s faqMUS) Size(v core.FAQEntry) (size int) {
	size = IDMUS.Size(v.Id)
	size += ord.String.Size(v.Question)
	size += ord.String.Size(v.Answer)
	size += sizeFloat32Slice(v.Vector)
	return size
}

type conflictMUS struct{}

func (s conflictMUS) Marshal(v core.Conflict, bs []byte) (n int) {
	n = ord.String.Marshal(v.LeftAlias, bs)
	n += ord.String.Marshal(v.RightAlias, bs[n:])
	n += ord.String.Marshal(v.LeftType, bs[n:])
	n += ord.String.Marshal(v.RightType, bs[n:])
	n += raw.Float64.Marshal(v.Similarity, bs[n:])
	return n
}

func (s conflictMUS) Unmarshal(bs []byte) (v core.Conflict, n int, err error) {
	var n1 int
	v.LeftAlias, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	v.RightAlias, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.LeftType, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.RightType, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Similarity, n1, err = raw.Float64.Unmarshal(bs[n:])
	n += n1
	return
}

func (s conflictMUS) Size(v core.Conflict) (size int) {
	size = ord.String.Size(v.LeftAlias)
	size += ord.String.Size(v.RightAlias)
	size += ord.String.Size(v.LeftType)
	size += ord.String.Size(v.RightType)
	size += raw.Float64.Size(v.Similarity)
	return size
}

type reportMUS struct{}

func (s reportMUS) Marshal(v core.NormalizationReport, bs []byte) (n int) {
	n = ord.String.Marshal(v.RunID, bs)
	n += varint.Int.Marshal(v.Entities, bs[n:])
	n += varint.Int.Marshal(v.Edges, bs[n:])
	n += varint.Int.Marshal(v.MergedMentions, bs[n:])
	n += varint.Int.Marshal(v.FuzzyMerges, bs[n:])
	n += varint.Int.Marshal(v.DroppedEdges, bs[n:])
	n += varint.Int.Marshal(v.DroppedSelfLoops, bs[n:])
	n += varint.Int.Marshal(v.MalformedMentions, bs[n:])
	n += varint.Int.Marshal(v.MalformedTriples, bs[n:])
	n += varint.Int.Marshal(v.MalformedChunks, bs[n:])
	n += varint.Int.Marshal(v.MalformedFAQs, bs[n:])
	n += varint.Int.Marshal(len(v.Conflicts), bs[n:])
	for i := range v.Conflicts {
		n += ConflictMUS.Marshal(v.Conflicts[i], bs[n:])
	}
	n += varint.Int64.Marshal(int64(v.Duration), bs[n:])
	n += varint.Int64.Marshal(v.CompletedAt.UnixMicro(), bs[n:])
	return n
}

func (s reportMUS) Unmarshal(bs []byte) (v core.NormalizationReport, n int, err error) {
	var n1 int
	v.RunID, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	counts := []*int{
		&v.Entities, &v.Edges, &v.MergedMentions,
		&v.FuzzyMerges, &v.DroppedEdges, &v.DroppedSelfLoops,
		&v.MalformedMentions, &v.MalformedTriples,
		&v.MalformedChunks, &v.MalformedFAQs,
	}
	for _, count := range counts {
		*count, n1, err = varint.Int.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	var length int
	length, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	if err = validateLength(length, len(bs)-n); err != nil {
		return
	}
	if length > 0 {
		v.Conflicts = make([]core.Conflict, length)
		for i := 0; i < length; i++ {
			v.Conflicts[i], n1, err = ConflictMUS.Unmarshal(bs[n:])
			n += n1
			if err != nil {
				return
			}
		}
	}
	var ticks int64
	ticks, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Duration = time.Duration(ticks)
	ticks, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.CompletedAt = time.UnixMicro(ticks).UTC()
	return
}

func (s reportMUS) Size(v core.NormalizationReport) (size int) {
	size = ord.String.Size(v.RunID)
	size += varint.Int.Size(v.Entities)
	size += varint.Int.Size(v.Edges)
	size += varint.Int.Size(v.MergedMentions)
	size += varint.Int.Size(v.FuzzyMerges)
	size += varint.Int.Size(v.DroppedEdges)
	size += varint.Int.Size(v.DroppedSelfLoops)
	size += varint.Int.Size(v.MalformedMentions)
	size += varint.Int.Size(v.MalformedTriples)
	size += varint.Int.Size(v.MalformedChunks)
	size += varint.Int.Size(v.MalformedFAQs)
	size += varint.Int.Size(len(v.Conflicts))
	for i := range v.Conflicts {
		size += ConflictMUS.Size(v.Conflicts[i])
	}
	size += varint.Int64.Size(int64(v.Duration))
	size += varint.Int64.Size(v.CompletedAt.UnixMicro())
	return size
}

type graphMetaMUS struct{}

func (s graphMetaMUS) Marshal(v GraphMeta, bs []byte) (n int) {
	n = varint.Int.Marshal(v.Entities, bs)
	n += varint.Int.Marshal(v.Edges, bs[n:])
	return n
}

func (s graphMetaMUS) Unmarshal(bs []byte) (v GraphMeta, n int, err error) {
	var n1 int
	v.Entities, n, err = varint.Int.Unmarshal(bs)
	if err != nil {
		return
	}
	v.Edges, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	return
}

func (s graphMetaMUS) Size(v GraphMeta) (size int) {
	return varint.Int.Size(v.Entities) + varint.Int.Size(v.Edges)
}

func sizeStringSlice(v []string) (size int) {
	size = varint.Int.Size(len(v))
	for _, s := range v {
		size += ord.String.Size(s)
	}
	return size
}

func marshalStringSlice(v []string, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v), bs)
	for _, s := range v {
		n += ord.String.Marshal(s, bs[n:])
	}
	return n
}

func unmarshalStringSlice(bs []byte) (v []string, n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	if err = validateLength(length, len(bs)-n); err != nil {
		return nil, n, err
	}
	if length == 0 {
		return nil, n, nil
	}
	v = make([]string, length)
	var n1 int
	for i := 0; i < length; i++ {
		v[i], n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
	}
	return v, n, nil
}

func sizeFloat32Slice(v []float32) (size int) {
	size = varint.Int.Size(len(v))
	for _, f := range v {
		size += raw.Float32.Size(f)
	}
	return size
}

func marshalFloat32Slice(v []float32, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v), bs)
	for _, f := range v {
		n += raw.Float32.Marshal(f, bs[n:])
	}
	return n
}

func unmarshalFloat32Slice(bs []byte) (v []float32, n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	if err = validateLength(length, len(bs)-n); err != nil {
		return nil, n, err
	}
	if length == 0 {
		return nil, n, nil
	}
	v = make([]float32, length)
	var n1 int
	for i := 0; i < length; i++ {
		v[i], n1, err = raw.Float32.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
	}
	return v, n, nil
}

// validateLength guards slice allocation against corrupt length prefixes.
// Every encoded element occupies at least one byte, so a valid count can
// never exceed the number of remaining bytes.
func validateLength(length, remaining int) error {
	if length < 0 {
		return fmt.Errorf("%w: negative length %d", ErrSerializationFailed, length)
	}
	if length > remaining {
		return fmt.Errorf("%w: length %d exceeds %d remaining bytes", ErrTruncatedData, length, remaining)
	}
	return nil
}
