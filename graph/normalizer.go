package graph

import (
	"context"
	"log/slog"
	"maps"
	"runtime"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/retrievit/core"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultMergeThreshold is the similarity at or above which two alias
	// groups of the same type are merged into one entity.
	DefaultMergeThreshold = 0.85

	// DefaultEntityType is assigned to alias groups whose mentions carry
	// no type tag.
	DefaultEntityType = "concept"
)

// Normalizer folds raw extraction output into a canonical knowledge graph.
//
// The pass is deterministic: the same logical input produces the same
// entities, ids, aliases and edges regardless of input order or of the
// number of partitions used for the grouping phase. Malformed records are
// counted and skipped, never aborting the run.
type Normalizer struct {
	mergeThreshold float64
	defaultType    string
	reflexive      map[string]struct{}
	partitions     int
	logger         *slog.Logger
}

// Option configures a Normalizer.
type Option func(*Normalizer) error

// WithMergeThreshold sets the similarity threshold at or above which two
// alias groups of the same type merge into one entity.
// Default is DefaultMergeThreshold.
func WithMergeThreshold(threshold float64) Option {
	return func(n *Normalizer) error {
		if threshold <= 0 || threshold > 1 {
			return ErrInvalidThreshold
		}
		n.mergeThreshold = threshold
		return nil
	}
}

// WithDefaultType sets the type assigned to alias groups whose mentions
// carry no type tag.
// Default is DefaultEntityType.
func WithDefaultType(entityType string) Option {
	return func(n *Normalizer) error {
		entityType = normalizeType(entityType)
		if entityType == "" {
			return ErrInvalidType
		}
		n.defaultType = entityType
		return nil
	}
}

// WithReflexivePredicates marks predicates whose self-loop edges are kept.
// Self-loops on any other predicate are dropped and counted.
func WithReflexivePredicates(predicates ...string) Option {
	return func(n *Normalizer) error {
		for _, predicate := range predicates {
			predicate = strings.TrimSpace(predicate)
			if predicate == "" {
				continue
			}
			n.reflexive[predicate] = struct{}{}
		}
		return nil
	}
}

// WithPartitions sets the number of concurrent partitions used for the
// mention grouping phase.
// Default is runtime.GOMAXPROCS(0).
func WithPartitions(partitions int) Option {
	return func(n *Normalizer) error {
		if partitions < 1 {
			return ErrInvalidLimit
		}
		n.partitions = partitions
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(n *Normalizer) error {
		if logger == nil {
			logger = slog.Default()
		}
		n.logger = logger
		return nil
	}
}

// NewNormalizer creates a new normalizer.
func NewNormalizer(opts ...Option) (*Normalizer, error) {
	n := &Normalizer{
		mergeThreshold: DefaultMergeThreshold,
		defaultType:    DefaultEntityType,
		reflexive:      make(map[string]struct{}),
		partitions:     runtime.GOMAXPROCS(0),
		logger:         slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(n); err != nil {
			return nil, err
		}
	}

	return n, nil
}

// aliasGroup accumulates everything observed under one canonical alias.
type aliasGroup struct {
	count    int
	surfaces map[string]int
	types    map[string]int
	sources  map[string]struct{}
}

// partitionResult is the output of one grouping worker. All of its fields
// merge commutatively, so the combined result is independent of worker
// scheduling.
type partitionResult struct {
	groups            map[string]*aliasGroup
	valid             []core.RawTriple
	malformedMentions int
	malformedTriples  int
}

func newPartitionResult() *partitionResult {
	return &partitionResult{groups: make(map[string]*aliasGroup)}
}

func (r *partitionResult) addMention(alias, surface, entityType, source string) {
	group := r.groups[alias]
	if group == nil {
		group = &aliasGroup{
			surfaces: make(map[string]int),
			types:    make(map[string]int),
			sources:  make(map[string]struct{}),
		}
		r.groups[alias] = group
	}
	group.count++
	group.surfaces[surface]++
	if entityType != "" {
		group.types[entityType]++
	}
	if source != "" {
		group.sources[source] = struct{}{}
	}
}

func (r *partitionResult) merge(other *partitionResult) {
	for alias, group := range other.groups {
		existing := r.groups[alias]
		if existing == nil {
			r.groups[alias] = group
			continue
		}
		existing.count += group.count
		for surface, count := range group.surfaces {
			existing.surfaces[surface] += count
		}
		for entityType, count := range group.types {
			existing.types[entityType] += count
		}
		for source := range group.sources {
			existing.sources[source] = struct{}{}
		}
	}
	r.valid = append(r.valid, other.valid...)
	r.malformedMentions += other.malformedMentions
	r.malformedTriples += other.malformedTriples
}

// Normalize runs the full pass: group mentions by canonical alias, merge
// near-duplicate groups, resolve triples into edges, and assemble an
// immutable snapshot plus a run report.
//
// Triple endpoints that carry a type hint double as implicit mentions.
// Endpoints without a hint must resolve against the alias index or the
// edge is dropped and counted.
func (n *Normalizer) Normalize(ctx context.Context, mentions []core.RawMention, triples []core.RawTriple) (*Snapshot, *core.NormalizationReport, error) {
	started := time.Now()

	collected, err := n.collect(ctx, mentions, triples)
	if err != nil {
		return nil, nil, err
	}

	report := &core.NormalizationReport{
		RunID:             uuid.NewString(),
		MalformedMentions: collected.malformedMentions,
		MalformedTriples:  collected.malformedTriples,
	}

	groups := collected.groups
	aliasesSorted := slices.Sorted(maps.Keys(groups))

	totalMentions := 0
	for _, group := range groups {
		totalMentions += group.count
	}
	report.MergedMentions = totalMentions - len(groups)

	// Assign each alias group its type before the merge pass; merging is
	// gated on type agreement.
	groupTypes := make(map[string]string, len(groups))
	for alias, group := range groups {
		groupTypes[alias] = n.groupType(group)
	}

	// Fuzzy merge: union-find over similar alias pairs. Similar pairs
	// with divergent types stay separate and are reported as conflicts.
	uf := newUnionFind(len(aliasesSorted))
	for i := 0; i < len(aliasesSorted); i++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		for j := i + 1; j < len(aliasesSorted); j++ {
			left, right := aliasesSorted[i], aliasesSorted[j]
			if !WithinWindow(left, right, n.mergeThreshold) {
				continue
			}
			similarity := Similarity(left, right)
			if similarity < n.mergeThreshold {
				continue
			}
			if groupTypes[left] != groupTypes[right] {
				report.Conflicts = append(report.Conflicts, core.Conflict{
					LeftAlias:  left,
					RightAlias: right,
					LeftType:   groupTypes[left],
					RightType:  groupTypes[right],
					Similarity: similarity,
				})
				continue
			}
			if uf.union(i, j) {
				report.FuzzyMerges++
			}
		}
	}

	// Build one entity per union class.
	members := make(map[int][]int)
	for i := range aliasesSorted {
		root := uf.find(i)
		members[root] = append(members[root], i)
	}

	entitiesByID := make(map[core.ID]*core.Entity)
	aliasOwner := make(map[string]core.ID, len(groups))
	for _, root := range slices.Sorted(maps.Keys(members)) {
		entity := n.buildEntity(aliasesSorted, members[root], groups, groupTypes)
		if existing, ok := entitiesByID[entity.Id]; ok {
			// Distinct alias clusters converged on the same (type, name)
			// tuple; fold them into one entity.
			foldEntity(existing, entity)
			for _, alias := range entity.Aliases {
				aliasOwner[alias] = existing.Id
			}
			continue
		}
		entitiesByID[entity.Id] = entity
		for _, alias := range entity.Aliases {
			aliasOwner[alias] = entity.Id
		}
	}

	// Resolve triples into deduplicated edges.
	type edgeAccumulator struct {
		edge    *core.Edge
		sources map[string]struct{}
	}
	edgesByKey := make(map[string]*edgeAccumulator)
	for i := range collected.valid {
		triple := &collected.valid[i]

		subjectID, ok := resolveEndpoint(triple.Subject, aliasOwner)
		if !ok {
			report.DroppedEdges++
			n.logger.Warn("dropping edge, unresolved subject", "subject", triple.Subject, "predicate", triple.Predicate)
			continue
		}
		objectID, ok := resolveEndpoint(triple.Object, aliasOwner)
		if !ok {
			report.DroppedEdges++
			n.logger.Warn("dropping edge, unresolved object", "object", triple.Object, "predicate", triple.Predicate)
			continue
		}

		predicate := strings.TrimSpace(triple.Predicate)
		if subjectID == objectID {
			if _, allowed := n.reflexive[predicate]; !allowed {
				report.DroppedSelfLoops++
				continue
			}
		}

		edge := &core.Edge{
			Subject:    subjectID,
			Predicate:  predicate,
			Object:     objectID,
			Confidence: clamp01(triple.Confidence),
		}
		key := edge.Key()
		acc := edgesByKey[key]
		if acc == nil {
			acc = &edgeAccumulator{edge: edge, sources: make(map[string]struct{})}
			edgesByKey[key] = acc
		} else if edge.Confidence > acc.edge.Confidence {
			acc.edge.Confidence = edge.Confidence
		}
		if triple.Source != "" {
			acc.sources[triple.Source] = struct{}{}
		}
	}

	entities := make([]*core.Entity, 0, len(entitiesByID))
	for _, entity := range entitiesByID {
		entities = append(entities, entity)
	}
	sort.Slice(entities, func(i, j int) bool { return entities[i].Id < entities[j].Id })

	edges := make([]*core.Edge, 0, len(edgesByKey))
	for _, key := range slices.Sorted(maps.Keys(edgesByKey)) {
		acc := edgesByKey[key]
		acc.edge.Sources = slices.Sorted(maps.Keys(acc.sources))
		edges = append(edges, acc.edge)
	}

	snapshot, err := NewSnapshot(entities, edges)
	if err != nil {
		return nil, nil, err
	}

	report.Entities = len(entities)
	report.Edges = len(edges)
	report.Duration = time.Since(started)
	report.CompletedAt = time.Now()

	n.logger.Info("normalization complete",
		"run_id", report.RunID,
		"entities", report.Entities,
		"edges", report.Edges,
		"fuzzy_merges", report.FuzzyMerges,
		"conflicts", len(report.Conflicts),
		"dropped_edges", report.DroppedEdges,
		"dropped_self_loops", report.DroppedSelfLoops,
		"malformed_mentions", report.MalformedMentions,
		"malformed_triples", report.MalformedTriples,
		"duration", report.Duration)

	return snapshot, report, nil
}

// collect runs the grouping phase over input partitions concurrently and
// merges the results in partition order.
func (n *Normalizer) collect(ctx context.Context, mentions []core.RawMention, triples []core.RawTriple) (*partitionResult, error) {
	mentionRanges := splitRange(len(mentions), n.partitions)
	tripleRanges := splitRange(len(triples), n.partitions)

	mentionResults := make([]*partitionResult, len(mentionRanges))
	tripleResults := make([]*partitionResult, len(tripleRanges))

	g, ctx := errgroup.WithContext(ctx)
	for idx, bounds := range mentionRanges {
		g.Go(func() error {
			result := newPartitionResult()
			for i := bounds[0]; i < bounds[1]; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				n.collectMention(result, &mentions[i])
			}
			mentionResults[idx] = result
			return nil
		})
	}
	for idx, bounds := range tripleRanges {
		g.Go(func() error {
			result := newPartitionResult()
			for i := bounds[0]; i < bounds[1]; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				n.collectTriple(result, &triples[i])
			}
			tripleResults[idx] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	combined := newPartitionResult()
	for _, result := range mentionResults {
		combined.merge(result)
	}
	for _, result := range tripleResults {
		combined.merge(result)
	}
	return combined, nil
}

func (n *Normalizer) collectMention(result *partitionResult, mention *core.RawMention) {
	if err := core.ValidateMention(mention); err != nil {
		result.malformedMentions++
		return
	}
	alias := CanonicalAlias(mention.Name)
	if alias == "" {
		result.malformedMentions++
		return
	}
	result.addMention(alias, surfaceForm(mention.Name), normalizeType(mention.Type), mention.Source)
}

func (n *Normalizer) collectTriple(result *partitionResult, triple *core.RawTriple) {
	if err := core.ValidateTriple(triple); err != nil {
		result.malformedTriples++
		return
	}

	// Endpoints with a type hint double as implicit mentions.
	if hint := normalizeType(triple.SubjectType); hint != "" {
		if alias := CanonicalAlias(triple.Subject); alias != "" {
			result.addMention(alias, surfaceForm(triple.Subject), hint, triple.Source)
		}
	}
	if hint := normalizeType(triple.ObjectType); hint != "" {
		if alias := CanonicalAlias(triple.Object); alias != "" {
			result.addMention(alias, surfaceForm(triple.Object), hint, triple.Source)
		}
	}

	result.valid = append(result.valid, *triple)
}

// buildEntity merges the alias groups of one union class into an entity.
// The canonical display name is the most frequent surface form across the
// class, ties broken toward the lexicographically smallest.
func (n *Normalizer) buildEntity(aliasesSorted []string, memberIdx []int, groups map[string]*aliasGroup, groupTypes map[string]string) *core.Entity {
	surfaces := make(map[string]int)
	sources := make(map[string]struct{})
	aliases := make([]string, 0, len(memberIdx))
	mentionCount := 0

	for _, idx := range memberIdx {
		alias := aliasesSorted[idx]
		group := groups[alias]
		aliases = append(aliases, alias)
		mentionCount += group.count
		for surface, count := range group.surfaces {
			surfaces[surface] += count
		}
		for source := range group.sources {
			sources[source] = struct{}{}
		}
	}
	sort.Strings(aliases)

	entity := &core.Entity{
		Name:     topCounted(surfaces),
		Type:     groupTypes[aliasesSorted[memberIdx[0]]],
		Aliases:  aliases,
		Sources:  slices.Sorted(maps.Keys(sources)),
		Mentions: mentionCount,
	}
	entity.Id = core.IDFromContent(entity.Tuple())
	return entity
}

func (n *Normalizer) groupType(group *aliasGroup) string {
	if len(group.types) == 0 {
		return n.defaultType
	}
	return topCounted(group.types)
}

// foldEntity merges src into dst. Both share the same (type, name) tuple
// and therefore the same id.
func foldEntity(dst, src *core.Entity) {
	dst.Aliases = mergeSorted(dst.Aliases, src.Aliases)
	dst.Sources = mergeSorted(dst.Sources, src.Sources)
	dst.Mentions += src.Mentions
}

func mergeSorted(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	for _, v := range a {
		seen[v] = struct{}{}
	}
	for _, v := range b {
		seen[v] = struct{}{}
	}
	return slices.Sorted(maps.Keys(seen))
}

func resolveEndpoint(surface string, aliasOwner map[string]core.ID) (core.ID, bool) {
	alias := CanonicalAlias(surface)
	if alias == "" {
		return 0, false
	}
	id, ok := aliasOwner[alias]
	return id, ok
}

// surfaceForm keeps the original casing of a name but collapses whitespace
// and drops control characters, so equivalent spellings count together.
func surfaceForm(s string) string {
	s = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return ' '
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// normalizeType canonicalizes a type tag: trimmed, lower-cased, spaces to
// underscores. Empty stays empty.
func normalizeType(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.ReplaceAll(s, " ", "_")
}

// topCounted returns the key with the highest count, ties broken toward
// the lexicographically smallest key.
func topCounted(counts map[string]int) string {
	best := ""
	bestCount := -1
	for key, count := range counts {
		if count > bestCount || (count == bestCount && key < best) {
			best, bestCount = key, count
		}
	}
	return best
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// splitRange divides [0, n) into at most parts contiguous ranges.
func splitRange(n, parts int) [][2]int {
	if n == 0 {
		return nil
	}
	if parts > n {
		parts = n
	}
	size := (n + parts - 1) / parts
	ranges := make([][2]int, 0, parts)
	for lo := 0; lo < n; lo += size {
		ranges = append(ranges, [2]int{lo, min(lo+size, n)})
	}
	return ranges
}

// unionFind is a disjoint-set forest with path compression. The smaller
// root index wins on union, keeping class roots stable regardless of
// comparison order.
type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	return &unionFind{parent: parent}
}

func (u *unionFind) find(i int) int {
	for u.parent[i] != i {
		u.parent[i] = u.parent[u.parent[i]]
		i = u.parent[i]
	}
	return i
}

func (u *unionFind) union(a, b int) bool {
	rootA, rootB := u.find(a), u.find(b)
	if rootA == rootB {
		return false
	}
	if rootB < rootA {
		rootA, rootB = rootB, rootA
	}
	u.parent[rootB] = rootA
	return true
}
