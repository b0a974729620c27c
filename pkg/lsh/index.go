package lsh

import (
	"encoding/binary"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"slices"
)

// Table concatenates k hash functions into a single bucket key.
type Table struct {
	functions []Function
	buckets   map[uint64][]int32
}

// NewTable draws k functions from the family.
func NewTable(family Family, dim, k int, rng *rand.Rand) *Table {
	functions := make([]Function, k)
	for i := range functions {
		functions[i] = family.New(dim, rng)
	}
	return &Table{functions: functions, buckets: make(map[uint64][]int32)}
}

// key combines the k hash values with FNV-1a.
func (t *Table) key(x []float64) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	for _, f := range t.functions {
		binary.LittleEndian.PutUint64(buf[:], uint64(f.Hash(x)))
		h.Write(buf[:])
	}
	return h.Sum64()
}

// Insert stores id in the bucket of x.
func (t *Table) Insert(id int, x []float64) {
	key := t.key(x)
	t.buckets[key] = append(t.buckets[key], int32(id))
}

// Bucket returns the ids sharing x's bucket. The slice must not be modified.
func (t *Table) Bucket(x []float64) []int32 {
	return t.buckets[t.key(x)]
}

// Len returns the number of non-empty buckets.
func (t *Table) Len() int { return len(t.buckets) }

// Index is a set of independent tables over the same points. After the last
// Insert it is read-only and safe for concurrent queries.
type Index struct {
	family Family
	k      int
	tables []*Table
}

// NewIndex creates an index of the given number of tables, each
// concatenating k functions of the family.
func NewIndex(family Family, dim, k, tables int, rng *rand.Rand) *Index {
	idx := &Index{family: family, k: k, tables: make([]*Table, tables)}
	for i := range idx.tables {
		idx.tables[i] = NewTable(family, dim, k, rng)
	}
	return idx
}

// Insert adds id at point x to every table.
func (idx *Index) Insert(id int, x []float64) {
	for _, t := range idx.tables {
		t.Insert(id, x)
	}
}

// Candidates returns the distinct ids colliding with x in at least one
// table, sorted ascending.
func (idx *Index) Candidates(x []float64) []int {
	var ids []int
	for _, t := range idx.tables {
		for _, id := range t.Bucket(x) {
			ids = append(ids, int(id))
		}
	}
	slices.Sort(ids)
	return slices.Compact(ids)
}

// CollisionProbability returns the probability that a point at the given
// distance collides with the query in at least one table.
func (idx *Index) CollisionProbability(distance float64) float64 {
	p := math.Pow(idx.family.CollisionProbability(distance), float64(idx.k))
	return 1 - math.Pow(1-p, float64(len(idx.tables)))
}

// Hashes returns the number of functions concatenated per table.
func (idx *Index) Hashes() int { return idx.k }

// Tables returns the number of tables.
func (idx *Index) Tables() int { return len(idx.tables) }
