package timeline

import (
	"fmt"
	"math"
	"sync"

	"github.com/san-kum/nanosim/internal/dynamo"
)

// SentinelLow is the lower bound of the seed record holding every agent's
// initial state.
var SentinelLow = math.Inf(-1)

type Record struct {
	Low     float64
	High    float64
	Payload dynamo.Universe
	// Seq is the insertion sequence number, starting at 1.
	Seq uint64
}

func (r Record) Covers(t float64) bool {
	return r.Low <= t && t < r.High
}

// IsSentinel reports whether r is the seed record.
func (r Record) IsSentinel() bool {
	return math.IsInf(r.Low, -1)
}

type node struct {
	rec         Record
	maxHigh     float64
	height      int
	left, right *node
}

type Store struct {
	mu   sync.RWMutex
	root *node
	size int
	seq  uint64
}

func New() *Store {
	return &Store{}
}

// Insert adds a record covering [low, high). Records with equal low keep
// insertion order. The payload is copied; the caller may reuse its map.
func (s *Store) Insert(low, high float64, payload dynamo.Universe) error {
	if math.IsNaN(low) || math.IsNaN(high) || low >= high {
		return fmt.Errorf("timeline: insert [%g, %g): %w", low, high, dynamo.ErrInvalidRange)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	rec := Record{Low: low, High: high, Payload: payload.Clone(), Seq: s.seq}
	s.root = insert(s.root, rec)
	s.size++
	return nil
}

// Seed inserts the sentinel record (-Inf, high) carrying the initial state
// of every agent.
func (s *Store) Seed(initial dynamo.Universe, high float64) error {
	return s.Insert(SentinelLow, high, initial)
}

// LookupAll returns every record covering t, in store order. An empty
// result means no data yet.
func (s *Store) LookupAll(t float64) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Record
	collect(s.root, t, &out)
	return out
}

// LookupOne returns the most recently inserted record covering t. Only
// meaningful when the caller knows at most one record is relevant.
func (s *Store) LookupOne(t float64) (Record, bool) {
	var best Record
	found := false
	for _, rec := range s.LookupAll(t) {
		if !found || rec.Seq > best.Seq {
			best = rec
			found = true
		}
	}
	return best, found
}

// Records returns the full ordered record sequence.
func (s *Store) Records() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, 0, s.size)
	walk(s.root, func(r Record) { out = append(out, r) })
	return out
}

// Rebuild inserts records into a fresh store in the order given. Seq is
// renumbered by position, so for records exported from Records the rebuilt
// store breaks ties between overlapping records of one agent by store order,
// not by the order they were first inserted.
func Rebuild(recs []Record) (*Store, error) {
	st := New()
	for _, r := range recs {
		if err := st.Insert(r.Low, r.High, r.Payload); err != nil {
			return nil, err
		}
	}
	return st, nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}

func collect(n *node, t float64, out *[]Record) {
	if n == nil || n.maxHigh <= t {
		return
	}
	collect(n.left, t, out)
	// Everything at or right of n starts after t.
	if n.rec.Low > t {
		return
	}
	if t < n.rec.High {
		*out = append(*out, n.rec)
	}
	collect(n.right, t, out)
}

func walk(n *node, fn func(Record)) {
	if n == nil {
		return
	}
	walk(n.left, fn)
	fn(n.rec)
	walk(n.right, fn)
}

func insert(n *node, rec Record) *node {
	if n == nil {
		return &node{rec: rec, maxHigh: rec.High, height: 1}
	}
	if rec.Low < n.rec.Low {
		n.left = insert(n.left, rec)
	} else {
		n.right = insert(n.right, rec)
	}
	return rebalance(n)
}

func height(n *node) int {
	if n == nil {
		return 0
	}
	return n.height
}

func maxHigh(n *node) float64 {
	if n == nil {
		return math.Inf(-1)
	}
	return n.maxHigh
}

func update(n *node) {
	n.height = 1 + max(height(n.left), height(n.right))
	n.maxHigh = math.Max(n.rec.High, math.Max(maxHigh(n.left), maxHigh(n.right)))
}

func rotateRight(n *node) *node {
	l := n.left
	n.left = l.right
	l.right = n
	update(n)
	update(l)
	return l
}

func rotateLeft(n *node) *node {
	r := n.right
	n.right = r.left
	r.left = n
	update(n)
	update(r)
	return r
}

func rebalance(n *node) *node {
	update(n)
	switch balance := height(n.left) - height(n.right); {
	case balance > 1:
		if height(n.left.left) < height(n.left.right) {
			n.left = rotateLeft(n.left)
		}
		return rotateRight(n)
	case balance < -1:
		if height(n.right.right) < height(n.right.left) {
			n.right = rotateRight(n.right)
		}
		return rotateLeft(n)
	}
	return n
}
