package timeline

import "github.com/san-kum/nanosim/internal/dynamo"

// Reader materializes universe snapshots from a Store.
type Reader struct {
	store *Store
}

func NewReader(s *Store) *Reader {
	return &Reader{store: s}
}

// Read merges the payloads of every record covering t into one universe.
// When two covering records carry the same agent, the later insertion wins.
func (r *Reader) Read(t float64) dynamo.Universe {
	return Merge(r.store.LookupAll(t))
}

// Merge folds record payloads by key union, last insertion winning.
func Merge(recs []Record) dynamo.Universe {
	u := make(dynamo.Universe)
	seen := make(map[dynamo.AgentID]uint64)
	for _, rec := range recs {
		for id, st := range rec.Payload {
			if seq, ok := seen[id]; ok && seq > rec.Seq {
				continue
			}
			u[id] = st
			seen[id] = rec.Seq
		}
	}
	return u
}
