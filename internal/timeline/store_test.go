package timeline

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/san-kum/nanosim/internal/dynamo"
)

func payload(id dynamo.AgentID, x float64) dynamo.Universe {
	return dynamo.Universe{id: {X: x}}
}

func TestInsertInvalidRange(t *testing.T) {
	tests := []struct {
		name      string
		low, high float64
	}{
		{"equal bounds", 1.0, 1.0},
		{"inverted", 2.0, 1.0},
		{"nan low", math.NaN(), 1.0},
		{"nan high", 0.0, math.NaN()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			if err := s.Insert(0, 1, payload(dynamo.Planet, 0)); err != nil {
				t.Fatalf("valid insert failed: %v", err)
			}

			err := s.Insert(tt.low, tt.high, payload(dynamo.Planet, 1))
			if !errors.Is(err, dynamo.ErrInvalidRange) {
				t.Fatalf("expected ErrInvalidRange, got %v", err)
			}
			if s.Len() != 1 {
				t.Errorf("store changed on failed insert: len %d", s.Len())
			}
		})
	}
}

func TestInsertKeepsOrder(t *testing.T) {
	s := New()
	lows := []float64{3, 1, 2, 1, 0}
	for i, low := range lows {
		if err := s.Insert(low, low+1, payload(dynamo.Planet, float64(i))); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	recs := s.Records()
	if len(recs) != len(lows) {
		t.Fatalf("expected %d records, got %d", len(lows), len(recs))
	}
	for i := 1; i < len(recs); i++ {
		if recs[i].Low < recs[i-1].Low {
			t.Errorf("records out of order at %d: %v after %v", i, recs[i].Low, recs[i-1].Low)
		}
	}

	// the two records with low=1 keep insertion order
	if recs[1].Payload[dynamo.Planet].X != 1 || recs[2].Payload[dynamo.Planet].X != 3 {
		t.Errorf("equal lows not stable: %v, %v", recs[1].Payload, recs[2].Payload)
	}
}

func TestInsertCopiesPayload(t *testing.T) {
	s := New()
	p := payload(dynamo.Planet, 1)
	if err := s.Insert(0, 1, p); err != nil {
		t.Fatal(err)
	}
	p[dynamo.Planet] = dynamo.State{X: 99}

	rec, ok := s.LookupOne(0.5)
	if !ok {
		t.Fatal("expected record")
	}
	if rec.Payload[dynamo.Planet].X != 1 {
		t.Errorf("stored payload mutated: %v", rec.Payload)
	}
}

func TestLookupAllHalfOpen(t *testing.T) {
	s := New()
	_ = s.Insert(0, 1, payload(dynamo.Planet, 0))

	if got := s.LookupAll(0); len(got) != 1 {
		t.Errorf("low bound should be inclusive, got %d records", len(got))
	}
	if got := s.LookupAll(1); len(got) != 0 {
		t.Errorf("high bound should be exclusive, got %d records", len(got))
	}
	if got := s.LookupAll(-0.5); len(got) != 0 {
		t.Errorf("expected no records before range, got %d", len(got))
	}
}

func TestLookupAllTwoAgents(t *testing.T) {
	s := New()
	_ = s.Seed(dynamo.Universe{dynamo.Planet: {}, dynamo.Satellite: {}}, 0)

	// planet advances in steps of 0.3, satellite in steps of 0.5
	for low := 0.0; low < 3; low += 0.3 {
		_ = s.Insert(low, low+0.3, payload(dynamo.Planet, low))
	}
	for low := 0.0; low < 3; low += 0.5 {
		_ = s.Insert(low, low+0.5, payload(dynamo.Satellite, low))
	}

	for _, q := range []float64{0.1, 0.7, 1.45, 2.2} {
		got := s.LookupAll(q)
		if len(got) != 2 {
			t.Errorf("t=%.2f: expected 2 records, got %d", q, len(got))
			continue
		}
		ids := map[dynamo.AgentID]bool{}
		for _, r := range got {
			for id := range r.Payload {
				ids[id] = true
			}
		}
		if !ids[dynamo.Planet] || !ids[dynamo.Satellite] {
			t.Errorf("t=%.2f: missing agent, got %v", q, ids)
		}
	}

	if got := s.LookupAll(-1); len(got) != 1 || !got[0].IsSentinel() {
		t.Errorf("expected only the sentinel before t=0, got %v", got)
	}
}

func TestLookupAllMatchesLinearScan(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	s := New()
	var all []Record

	for i := 0; i < 500; i++ {
		low := rng.Float64() * 100
		high := low + 0.01 + rng.Float64()*10
		if err := s.Insert(low, high, payload(dynamo.Planet, float64(i))); err != nil {
			t.Fatal(err)
		}
		all = append(all, Record{Low: low, High: high})
	}

	for i := 0; i < 200; i++ {
		q := rng.Float64()*120 - 10
		want := 0
		for _, r := range all {
			if r.Covers(q) {
				want++
			}
		}
		got := s.LookupAll(q)
		if len(got) != want {
			t.Fatalf("t=%.4f: expected %d records, got %d", q, want, len(got))
		}
		for j, r := range got {
			if !r.Covers(q) {
				t.Fatalf("t=%.4f: record %d [%v, %v) does not cover", q, j, r.Low, r.High)
			}
			if j > 0 && r.Low < got[j-1].Low {
				t.Fatalf("t=%.4f: results not in store order", q)
			}
		}
	}
}

func TestLookupOneLatest(t *testing.T) {
	s := New()
	_ = s.Insert(0, 10, payload(dynamo.Planet, 1))
	_ = s.Insert(2, 4, payload(dynamo.Planet, 2))
	_ = s.Insert(1, 5, payload(dynamo.Planet, 3))

	rec, ok := s.LookupOne(3)
	if !ok {
		t.Fatal("expected a record")
	}
	if rec.Payload[dynamo.Planet].X != 3 {
		t.Errorf("expected most recent insert, got %v", rec.Payload)
	}

	if _, ok := s.LookupOne(20); ok {
		t.Error("expected no record at t=20")
	}
}

func TestSeedSentinel(t *testing.T) {
	s := New()
	initial := dynamo.Universe{dynamo.Planet: {Y: 0.1}, dynamo.Satellite: {Y: 1}}
	if err := s.Seed(initial, 0); err != nil {
		t.Fatal(err)
	}

	recs := s.LookupAll(-1e12)
	if len(recs) != 1 {
		t.Fatalf("expected sentinel to cover far past, got %d", len(recs))
	}
	if !recs[0].IsSentinel() || recs[0].High != 0 {
		t.Errorf("unexpected sentinel bounds [%v, %v)", recs[0].Low, recs[0].High)
	}
	if len(recs[0].Payload) != 2 {
		t.Errorf("sentinel should carry every agent, got %v", recs[0].Payload)
	}
}

func TestRebuildRenumbersByStoreOrder(t *testing.T) {
	s := New()
	if err := s.Insert(1, 3, payload(dynamo.Planet, 0)); err != nil {
		t.Fatal(err)
	}
	if err := s.Insert(0, 2, payload(dynamo.Planet, 1)); err != nil {
		t.Fatal(err)
	}
	if rec, _ := s.LookupOne(1.5); rec.Payload[dynamo.Planet].X != 1 {
		t.Fatalf("expected the later insert to win, got %v", rec.Payload)
	}

	rebuilt, err := Rebuild(s.Records())
	if err != nil {
		t.Fatal(err)
	}
	recs := rebuilt.Records()
	for i, r := range recs {
		if r.Seq != uint64(i+1) {
			t.Errorf("record %d: expected seq %d, got %d", i, i+1, r.Seq)
		}
	}
	// [1, 3) comes second in store order and now wins the overlap
	if rec, _ := rebuilt.LookupOne(1.5); rec.Payload[dynamo.Planet].X != 0 {
		t.Errorf("expected store order to win after rebuild, got %v", rec.Payload)
	}

	if _, err := Rebuild([]Record{{Low: 2, High: 1}}); !errors.Is(err, dynamo.ErrInvalidRange) {
		t.Errorf("expected ErrInvalidRange, got %v", err)
	}
}

func BenchmarkLookupAll(b *testing.B) {
	s := New()
	for i := 0; i < 100000; i++ {
		low := float64(i) * 0.01
		_ = s.Insert(low, low+0.01, payload(dynamo.Planet, 0))
		_ = s.Insert(low+0.005, low+0.015, payload(dynamo.Satellite, 0))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.LookupAll(float64(i%100000) * 0.01)
	}
}
