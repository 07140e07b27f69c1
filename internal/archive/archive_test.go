package archive

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/san-kum/nanosim/internal/dynamo"
	"github.com/san-kum/nanosim/internal/timeline"
)

func openTemp(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "archive.db"))
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleRecords() []timeline.Record {
	return []timeline.Record{
		{Low: math.Inf(-1), High: 0, Payload: dynamo.Universe{
			dynamo.Planet:    {Y: 0.1, VX: 0.1},
			dynamo.Satellite: {Y: 1, VX: 1},
		}},
		{Low: 0, High: 0.05, Payload: dynamo.Universe{dynamo.Planet: {Time: 0.05, TimeStep: 0.05, X: 0.005, Y: 0.1, VX: 0.1}}},
		{Low: 0, High: 0.03, Payload: dynamo.Universe{dynamo.Satellite: {Time: 0.03, TimeStep: 0.03, X: 0.03, Y: 0.999, VX: 1, VY: -0.03}}},
		{Low: 0.03, High: 0.08, Payload: dynamo.Universe{dynamo.Satellite: {Time: 0.08, TimeStep: 0.05, X: 0.08, Y: 0.997, VX: 1, VY: -0.08}}},
	}
}

func TestSaveAndLoadRecords(t *testing.T) {
	db := openTemp(t)
	recs := sampleRecords()

	runID, err := db.SaveRun("nano", 42, recs)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := db.Records(runID)
	if err != nil {
		t.Fatalf("records failed: %v", err)
	}
	if len(got) != len(recs) {
		t.Fatalf("expected %d records, got %d", len(recs), len(got))
	}
	if !got[0].IsSentinel() || len(got[0].Payload) != 2 {
		t.Errorf("sentinel not restored: %+v", got[0])
	}
	for i := range recs {
		if got[i].Low != recs[i].Low || got[i].High != recs[i].High {
			t.Errorf("record %d bounds differ", i)
		}
		for id, st := range recs[i].Payload {
			if got[i].Payload[id] != st {
				t.Errorf("record %d %s: got %+v, want %+v", i, id, got[i].Payload[id], st)
			}
		}
	}

	runs, err := db.Runs()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].ID != runID || runs[0].Records != 4 || runs[0].Seed != 42 {
		t.Errorf("unexpected runs: %+v", runs)
	}
}

func TestUniverseMatchesInMemoryReader(t *testing.T) {
	db := openTemp(t)
	recs := sampleRecords()
	runID, err := db.SaveRun("nano", 1, recs)
	if err != nil {
		t.Fatal(err)
	}

	mem := timeline.New()
	for _, r := range recs {
		if err := mem.Insert(r.Low, r.High, r.Payload); err != nil {
			t.Fatal(err)
		}
	}
	reader := timeline.NewReader(mem)

	for _, q := range []float64{-100, -0.001, 0, 0.02, 0.04, 0.06, 0.5} {
		got, err := db.Universe(runID, q)
		if err != nil {
			t.Fatalf("t=%v: %v", q, err)
		}
		want := reader.Read(q)
		if len(got) != len(want) {
			t.Errorf("t=%v: got %v, want %v", q, got.Agents(), want.Agents())
			continue
		}
		for id := range want {
			if got[id] != want[id] {
				t.Errorf("t=%v: %s differs", q, id)
			}
		}
	}
}

func TestRecordsUnknownRun(t *testing.T) {
	db := openTemp(t)
	if _, err := db.Records("nope"); err == nil {
		t.Error("expected error for unknown run")
	}
}
