package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/san-kum/nanosim/internal/dynamo"
	"github.com/san-kum/nanosim/internal/timeline"
)

// wireRecord is the on-disk form of a record: [low, high, {agent: state}].
// The sentinel's infinite lower bound is written as null.
type wireRecord struct {
	Low     *float64
	High    float64
	Payload dynamo.Universe
}

func (w wireRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{w.Low, w.High, w.Payload})
}

func (w *wireRecord) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	if len(parts) != 3 {
		return fmt.Errorf("record has %d fields, want 3", len(parts))
	}
	if err := json.Unmarshal(parts[0], &w.Low); err != nil {
		return fmt.Errorf("low: %w", err)
	}
	if err := json.Unmarshal(parts[1], &w.High); err != nil {
		return fmt.Errorf("high: %w", err)
	}
	return json.Unmarshal(parts[2], &w.Payload)
}

func toWire(recs []timeline.Record) []wireRecord {
	out := make([]wireRecord, len(recs))
	for i, r := range recs {
		out[i] = wireRecord{High: r.High, Payload: r.Payload}
		if !math.IsInf(r.Low, -1) {
			low := r.Low
			out[i].Low = &low
		}
	}
	return out
}

// fromWire numbers Seq by file position, matching what timeline.Rebuild
// assigns when the records are reloaded.
func fromWire(ws []wireRecord) []timeline.Record {
	out := make([]timeline.Record, len(ws))
	for i, w := range ws {
		out[i] = timeline.Record{Low: timeline.SentinelLow, High: w.High, Payload: w.Payload, Seq: uint64(i + 1)}
		if w.Low != nil {
			out[i].Low = *w.Low
		}
	}
	return out
}

// ExportJSON writes the ordered timeline as an indented JSON array.
func ExportJSON(w io.Writer, recs []timeline.Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(toWire(recs))
}

// ImportJSON reads a timeline written by ExportJSON.
func ImportJSON(r io.Reader) ([]timeline.Record, error) {
	var ws []wireRecord
	if err := json.NewDecoder(r).Decode(&ws); err != nil {
		return nil, err
	}
	return fromWire(ws), nil
}

var csvHeader = []string{"low", "high", "agent", "time", "time_step", "x", "y", "vx", "vy"}

// ExportCSV writes one row per agent state per record.
func ExportCSV(w io.Writer, recs []timeline.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, r := range recs {
		for _, id := range r.Payload.Agents() {
			st := r.Payload[id]
			row := []string{formatFloat(r.Low), formatFloat(r.High), string(id)}
			for _, v := range []float64{st.Time, st.TimeStep, st.X, st.Y, st.VX, st.VY} {
				row = append(row, formatFloat(v))
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
