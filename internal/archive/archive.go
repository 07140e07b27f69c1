// Package archive keeps completed timelines in SQLite so that universes of
// past runs can be queried without loading whole files.
package archive

import (
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/san-kum/nanosim/internal/dynamo"
	"github.com/san-kum/nanosim/internal/timeline"
)

// DB wraps a SQLite connection holding archived runs.
type DB struct {
	conn *sqlx.DB
}

// Run is one archived simulation.
type Run struct {
	ID        string    `db:"id"`
	Label     string    `db:"label"`
	Seed      int64     `db:"seed"`
	Records   int       `db:"records"`
	CreatedAt time.Time `db:"created_at"`
}

type stateRow struct {
	Seq      int64           `db:"seq"`
	Low      sql.NullFloat64 `db:"low"`
	High     float64         `db:"high"`
	Agent    string          `db:"agent"`
	Time     float64         `db:"time"`
	TimeStep float64         `db:"time_step"`
	X        float64         `db:"x"`
	Y        float64         `db:"y"`
	VX       float64         `db:"vx"`
	VY       float64         `db:"vy"`
}

// Open opens or creates an archive at path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		label TEXT NOT NULL,
		seed INTEGER NOT NULL,
		records INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS states (
		run_id TEXT NOT NULL REFERENCES runs(id),
		seq INTEGER NOT NULL,
		low REAL,
		high REAL NOT NULL,
		agent TEXT NOT NULL,
		time REAL NOT NULL,
		time_step REAL NOT NULL,
		x REAL NOT NULL,
		y REAL NOT NULL,
		vx REAL NOT NULL,
		vy REAL NOT NULL,
		PRIMARY KEY (run_id, seq, agent)
	);

	CREATE INDEX IF NOT EXISTS idx_states_cover ON states(run_id, low, high);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveRun archives a timeline in one transaction and returns the run id.
// A NULL low stands for the sentinel's unbounded past.
func (db *DB) SaveRun(label string, seed int64, recs []timeline.Record) (string, error) {
	tx, err := db.conn.Beginx()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	runID := uuid.NewString()
	if _, err := tx.Exec(`INSERT INTO runs (id, label, seed, records, created_at) VALUES (?, ?, ?, ?, ?)`,
		runID, label, seed, len(recs), time.Now().UTC()); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.Preparex(`INSERT INTO states
		(run_id, seq, low, high, agent, time, time_step, x, y, vx, vy)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()

	for i, r := range recs {
		low := sql.NullFloat64{Float64: r.Low, Valid: !math.IsInf(r.Low, -1)}
		for _, id := range r.Payload.Agents() {
			st := r.Payload[id]
			if _, err := stmt.Exec(runID, i+1, low, r.High, string(id),
				st.Time, st.TimeStep, st.X, st.Y, st.VX, st.VY); err != nil {
				return "", fmt.Errorf("insert record %d agent %s: %w", i+1, id, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return runID, nil
}

// Runs lists archived runs, newest first.
func (db *DB) Runs() ([]Run, error) {
	var runs []Run
	err := db.conn.Select(&runs, `SELECT id, label, seed, records, created_at FROM runs ORDER BY created_at DESC`)
	return runs, err
}

// Records returns an archived timeline in store order.
func (db *DB) Records(runID string) ([]timeline.Record, error) {
	var rows []stateRow
	err := db.conn.Select(&rows, `SELECT seq, low, high, agent, time, time_step, x, y, vx, vy
		FROM states WHERE run_id = ? ORDER BY seq, agent`, runID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("run %s: %w", runID, sql.ErrNoRows)
	}
	return group(rows), nil
}

// Universe answers the half-open cover query low <= t < high in SQL and
// folds the matches with the later record winning.
func (db *DB) Universe(runID string, t float64) (dynamo.Universe, error) {
	var rows []stateRow
	err := db.conn.Select(&rows, `SELECT seq, low, high, agent, time, time_step, x, y, vx, vy
		FROM states
		WHERE run_id = ? AND (low IS NULL OR low <= ?) AND ? < high
		ORDER BY seq`, runID, t, t)
	if err != nil {
		return nil, err
	}
	return timeline.Merge(group(rows)), nil
}

func group(rows []stateRow) []timeline.Record {
	var recs []timeline.Record
	for _, row := range rows {
		if len(recs) == 0 || recs[len(recs)-1].Seq != uint64(row.Seq) {
			low := timeline.SentinelLow
			if row.Low.Valid {
				low = row.Low.Float64
			}
			recs = append(recs, timeline.Record{
				Low:     low,
				High:    row.High,
				Payload: make(dynamo.Universe),
				Seq:     uint64(row.Seq),
			})
		}
		recs[len(recs)-1].Payload[dynamo.AgentID(row.Agent)] = dynamo.State{
			Time: row.Time, TimeStep: row.TimeStep,
			X: row.X, Y: row.Y, VX: row.VX, VY: row.VY,
		}
	}
	return recs
}
