package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/banshee-data/particle.report/internal/particle/l1grid"
	"github.com/banshee-data/particle.report/internal/particle/l2tracks"
	"github.com/banshee-data/particle.report/internal/particle/l3objects"
	"github.com/banshee-data/particle.report/internal/timeutil"
)

// Run is one persisted extraction over a grid.
type Run struct {
	RunID      string `json:"run_id"`
	Source     string `json:"source"`
	Reach      int    `json:"reach"`
	Rows       int    `json:"rows"`
	Cols       int    `json:"cols"`
	TrackCount int    `json:"track_count"`
	Model      string `json:"model"`
	CreatedAt  int64  `json:"created_at"`
}

// RunStore provides persistence for particle runs and their tracks.
type RunStore struct {
	db    *DB
	clock timeutil.Clock
}

// NewRunStore creates a new RunStore stamping runs with the wall clock.
func NewRunStore(db *DB) *RunStore {
	return NewRunStoreWithClock(db, timeutil.RealClock{})
}

// NewRunStoreWithClock creates a RunStore that reads CreatedAt from clock.
func NewRunStoreWithClock(db *DB, clock timeutil.Clock) *RunStore {
	return &RunStore{db: db, clock: clock}
}

// InsertRun persists a run. If RunID is empty, a UUID is generated.
func (s *RunStore) InsertRun(run *Run) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt == 0 {
		run.CreatedAt = s.clock.Now().UnixNano()
	}

	return retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO particle_runs (
				run_id, source, reach, grid_rows, grid_cols, track_count, model, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			run.RunID, run.Source, run.Reach, run.Rows, run.Cols,
			run.TrackCount, run.Model, run.CreatedAt,
		)
		return err
	})
}

// GetRun returns the run with the given id, or ErrRunNotFound.
func (s *RunStore) GetRun(runID string) (*Run, error) {
	row := s.db.QueryRow(`
		SELECT run_id, source, reach, grid_rows, grid_cols, track_count, model, created_at
		FROM particle_runs WHERE run_id = ?`, runID)

	var r Run
	err := row.Scan(&r.RunID, &r.Source, &r.Reach, &r.Rows, &r.Cols, &r.TrackCount, &r.Model, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &r, nil
}

// ListRuns returns up to limit runs, newest first.
func (s *RunStore) ListRuns(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(`
		SELECT run_id, source, reach, grid_rows, grid_cols, track_count, model, created_at
		FROM particle_runs
		ORDER BY created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.RunID, &r.Source, &r.Reach, &r.Rows, &r.Cols, &r.TrackCount, &r.Model, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, &r)
	}
	return runs, rows.Err()
}

// InsertTracks stores the tracks of a run in a single transaction. Summaries
// without coordinates are stored with a NULL coords_json.
func (s *RunStore) InsertTracks(runID string, tracks []l3objects.Summary) error {
	return retryOnBusy(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		defer tx.Rollback()

		stmt, err := tx.Prepare(`
			INSERT INTO particle_tracks (
				run_id, track_id, part_type, size, total_energy, avg_energy,
				max_energy, roundness, winding, coords_json
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, t := range tracks {
			var coords interface{}
			if t.Coords != nil {
				b, err := json.Marshal(t.Coords)
				if err != nil {
					return fmt.Errorf("failed to encode coords for track %d: %w", t.ID, err)
				}
				coords = string(b)
			}
			if _, err := stmt.Exec(
				runID, int(t.ID), t.Type.String(), t.Size,
				t.TotalEnergy, t.AvgEnergy, t.MaxEnergy,
				nullFloat(t.Roundness), nullFloat(t.Winding), coords,
			); err != nil {
				return fmt.Errorf("failed to insert track %d: %w", t.ID, err)
			}
		}
		return tx.Commit()
	})
}

// ListTracks returns the tracks of a run ordered by track id.
func (s *RunStore) ListTracks(runID string) ([]l3objects.Summary, error) {
	rows, err := s.db.Query(`
		SELECT track_id, part_type, size, total_energy, avg_energy, max_energy,
		       roundness, winding, coords_json
		FROM particle_tracks
		WHERE run_id = ?
		ORDER BY track_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracks: %w", err)
	}
	defer rows.Close()

	var out []l3objects.Summary
	for rows.Next() {
		var (
			rec       l3objects.Summary
			id        int
			partType  string
			roundness sql.NullFloat64
			winding   sql.NullFloat64
			coords    sql.NullString
		)
		if err := rows.Scan(&id, &partType, &rec.Size, &rec.TotalEnergy, &rec.AvgEnergy, &rec.MaxEnergy,
			&roundness, &winding, &coords); err != nil {
			return nil, fmt.Errorf("failed to scan track: %w", err)
		}
		rec.ID = l2tracks.TrackID(id)
		if rec.Type, err = l3objects.ParsePartType(partType); err != nil {
			return nil, fmt.Errorf("track %d: %w", id, err)
		}
		if roundness.Valid {
			rec.Roundness = &roundness.Float64
		}
		if winding.Valid {
			rec.Winding = &winding.Float64
		}
		if coords.Valid {
			var cs []l1grid.Coord
			if err := json.Unmarshal([]byte(coords.String), &cs); err != nil {
				return nil, fmt.Errorf("track %d: failed to decode coords: %w", id, err)
			}
			rec.Coords = cs
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// TallyByRun counts the stored tracks of a run by type. Every type is
// present in the result.
func (s *RunStore) TallyByRun(runID string) (map[l3objects.PartType]int, error) {
	rows, err := s.db.Query(`
		SELECT part_type, COUNT(*)
		FROM particle_tracks
		WHERE run_id = ?
		GROUP BY part_type`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to tally run: %w", err)
	}
	defer rows.Close()

	tally := make(map[l3objects.PartType]int, len(l3objects.AllPartTypes))
	for _, pt := range l3objects.AllPartTypes {
		tally[pt] = 0
	}
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, fmt.Errorf("failed to scan tally: %w", err)
		}
		pt, err := l3objects.ParsePartType(name)
		if err != nil {
			return nil, err
		}
		tally[pt] = n
	}
	return tally, rows.Err()
}

// DeleteRun removes a run and, through the foreign key, its tracks.
func (s *RunStore) DeleteRun(runID string) error {
	return retryOnBusy(func() error {
		res, err := s.db.Exec(`DELETE FROM particle_runs WHERE run_id = ?`, runID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil
	})
}

func nullFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
