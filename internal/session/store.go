// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package session

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/relabs-tech/gaze_computer/internal/calibration"
)

// Store indexes sessions and calibration attempts in SQLite so accuracy can
// be compared across sessions without parsing the JSON files.
type Store struct {
	db *sql.DB
}

// CalibrationRow is one stored calibration attempt.
type CalibrationRow struct {
	SessionID    string
	Attempt      int
	AverageError float64
	Quality      string
	Score        float64
	Success      bool
	Timestamp    string
}

// OpenStore opens or creates the database and its schema.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}

	schema := `
CREATE TABLE IF NOT EXISTS sessions (
	session_id    TEXT PRIMARY KEY,
	tracker_type  TEXT NOT NULL,
	window_width  INTEGER NOT NULL,
	window_height INTEGER NOT NULL,
	sample_count  INTEGER NOT NULL,
	dropped_count INTEGER NOT NULL,
	timestamp     DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS calibrations (
	session_id    TEXT NOT NULL,
	attempt       INTEGER NOT NULL,
	average_error REAL NOT NULL,
	median_error  REAL NOT NULL,
	std_error     REAL NOT NULL,
	min_error     REAL NOT NULL,
	max_error     REAL NOT NULL,
	percent_above REAL NOT NULL,
	quality       TEXT NOT NULL,
	score         REAL NOT NULL,
	success       INTEGER NOT NULL,
	timestamp     DATETIME DEFAULT CURRENT_TIMESTAMP
);
`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create session schema: %w", err)
	}

	return &Store{db: db}, nil
}

// RecordSession upserts the session row.
func (s *Store) RecordSession(sessionID, trackerType string, winW, winH, sampleCount, droppedCount int) error {
	_, err := s.db.Exec(`
INSERT INTO sessions (session_id, tracker_type, window_width, window_height, sample_count, dropped_count)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(session_id) DO UPDATE SET
	tracker_type = excluded.tracker_type,
	sample_count = excluded.sample_count,
	dropped_count = excluded.dropped_count`,
		sessionID, trackerType, winW, winH, sampleCount, droppedCount)
	if err != nil {
		return fmt.Errorf("failed to record session: %w", err)
	}
	return nil
}

// RecordCalibration stores one calibration attempt's statistics.
func (s *Store) RecordCalibration(sessionID string, attempt int, res *calibration.Result, success bool) error {
	_, err := s.db.Exec(`
INSERT INTO calibrations (session_id, attempt, average_error, median_error, std_error, min_error, max_error, percent_above, quality, score, success)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, attempt, res.Average, res.Median, res.Std, res.Min, res.Max,
		res.PercentAboveThreshold, string(res.Quality), res.Score, success)
	if err != nil {
		return fmt.Errorf("failed to record calibration: %w", err)
	}
	return nil
}

// Calibrations returns the stored attempts for a session, oldest first.
func (s *Store) Calibrations(sessionID string) ([]CalibrationRow, error) {
	rows, err := s.db.Query(`
SELECT session_id, attempt, average_error, quality, score, success, timestamp
FROM calibrations WHERE session_id = ? ORDER BY attempt`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query calibrations: %w", err)
	}
	defer rows.Close()

	var out []CalibrationRow
	for rows.Next() {
		var r CalibrationRow
		if err := rows.Scan(&r.SessionID, &r.Attempt, &r.AverageError, &r.Quality, &r.Score, &r.Success, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan calibration row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
