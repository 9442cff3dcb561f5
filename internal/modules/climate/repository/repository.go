package repository

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/Christian-SuMePa/hausserver/internal/modules/climate/types"
)

//go:embed sql/insert-measurement.sql
var insertMeasurementSQL string

//go:embed sql/list-day.sql
var listDaySQL string

//go:embed sql/latest-measurement.sql
var latestMeasurementSQL string

//go:embed sql/purge-older-than.sql
var purgeOlderThanSQL string

// Retention deletes run in slices so one sweep never holds the write lock
// long enough to starve the sampler.
const purgeBatchSize = 500

type ClimateRepository interface {
	Insert(m types.Measurement) (int64, error)
	ListDay(day time.Time) ([]types.Measurement, error)
	Latest() (*types.Measurement, error)
	PurgeOlderThan(cutoff time.Time) (int64, error)
}

type repositoryImpl struct {
	db  *sql.DB
	loc *time.Location
}

// NewRepository binds the measurement store to one civil-time zone. All day
// windows are computed in loc and timestamps come back converted to it.
func NewRepository(db *sql.DB, loc *time.Location) ClimateRepository {
	return &repositoryImpl{db: db, loc: loc}
}

// Insert stores one measurement and returns its row id. The timestamp is
// written twice: as civil RFC3339 text for humans and as a unix integer for
// range scans.
func (r *repositoryImpl) Insert(m types.Measurement) (int64, error) {
	if m.HumidityPct < 0 || m.HumidityPct > 100 {
		return 0, fmt.Errorf("humidity_pct out of range: %f (must be 0-100)", m.HumidityPct)
	}
	if m.Timestamp.IsZero() {
		return 0, fmt.Errorf("measurement timestamp is zero")
	}

	ts := m.Timestamp.In(r.loc)
	res, err := r.db.Exec(insertMeasurementSQL,
		ts.Format(time.RFC3339Nano),
		ts.Unix(),
		m.TemperatureC,
		m.HumidityPct,
		m.DewPointC,
	)
	if err != nil {
		return 0, fmt.Errorf("insert measurement: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("measurement row id: %w", err)
	}
	return id, nil
}

// ListDay returns the measurements of the civil day containing the given
// instant, ordered by time ascending. Day boundaries are local midnights;
// comparison happens on unix seconds so DST days keep their real length.
func (r *repositoryImpl) ListDay(day time.Time) ([]types.Measurement, error) {
	local := day.In(r.loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, r.loc)
	end := start.AddDate(0, 0, 1)

	rows, err := r.db.Query(listDaySQL, start.Unix(), end.Unix())
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close day rows", "error", err)
		}
	}()

	var out []types.Measurement
	for rows.Next() {
		m, err := r.scanMeasurement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Latest returns the most recent measurement, or nil when the store is empty.
func (r *repositoryImpl) Latest() (*types.Measurement, error) {
	row := r.db.QueryRow(latestMeasurementSQL)
	var (
		m  types.Measurement
		ts string
	)
	err := row.Scan(&m.ID, &ts, &m.TemperatureC, &m.HumidityPct, &m.DewPointC)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	t, err := r.parseTimestamp(ts)
	if err != nil {
		return nil, err
	}
	m.Timestamp = t
	return &m, nil
}

// PurgeOlderThan deletes everything strictly before cutoff in batches and
// returns how many rows went away.
func (r *repositoryImpl) PurgeOlderThan(cutoff time.Time) (int64, error) {
	var total int64
	for {
		res, err := r.db.Exec(purgeOlderThanSQL, cutoff.Unix(), purgeBatchSize)
		if err != nil {
			return total, fmt.Errorf("purge batch: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("purge rows affected: %w", err)
		}
		total += affected
		if affected == 0 {
			return total, nil
		}
	}
}

func (r *repositoryImpl) scanMeasurement(rows *sql.Rows) (types.Measurement, error) {
	var (
		m  types.Measurement
		ts string
	)
	if err := rows.Scan(&m.ID, &ts, &m.TemperatureC, &m.HumidityPct, &m.DewPointC); err != nil {
		return types.Measurement{}, err
	}
	t, err := r.parseTimestamp(ts)
	if err != nil {
		return types.Measurement{}, err
	}
	m.Timestamp = t
	return m, nil
}

func (r *repositoryImpl) parseTimestamp(ts string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		var err2 error
		t, err2 = time.Parse(time.RFC3339, ts)
		if err2 != nil {
			return time.Time{}, fmt.Errorf("parse timestamp %q: RFC3339Nano: %w; RFC3339: %w", ts, err, err2)
		}
	}
	return t.In(r.loc), nil
}
