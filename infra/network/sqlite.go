package network

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"

	_ "modernc.org/sqlite"

	"github.com/kilianp07/metroplan/core/model"
)

// SQLiteStore persists the network catalog in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS lines (
        position INTEGER NOT NULL,
        id TEXT PRIMARY KEY,
        stations TEXT NOT NULL
    );
    CREATE TABLE IF NOT EXISTS depots (
        position INTEGER NOT NULL,
        id TEXT PRIMARY KEY,
        capacity INTEGER NOT NULL,
        available_trains INTEGER NOT NULL,
        max_induct_per_hour INTEGER NOT NULL
    );
    CREATE TABLE IF NOT EXISTS settings (
        key TEXT PRIMARY KEY,
        value TEXT NOT NULL
    );`
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Save replaces the stored catalog with n.
func (s *SQLiteStore) Save(ctx context.Context, n model.Network) error {
	if err := n.Validate(); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range []string{`DELETE FROM lines`, `DELETE FROM depots`, `DELETE FROM settings`} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	for i, l := range n.Lines {
		st, err := json.Marshal(l.Stations)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO lines (position, id, stations) VALUES (?, ?, ?)`,
			i, l.ID, string(st)); err != nil {
			return fmt.Errorf("insert line %s: %w", l.ID, err)
		}
	}
	for i, d := range n.Depots {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO depots (position, id, capacity, available_trains, max_induct_per_hour) VALUES (?, ?, ?, ?, ?)`,
			i, d.ID, d.Capacity, d.AvailableTrains, d.MaxInductPerHour); err != nil {
			return fmt.Errorf("insert depot %s: %w", d.ID, err)
		}
	}
	hours, err := json.Marshal(n.Hours)
	if err != nil {
		return err
	}
	settings := map[string]string{
		"train_capacity": strconv.Itoa(n.TrainCapacity),
		"hours":          string(hours),
	}
	for k, v := range settings {
		if _, err := tx.ExecContext(ctx, `INSERT INTO settings (key, value) VALUES (?, ?)`, k, v); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Network loads the stored catalog in its saved order.
func (s *SQLiteStore) Network(ctx context.Context) (model.Network, error) {
	var n model.Network
	lines, err := s.lines(ctx)
	if err != nil {
		return n, err
	}
	depots, err := s.depots(ctx)
	if err != nil {
		return n, err
	}
	n.Lines, n.Depots = lines, depots

	var capacity, hours string
	if err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = 'train_capacity'`).Scan(&capacity); err != nil {
		if err == sql.ErrNoRows {
			return n, fmt.Errorf("network catalog is empty")
		}
		return n, err
	}
	if n.TrainCapacity, err = strconv.Atoi(capacity); err != nil {
		return n, fmt.Errorf("train_capacity: %w", err)
	}
	err = s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = 'hours'`).Scan(&hours)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return n, err
	default:
		if err := json.Unmarshal([]byte(hours), &n.Hours); err != nil {
			return n, fmt.Errorf("hours: %w", err)
		}
	}
	return n, n.Validate()
}

func (s *SQLiteStore) lines(ctx context.Context) (model.Lines, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, stations FROM lines ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res model.Lines
	for rows.Next() {
		var (
			l    model.Line
			data string
		)
		if err := rows.Scan(&l.ID, &data); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(data), &l.Stations); err != nil {
			return nil, fmt.Errorf("line %s stations: %w", l.ID, err)
		}
		res = append(res, l)
	}
	return res, rows.Err()
}

func (s *SQLiteStore) depots(ctx context.Context) (model.Depots, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, capacity, available_trains, max_induct_per_hour FROM depots ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res model.Depots
	for rows.Next() {
		var d model.Depot
		if err := rows.Scan(&d.ID, &d.Capacity, &d.AvailableTrains, &d.MaxInductPerHour); err != nil {
			return nil, err
		}
		res = append(res, d)
	}
	return res, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
