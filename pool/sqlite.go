package pool

import (
	"database/sql"
	"fmt"
	"sync"
)

// SchemaVersion is the version of the database layout written by SQLite.
const SchemaVersion = "1"

// SQLite is a variable pool persisted in a SQLite database, so variables
// survive between runs in the manner of GLOBALV.
type SQLite struct {
	mu sync.Mutex
	db *sql.DB
}

// NewSQLite opens or creates a pool in the database at path.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, err
	}
	// Each connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS vars (
			name TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS metadata (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		db.Close()
		return nil, err
	}
	s := &SQLite{db: db}
	version, err := s.metadata("schema_version")
	if err != nil {
		db.Close()
		return nil, err
	}
	switch version {
	case "":
		if err := s.setMetadata("schema_version", SchemaVersion); err != nil {
			db.Close()
			return nil, err
		}
	case SchemaVersion:
	default:
		db.Close()
		return nil, fmt.Errorf("unsupported schema version: %s (expected %s)", version, SchemaVersion)
	}
	return s, nil
}

// Lookup returns the value of a variable, falling back to the value of its
// stem for compound variables.
func (s *SQLite) Lookup(name string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok, err := s.get(name)
	if ok || err != nil {
		return v, ok, err
	}
	if st := stem(name); st != "" {
		return s.get(st)
	}
	return "", false, nil
}

func (s *SQLite) get(name string) (string, bool, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM vars WHERE name = ?", name).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Assign sets a variable. Assigning to a stem replaces all of its compound
// variables.
func (s *SQLite) Assign(name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if isStem(name) {
		if err := dropStem(tx, name); err != nil {
			return err
		}
	}
	_, err = tx.Exec(`
		INSERT INTO vars (name, value) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value
	`, name, value)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// Delete drops a variable.
func (s *SQLite) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if isStem(name) {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		defer tx.Rollback()
		if err := dropStem(tx, name); err != nil {
			return err
		}
		if _, err := tx.Exec("DELETE FROM vars WHERE name = ?", name); err != nil {
			return err
		}
		return tx.Commit()
	}
	_, err := s.db.Exec("DELETE FROM vars WHERE name = ?", name)
	return err
}

// dropStem deletes the compound variables of a stem.
func dropStem(tx *sql.Tx, st string) error {
	_, err := tx.Exec("DELETE FROM vars WHERE instr(name, ?) = 1 AND name <> ?", st, st)
	return err
}

// Names returns the names of all assigned variables.
func (s *SQLite) Names() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.Query("SELECT name FROM vars ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var r []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		r = append(r, name)
	}
	return r, rows.Err()
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// metadata reads a metadata value. The caller must hold the lock or be the
// constructor.
func (s *SQLite) metadata(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (s *SQLite) setMetadata(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

var (
	_ Pool = (*SQLite)(nil)
	_ Pool = (*Memory)(nil)
)
