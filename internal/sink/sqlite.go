package sink

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MuchTitan/go-log-search/internal"
	"github.com/MuchTitan/go-log-search/internal/database"
)

// SQLite appends records to a matches table in a sqlite database at the
// configured output path. Extracted fields are stored JSON-encoded.
type SQLite struct {
	db *database.DBManager
}

func NewSQLite(path string) (*SQLite, error) {
	if path == "" {
		return nil, errors.New("sqlite output requires an output path")
	}

	db, err := database.NewDBManager(path)
	if err != nil {
		return nil, err
	}

	query := `CREATE TABLE IF NOT EXISTS matches (
        file TEXT NOT NULL,
        lineno INTEGER NOT NULL,
        timestamp TEXT,
        reason TEXT,
        line TEXT,
        fields TEXT,
        created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
    )`
	if _, err := db.ExecuteWrite(query); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create db table matches: %v", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Write(rec *internal.Record) error {
	var fields string
	if len(rec.Fields) > 0 {
		data, err := json.Marshal(rec.Fields)
		if err != nil {
			return err
		}
		fields = string(data)
	}

	_, err := s.db.ExecuteWrite(
		`INSERT INTO matches (file, lineno, timestamp, reason, line, fields) VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.File, rec.LineNum, rec.Timestamp, rec.Reason, rec.Line, fields,
	)
	return err
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
