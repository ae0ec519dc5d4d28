package store

import (
	"database/sql"
	"fmt"
	"os"
)

// Row is one persisted fix as read back from the SQLite table.
type Row struct {
	ID          int64
	DatetimeUTC int64 // epoch seconds of pc_time
	NMEATime    string
	Latitude    float64
	Longitude   float64
	CreatedAt   string // store-assigned insertion timestamp
}

// Reader provides read-only access to an existing fix table, for the
// report utility. It never creates the database or the table.
type Reader struct {
	db    *sql.DB
	table string
}

func OpenReader(dbPath, table string) (*Reader, error) {
	if !tableNameRE.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	if _, err := os.Stat(dbPath); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro&_busy_timeout=5000", dsnPath(dbPath)))
	if err != nil {
		return nil, err
	}
	return &Reader{db: db, table: table}, nil
}

func (r *Reader) Latest(n int) ([]Row, error) {
	return queryLatest(r.db, r.table, n)
}

func (r *Reader) Close() error { return r.db.Close() }

func queryLatest(db *sql.DB, table string, n int) ([]Row, error) {
	q := fmt.Sprintf(
		"SELECT id, datetime_utc, nmea_time, latitude, longitude, created_at FROM %s ORDER BY datetime_utc DESC, id DESC LIMIT ?", table)
	rows, err := db.Query(q, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.ID, &r.DatetimeUTC, &r.NMEATime, &r.Latitude, &r.Longitude, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
