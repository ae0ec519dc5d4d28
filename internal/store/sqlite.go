package store

import (
	"database/sql"
	"fmt"
	"net/url"
	"regexp"

	_ "github.com/mattn/go-sqlite3"

	"github.com/locness-lab/gpslogger/internal/gps"
)

// The table name comes from configuration and is spliced into SQL, so it
// must be a plain identifier.
var tableNameRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type sqliteSink struct {
	db    *sql.DB
	stmt  *sql.Stmt
	table string
}

func openSQLite(path, table string) (*sqliteSink, error) {
	if !tableNameRE.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", dsnPath(path))
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		datetime_utc INTEGER NOT NULL,
		nmea_time TEXT,
		latitude REAL,
		longitude REAL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`, table)
	if _, err := db.Exec(ddl); err != nil {
		_ = db.Close()
		return nil, err
	}
	stmt, err := db.Prepare(fmt.Sprintf(
		"INSERT INTO %s (datetime_utc, nmea_time, latitude, longitude) VALUES (?, ?, ?, ?)", table))
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &sqliteSink{db: db, stmt: stmt, table: table}, nil
}

func (s *sqliteSink) insert(fix gps.Fix) error {
	_, err := s.stmt.Exec(fix.PCTime.Unix(), fix.NMEATime, fix.Latitude, fix.Longitude)
	return err
}

// dsnPath escapes a filesystem path for use in a file: DSN, where bare
// '?' or '#' would be read as query options.
func dsnPath(path string) string {
	u := url.URL{Path: path}
	return u.EscapedPath()
}

func (s *sqliteSink) close() error {
	_ = s.stmt.Close()
	return s.db.Close()
}
