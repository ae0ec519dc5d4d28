package store

import (
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/locness-lab/gpslogger/internal/gps"
)

func testPaths(t *testing.T) (csvPath, dbPath string) {
	t.Helper()
	dir := t.TempDir()
	return filepath.Join(dir, "gps_data.csv"), filepath.Join(dir, "gps_data.db")
}

func openStore(t *testing.T, csvPath, dbPath string) *Store {
	t.Helper()
	st, err := Open(csvPath, dbPath, "gps_data", zerolog.Nop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return st
}

func testFix(offset int) gps.Fix {
	return gps.Fix{
		PCTime:    time.Date(2024, 1, 1, 0, 0, offset, 0, time.Local),
		NMEATime:  "235959.00",
		Latitude:  37.5,
		Longitude: -122.3,
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	return records
}

func TestOpen_InitIsIdempotent(t *testing.T) {
	csvPath, dbPath := testPaths(t)

	st := openStore(t, csvPath, dbPath)
	if err := st.Persist(testFix(0)); err != nil {
		t.Fatalf("persist: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Reopening must not truncate, duplicate the header, or recreate the table.
	st = openStore(t, csvPath, dbPath)
	defer st.Close()
	if err := st.Persist(testFix(1)); err != nil {
		t.Fatalf("persist after reopen: %v", err)
	}

	records := readCSV(t, csvPath)
	if len(records) != 3 {
		t.Fatalf("csv rows = %d, want header + 2", len(records))
	}
	if records[0][0] != "pc_time" || records[1][0] == "pc_time" {
		t.Fatalf("header must appear exactly once, got %v", records[:2])
	}

	rows, err := st.Latest(10)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("table rows = %d, want 2", len(rows))
	}
}

func TestPersist_BothSinksMatch(t *testing.T) {
	csvPath, dbPath := testPaths(t)
	st := openStore(t, csvPath, dbPath)
	defer st.Close()

	const n = 3
	for i := 0; i < n; i++ {
		if err := st.Persist(testFix(i)); err != nil {
			t.Fatalf("persist %d: %v", i, err)
		}
	}

	records := readCSV(t, csvPath)
	if len(records) != n+1 {
		t.Fatalf("csv rows = %d, want %d data rows + header", len(records), n)
	}

	rows, err := st.Latest(10)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if len(rows) != n {
		t.Fatalf("table rows = %d, want %d", len(rows), n)
	}
	// Latest returns newest first; the CSV is in write order.
	for i, row := range rows {
		csvRow := records[len(records)-1-i]
		wantTime, err := time.Parse(time.RFC3339, csvRow[0])
		if err != nil {
			t.Fatalf("csv pc_time %q: %v", csvRow[0], err)
		}
		if row.DatetimeUTC != wantTime.Unix() {
			t.Fatalf("row %d: datetime_utc = %d, csv says %d", i, row.DatetimeUTC, wantTime.Unix())
		}
	}
}

func TestPersist_RoundTrip(t *testing.T) {
	csvPath, dbPath := testPaths(t)
	st := openStore(t, csvPath, dbPath)
	defer st.Close()

	fix := gps.Fix{
		PCTime:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local),
		NMEATime:  "235959.00",
		Latitude:  37.5,
		Longitude: -122.3,
	}
	if err := st.Persist(fix); err != nil {
		t.Fatalf("persist: %v", err)
	}

	rows, err := st.Latest(1)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	row := rows[0]
	if row.NMEATime != fix.NMEATime {
		t.Fatalf("nmea_time = %q, want %q", row.NMEATime, fix.NMEATime)
	}
	if math.Abs(row.Latitude-fix.Latitude) > 1e-6 || math.Abs(row.Longitude-fix.Longitude) > 1e-6 {
		t.Fatalf("coordinates = (%v, %v), want (%v, %v)", row.Latitude, row.Longitude, fix.Latitude, fix.Longitude)
	}
	if got := time.Unix(row.DatetimeUTC, 0); !got.Equal(fix.PCTime) {
		t.Fatalf("pc_time recovered as %v, want %v", got, fix.PCTime)
	}
	if row.ID == 0 {
		t.Fatalf("store must assign a surrogate key")
	}
	if row.CreatedAt == "" {
		t.Fatalf("store must assign created_at")
	}
}

func TestOpenReader_ReadsWriterTable(t *testing.T) {
	csvPath, dbPath := testPaths(t)
	st := openStore(t, csvPath, dbPath)
	for i := 0; i < 2; i++ {
		if err := st.Persist(testFix(i)); err != nil {
			t.Fatalf("persist: %v", err)
		}
	}
	if err := st.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	r, err := OpenReader(dbPath, "gps_data")
	if err != nil {
		t.Fatalf("open reader: %v", err)
	}
	defer r.Close()

	rows, err := r.Latest(1)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1 (limit applied)", len(rows))
	}
	if rows[0].DatetimeUTC != testFix(1).PCTime.Unix() {
		t.Fatalf("latest row is not the newest fix")
	}
}

func TestOpenReader_MissingDatabase(t *testing.T) {
	if _, err := OpenReader(filepath.Join(t.TempDir(), "absent.db"), "gps_data"); err == nil {
		t.Fatalf("expected error for missing database file")
	}
}

func TestOpen_DatabasePathWithDSNMetacharacters(t *testing.T) {
	// '?' and '#' in the path must reach SQLite as part of the filename,
	// not be read as file: URI query options.
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "gps_data.csv")
	dbPath := filepath.Join(dir, "gps?2024#a.db")

	st, err := Open(csvPath, dbPath, "gps_data", zerolog.Nop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()
	if err := st.Persist(testFix(0)); err != nil {
		t.Fatalf("persist: %v", err)
	}

	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("database not created at the literal path: %v", err)
	}
	rows, err := st.Latest(1)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}

	r, err := OpenReader(dbPath, "gps_data")
	if err != nil {
		t.Fatalf("open reader: %v", err)
	}
	defer r.Close()
	if rows, err := r.Latest(1); err != nil || len(rows) != 1 {
		t.Fatalf("reader latest: rows=%d err=%v", len(rows), err)
	}
}

func TestOpen_RejectsBadTableName(t *testing.T) {
	csvPath, dbPath := testPaths(t)
	if _, err := Open(csvPath, dbPath, "gps_data; DROP TABLE gps_data", zerolog.Nop()); err == nil {
		t.Fatalf("expected error for invalid table name")
	}
}
