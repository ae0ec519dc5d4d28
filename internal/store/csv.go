package store

import (
	"encoding/csv"
	"os"

	"github.com/locness-lab/gpslogger/internal/gps"
)

type csvSink struct {
	f *os.File
	w *csv.Writer
}

// openCSV opens the flat-file log for appending, writing the header row
// only when the file is new or empty.
func openCSV(path string) (*csvSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	w := csv.NewWriter(f)
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if st.Size() == 0 {
		if err := w.Write(gps.CSVHeader()); err != nil {
			_ = f.Close()
			return nil, err
		}
		w.Flush()
		if err := w.Error(); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	return &csvSink{f: f, w: w}, nil
}

// append writes one fix and flushes it to the OS before returning.
func (c *csvSink) append(fix gps.Fix) error {
	if err := c.w.Write(fix.CSVRow()); err != nil {
		return err
	}
	c.w.Flush()
	return c.w.Error()
}

func (c *csvSink) close() error {
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		_ = c.f.Close()
		return err
	}
	return c.f.Close()
}
