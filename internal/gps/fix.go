package gps

import (
	"strconv"
	"time"
)

// Fix represents a single validated GPS position report.
type Fix struct {
	PCTime    time.Time // local wall clock when the sentence was accepted
	NMEATime  string    // receiver time-of-day, verbatim, e.g. "235959.00"
	Latitude  float64   // decimal degrees, south negative
	Longitude float64   // decimal degrees, west negative
}

// CSVHeader returns the column names of the flat-file log.
func CSVHeader() []string {
	return []string{"pc_time", "nmea_time", "latitude", "longitude"}
}

// CSVRow renders the fix in flat-file column order.
func (f Fix) CSVRow() []string {
	return []string{
		f.PCTime.Format(time.RFC3339),
		f.NMEATime,
		strconv.FormatFloat(f.Latitude, 'f', -1, 64),
		strconv.FormatFloat(f.Longitude, 'f', -1, 64),
	}
}
