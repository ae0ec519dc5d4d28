package gps

import (
	"math"
	"time"

	nmea "github.com/adrianmo/go-nmea"
)

// Extract converts a decoded sentence into a Fix.
//
// It returns false for anything that is not a GGA position report, for a
// GGA whose fix quality is 0 (no fix; cold receivers emit zeroed
// coordinates), and for missing or non-finite coordinates. The receiver time-of-day
// field is copied verbatim, never reinterpreted.
func Extract(s nmea.Sentence, now time.Time) (Fix, bool) {
	if s == nil || s.DataType() != nmea.TypeGGA {
		return Fix{}, false
	}
	gga, ok := s.(nmea.GGA)
	if !ok {
		return Fix{}, false
	}
	if gga.FixQuality == nmea.Invalid {
		return Fix{}, false
	}
	// The decoder maps empty coordinate fields to 0 without error, so
	// absence is only detectable on the raw fields.
	if len(gga.Fields) < 5 || gga.Fields[1] == "" || gga.Fields[3] == "" {
		return Fix{}, false
	}
	if !finite(gga.Latitude) || !finite(gga.Longitude) {
		return Fix{}, false
	}
	return Fix{
		PCTime:    now,
		NMEATime:  gga.Fields[0],
		Latitude:  gga.Latitude,
		Longitude: gga.Longitude,
	}, true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
