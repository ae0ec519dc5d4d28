// Package gps acquires position fixes from a serial NMEA-0183 receiver.
//
// It is intentionally small:
//   - decode sentences one at a time from the serial link
//   - extract GGA reports into validated fixes
//   - own the connect/stream/reconnect cycle around both
package gps
