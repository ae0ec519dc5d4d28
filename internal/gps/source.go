package gps

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	nmea "github.com/adrianmo/go-nmea"
	serial "github.com/jacobsa/go-serial/serial"
)

// Source yields decoded NMEA sentences one at a time.
//
// Next returns a *ParseError for a malformed or checksum-failed line; the
// connection is still usable and the caller should just read again. Any
// other error (device unplugged, timeout with no bytes, closed handle)
// invalidates the source and the caller must discard it.
type Source interface {
	Next() (nmea.Sentence, error)
	Close() error
}

// ParseError reports a line that could not be decoded as NMEA.
// It does not invalidate the connection.
type ParseError struct {
	Line string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("nmea parse %q: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// SerialSource reads NMEA sentences from a serial GPS receiver.
type SerialSource struct {
	port io.ReadCloser
	r    *bufio.Reader
}

// Open opens the serial device at 8N1 and wraps it in a line reader.
// The timeout bounds how long Next blocks waiting for bytes; a receiver
// that goes silent for that long surfaces as a connection error.
func Open(portName string, baud int, timeout time.Duration) (*SerialSource, error) {
	opts := serial.OpenOptions{
		PortName:              portName,
		BaudRate:              uint(baud),
		DataBits:              8,
		StopBits:              1,
		ParityMode:            serial.PARITY_NONE,
		MinimumReadSize:       0,
		InterCharacterTimeout: uint(timeout / time.Millisecond),
	}
	port, err := serial.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open %s @ %d baud: %w", portName, baud, err)
	}
	return newSource(port), nil
}

func newSource(port io.ReadCloser) *SerialSource {
	return &SerialSource{port: port, r: bufio.NewReader(port)}
}

// Next blocks until a complete sentence arrives.
// Blank lines and non-NMEA chatter are skipped silently.
func (s *SerialSource) Next() (nmea.Sentence, error) {
	for {
		line, err := s.r.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("serial read: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "" || !strings.HasPrefix(line, "$") {
			continue
		}
		sent, err := nmea.Parse(line)
		if err != nil {
			return nil, &ParseError{Line: line, Err: err}
		}
		return sent, nil
	}
}

// Close closes the device handle. A Next blocked on the device returns
// with a connection error once the handle is gone.
func (s *SerialSource) Close() error {
	return s.port.Close()
}
