// Package parser turns raw telemetry dump files into ordered measurement
// records. Parsers are pure transforms: content in, records out.
//
// Source rows carry no per-row clock, so every accepted row gets a synthetic
// timestamp: a per-file base instant plus an index-proportional step. The
// result preserves intra-file order but is not wall-clock accurate.
package parser

import (
	"errors"
	"strings"
	"time"
)

// ErrFileTooShort signals a file with fewer lines than its header count.
// It is non-fatal: the file simply yields zero records.
var ErrFileTooShort = errors.New("file too short")

// Header line counts per format
const (
	stabilityHeaderLines = 2
	canHeaderLines       = 1
	gpsHeaderLines       = 2
	rotaryHeaderLines    = 2
)

// Synthetic timestamp steps per format
const (
	StabilityStep = 100 * time.Millisecond
	GPSStep       = 150 * time.Millisecond
	CANStep       = 200 * time.Millisecond
	RotaryStep    = 300 * time.Millisecond
)

// bodyLines strips the header and returns the remaining data lines.
// Trailing blank lines are ignored; a file shorter than its header count
// yields ErrFileTooShort.
func bodyLines(content []byte, headerLines int) ([]string, error) {
	normalized := strings.ReplaceAll(string(content), "\r\n", "\n")
	lines := strings.Split(normalized, "\n")

	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}

	if len(lines) < headerLines {
		return nil, ErrFileTooShort
	}

	return lines[headerLines:], nil
}
