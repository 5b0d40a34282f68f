// Package zones parses the --zones file format: one override per line,
// "start end encoder [reset] arg...", into the chunk.Zone list the split
// planner consumes.
package zones

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/av1an-go/av1an/internal/chunk"
)

// Load reads a zones file and returns the parsed zone list. A missing
// path is not an error: it returns an empty slice, matching how
// internal/split.Options treats a nil Zones slice.
func Load(path string) ([]chunk.Zone, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("zones: open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var out []chunk.Zone
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		z, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("zones: %s line %d: %w", path, lineNo, err)
		}
		out = append(out, z)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("zones: read %s: %w", path, err)
	}
	return out, nil
}

// parseLine parses "start end encoder [reset] arg...". The optional
// literal "reset" token marks the zone as fully replacing the default
// argument list rather than appending to it (see chunk.Zone.Reset).
func parseLine(line string) (chunk.Zone, error) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return chunk.Zone{}, fmt.Errorf("expected at least \"start end encoder\", got %q", line)
	}

	start, err := strconv.Atoi(fields[0])
	if err != nil {
		return chunk.Zone{}, fmt.Errorf("invalid start %q: %w", fields[0], err)
	}
	end, err := strconv.Atoi(fields[1])
	if err != nil {
		return chunk.Zone{}, fmt.Errorf("invalid end %q: %w", fields[1], err)
	}
	if end <= start {
		return chunk.Zone{}, fmt.Errorf("end %d must be greater than start %d", end, start)
	}

	z := chunk.Zone{Start: start, End: end, Encoder: fields[2]}
	rest := fields[3:]
	if len(rest) > 0 && rest[0] == "reset" {
		z.Reset = true
		rest = rest[1:]
	}
	z.Args = rest
	return z, nil
}
