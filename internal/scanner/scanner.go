// Package scanner loads a diagnostic log into an indexed, immutable line
// buffer shared read-only by every extractor pass.
package scanner

import (
	"bufio"
	"fmt"
	"os"
	"regexp"

	"github.com/solace-dgrama/tools/internal/model"
)

// tsRe matches the first embedded [HH:MM:SS] timestamp in a line.
var tsRe = regexp.MustCompile(`\[(\d{2}:\d{2}:\d{2})\]`)

// Log is a fully loaded log file. It is never mutated after Load returns,
// so concurrent extraction passes need no locking.
type Log struct {
	path  string
	lines []string
}

// Load reads the whole file at path into memory. A missing file surfaces
// as an error wrapping fs.ErrNotExist; other I/O failures propagate.
func Load(path string) (*Log, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	// Broker stat dumps produce very long lines.
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	return &Log{path: path, lines: lines}, nil
}

// FromLines builds a Log from an in-memory line slice. Used by tests and
// by callers that already hold the file contents.
func FromLines(lines []string) *Log {
	return &Log{path: "<memory>", lines: lines}
}

// Path returns the file path the log was loaded from.
func (l *Log) Path() string { return l.path }

// Len returns the number of lines.
func (l *Log) Len() int { return len(l.lines) }

// Line returns the raw text of line i. Panics on out-of-range access,
// like a slice; callers index within [0, Len()).
func (l *Log) Line(i int) string { return l.lines[i] }

// At returns line i as a LogLine with its extracted timestamp.
func (l *Log) At(i int) model.LogLine {
	return model.LogLine{Index: i, Timestamp: Timestamp(l.lines[i]), Text: l.lines[i]}
}

// Timestamp extracts the first [HH:MM:SS] occurrence in a line, or the
// Unknown sentinel if the line carries none.
func Timestamp(line string) string {
	if m := tsRe.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	return model.UnknownTimestamp
}
