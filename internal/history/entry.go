// Package history implements the zsh extended-history file format: decoding
// raw history files into entries, transforming the entry list, and writing
// the exact on-disk format back.
package history

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"
)

// historyLineRegex matches one logical record in zsh extended history format:
// ": <timestamp>:<elapsed>;<command>". The command group spans embedded
// newlines from continuation joining; colons and semicolons in the command
// body carry no structure. Compiled once at package init.
var historyLineRegex = regexp.MustCompile(`(?s)^: (\d{10}):(\d+);(.*)$`)

// Entry is one command invocation recorded in the history file. The command
// text keeps embedded newlines and trailing backslashes from multi-line
// input. Entries are never mutated after creation; for deduplication two
// entries with the same command are the same entry regardless of timestamp
// or elapsed time.
type Entry struct {
	// Command is the exact command text.
	Command string

	// Timestamp is the epoch second recorded by the shell. It is not
	// validated against the current time and may be 0.
	Timestamp uint64

	// Elapsed is how many seconds the command ran.
	Elapsed uint64
}

// ParseEntry parses one logical record into an Entry. A record that does not
// match the grammar yields a NoMatchError; a numeric field that overflows
// uint64 yields an InvalidIntegerError.
func ParseEntry(record string) (Entry, error) {
	m := historyLineRegex.FindStringSubmatch(record)
	if m == nil {
		return Entry{}, &NoMatchError{Record: record}
	}

	timestamp, err := strconv.ParseUint(m[1], 10, 64)
	if err != nil {
		return Entry{}, &InvalidIntegerError{Field: "timestamp", Err: err}
	}
	elapsed, err := strconv.ParseUint(m[2], 10, 64)
	if err != nil {
		return Entry{}, &InvalidIntegerError{Field: "elapsed seconds", Err: err}
	}

	return Entry{Command: m[3], Timestamp: timestamp, Elapsed: elapsed}, nil
}

// ToLine renders the entry in the on-disk history format, without a trailing
// newline. Parsing a valid record and encoding it again is the identity,
// multi-line commands included.
func (e Entry) ToLine() string {
	return fmt.Sprintf(": %d:%d;%s", e.Timestamp, e.Elapsed, e.Command)
}

// LocalTime converts the timestamp to local time. ok is false when the value
// does not fit a signed 64-bit epoch second.
func (e Entry) LocalTime() (time.Time, bool) {
	if e.Timestamp > math.MaxInt64 {
		return time.Time{}, false
	}
	return time.Unix(int64(e.Timestamp), 0).In(time.Local), true
}

// LocalDate returns the local calendar date of the timestamp, truncated to
// midnight. ok is false when the timestamp is not convertible.
func (e Entry) LocalDate() (time.Time, bool) {
	t, ok := e.LocalTime()
	if !ok {
		return time.Time{}, false
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location()), true
}

// String describes the entry for diagnostics.
func (e Entry) String() string {
	when := strconv.FormatUint(e.Timestamp, 10)
	if t, ok := e.LocalTime(); ok {
		when = t.Format("2006-01-02 15:04:05 -0700")
	}
	return fmt.Sprintf("Command executed at '%s' for '%ds': %s", when, e.Elapsed, e.Command)
}
