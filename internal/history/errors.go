package history

import "fmt"

// DecodeError reports raw file content that could not be decoded into text.
// Line is the 1-based physical line number where decoding failed.
type DecodeError struct {
	Line int
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("read line %d: %v", e.Line, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// NoMatchError reports a logical record that does not match the zsh extended
// history grammar. Bulk loading skips the record instead of failing.
type NoMatchError struct {
	Record string
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("failed to parse %q as a history entry; make sure this is a valid entry from a zsh history file", e.Record)
}

// InvalidIntegerError reports a timestamp or elapsed-seconds field that does
// not fit an unsigned 64-bit integer.
type InvalidIntegerError struct {
	Field string
	Err   error
}

func (e *InvalidIntegerError) Error() string {
	return fmt.Sprintf("parse %s field: %v", e.Field, e.Err)
}

func (e *InvalidIntegerError) Unwrap() error { return e.Err }

// BackupError reports a failed backup copy. The rewrite of the history file
// must not start when the backup did not complete.
type BackupError struct {
	Path string
	Err  error
}

func (e *BackupError) Error() string {
	return fmt.Sprintf("back up history to %s: %v", e.Path, e.Err)
}

func (e *BackupError) Unwrap() error { return e.Err }
