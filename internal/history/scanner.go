package history

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"unicode/utf8"
)

// Zsh writes certain control bytes to the history file in "metafied" form: a
// marker byte followed by the original byte XORed with a fixed mask.
// See: https://www.zsh.org/mla/users/2011/msg00154.html
const (
	metaMarker byte = 0x83
	metaMask   byte = 0x20
)

var errInvalidUTF8 = errors.New("line is not valid UTF-8 after unmetafying")

// RecordScanner turns a raw zsh history stream into logical records: metafied
// bytes are decoded, and physical lines ending in a trailing backslash are
// joined with their continuation lines, separated by a literal newline. The
// trailing backslashes stay part of the record so the on-disk form can be
// reproduced exactly.
//
// The scanner makes a single pass over the input and cannot be restarted.
type RecordScanner struct {
	reader *bufio.Reader
	line   int
	record string
	err    error
	done   bool
}

// NewRecordScanner returns a scanner reading raw history bytes from r.
func NewRecordScanner(r io.Reader) *RecordScanner {
	return &RecordScanner{reader: bufio.NewReader(r)}
}

// Scan advances to the next logical record. It returns false when the input
// is exhausted or decoding failed; Err tells the two apart.
func (s *RecordScanner) Scan() bool {
	if s.err != nil || s.done {
		return false
	}

	var record []byte
	pending := false
	for {
		line, ok, err := s.readLine()
		if err != nil {
			s.err = err
			return false
		}
		if !ok {
			s.done = true
			if pending {
				// A continuation left unterminated at end-of-file is
				// emitted as a final record rather than dropped.
				s.record = string(record)
				return true
			}
			return false
		}

		if pending {
			record = append(record, '\n')
		}
		record = append(record, line...)
		pending = true

		if !bytes.HasSuffix(line, []byte(`\`)) {
			s.record = string(record)
			return true
		}
	}
}

// Record returns the logical record produced by the last call to Scan.
func (s *RecordScanner) Record() string { return s.record }

// Err returns the first error encountered while scanning, nil at a clean
// end-of-file.
func (s *RecordScanner) Err() error { return s.err }

// readLine reads one physical line, unmetafies it and strips the line
// terminator and trailing whitespace. ok is false at end-of-file.
func (s *RecordScanner) readLine() (line []byte, ok bool, err error) {
	raw, readErr := s.reader.ReadBytes('\n')
	if len(raw) == 0 {
		if readErr == nil || errors.Is(readErr, io.EOF) {
			return nil, false, nil
		}
		return nil, false, &DecodeError{Line: s.line + 1, Err: readErr}
	}
	s.line++
	if readErr != nil && !errors.Is(readErr, io.EOF) {
		return nil, false, &DecodeError{Line: s.line, Err: readErr}
	}

	raw = bytes.TrimSuffix(raw, []byte("\n"))
	raw = unmetafy(raw)
	if !utf8.Valid(raw) {
		return nil, false, &DecodeError{Line: s.line, Err: errInvalidUTF8}
	}
	return bytes.TrimRight(raw, " \t\r"), true, nil
}

// unmetafy decodes metafied bytes with a two-cursor compaction pass over the
// owned buffer. A marker byte with no following byte on the same line is
// copied through untouched.
func unmetafy(b []byte) []byte {
	src, dst := 0, 0
	for src < len(b) {
		if b[src] == metaMarker && src+1 < len(b) {
			b[dst] = b[src+1] ^ metaMask
			src += 2
		} else {
			b[dst] = b[src]
			src++
		}
		dst++
	}
	return b[:dst]
}
