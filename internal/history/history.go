package history

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// History is the ordered entry list loaded from one zsh history file. Order
// is file order: shells append chronologically, but merged or hand-edited
// files may not be sorted by timestamp. Every transformation preserves the
// relative order of surviving entries.
type History struct {
	filename string
	entries  []Entry
}

// Load reads and parses the history file at path, expanding a leading ~.
// Records that do not parse as history entries are skipped, never failing
// the whole file; each skipped record is returned as a warning. Decode
// failures (non-text bytes after unmetafying) fail the load: the file is
// presumed corrupt or foreign and is not guessed at.
func Load(path string) (*History, []error, error) {
	expanded, err := ExpandTilde(path)
	if err != nil {
		return nil, nil, err
	}

	file, err := os.Open(expanded)
	if err != nil {
		return nil, nil, fmt.Errorf("open history file: %w", err)
	}
	defer file.Close()

	var entries []Entry
	var warnings []error

	scanner := NewRecordScanner(file)
	for scanner.Scan() {
		record := scanner.Record()
		if record == "" {
			continue
		}
		entry, err := ParseEntry(record)
		if err != nil {
			warnings = append(warnings, err)
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, warnings, fmt.Errorf("read %s: %w", expanded, err)
	}

	return &History{filename: expanded, entries: entries}, warnings, nil
}

// Filename returns the path the history was loaded from.
func (h *History) Filename() string { return h.filename }

// Size returns the number of entries.
func (h *History) Size() int { return len(h.entries) }

// IsEmpty reports whether the history holds no entries.
func (h *History) IsEmpty() bool { return len(h.entries) == 0 }

// Entries exposes the entry list in file order. The slice is a read-only
// view; callers must not modify it.
func (h *History) Entries() []Entry { return h.entries }

// RemoveDuplicates keeps, for each distinct command, only its last
// occurrence in file order and returns the number of entries removed. Later
// occurrences carry the most recent timing metadata, so they win. The
// relative order of surviving entries is preserved.
func (h *History) RemoveDuplicates() int {
	lastIndex := make(map[string]int, len(h.entries))
	for i, entry := range h.entries {
		lastIndex[entry.Command] = i
	}

	before := len(h.entries)
	kept := h.entries[:0]
	for i, entry := range h.entries {
		if lastIndex[entry.Command] == i {
			kept = append(kept, entry)
		}
	}
	h.entries = kept
	return before - len(kept)
}

// RemoveInRange removes entries whose timestamp falls on a local calendar
// date within [start, end] inclusive and returns the number removed. Both
// bounds must be local-midnight dates with start <= end. Entries whose
// timestamp cannot be interpreted as a date are kept: ambiguous data is
// never silently deleted.
func (h *History) RemoveInRange(start, end time.Time) int {
	before := len(h.entries)
	kept := h.entries[:0]
	for _, entry := range h.entries {
		date, ok := entry.LocalDate()
		if ok && !date.Before(start) && !date.After(end) {
			continue
		}
		kept = append(kept, entry)
	}
	h.entries = kept
	return before - len(kept)
}

// RemoveMatching removes entries whose command contains any of the given
// words and returns the number removed. An empty word list removes nothing.
func (h *History) RemoveMatching(words []string, ignoreCase bool) int {
	if len(words) == 0 {
		return 0
	}
	filter := NewFilter(words, ignoreCase)

	before := len(h.entries)
	kept := h.entries[:0]
	for _, entry := range h.entries {
		if filter.Matches(entry.Command) {
			continue
		}
		kept = append(kept, entry)
	}
	h.entries = kept
	return before - len(kept)
}

// DuplicateCount returns how many distinct commands occur more than once. It
// counts commands, not extra occurrences: [ls, ls, ls, cd] has one duplicate
// command.
func (h *History) DuplicateCount() int {
	counts := make(map[string]int, len(h.entries))
	for _, entry := range h.entries {
		counts[entry.Command]++
	}

	duplicates := 0
	for _, n := range counts {
		if n > 1 {
			duplicates++
		}
	}
	return duplicates
}

// WriteFile rewrites the history file with the current entries and returns
// the backup path when a backup was taken. The backup is a byte-for-byte
// copy of the original, written and synced before the rewrite starts; if it
// fails the rewrite does not happen. The new content is staged in a
// temporary file in the same directory and renamed over the original, so any
// failure leaves the original untouched.
func (h *History) WriteFile(backup bool) (string, error) {
	var backupPath string
	if backup {
		backupPath = h.filename + "." + backupStamp(time.Now())
		if err := copyFileSync(h.filename, backupPath); err != nil {
			return "", &BackupError{Path: backupPath, Err: err}
		}
	}

	mode := os.FileMode(0o600)
	if info, err := os.Stat(h.filename); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(h.filename), filepath.Base(h.filename)+".tmp-*")
	if err != nil {
		return backupPath, fmt.Errorf("stage history rewrite: %w", err)
	}
	defer os.Remove(tmp.Name())

	writer := bufio.NewWriter(tmp)
	for _, entry := range h.entries {
		if _, err := writer.WriteString(entry.ToLine()); err != nil {
			tmp.Close()
			return backupPath, fmt.Errorf("write history entry: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			tmp.Close()
			return backupPath, fmt.Errorf("write history entry: %w", err)
		}
	}
	if err := writer.Flush(); err != nil {
		tmp.Close()
		return backupPath, fmt.Errorf("flush history: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return backupPath, fmt.Errorf("sync history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return backupPath, fmt.Errorf("close history: %w", err)
	}

	if err := os.Chmod(tmp.Name(), mode); err != nil {
		return backupPath, fmt.Errorf("set history permissions: %w", err)
	}
	if err := os.Rename(tmp.Name(), h.filename); err != nil {
		return backupPath, fmt.Errorf("replace %s: %w", h.filename, err)
	}
	return backupPath, nil
}

const backupStampLayout = "2006-01-02-15h04m05s"

// backupStamp formats t with millisecond precision so rapid successive runs
// never collide on the backup name.
func backupStamp(t time.Time) string {
	return fmt.Sprintf("%s%03dms", t.Format(backupStampLayout), t.Nanosecond()/int(time.Millisecond))
}

// copyFileSync copies src to a fresh file at dst and syncs it to disk before
// returning.
func copyFileSync(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// ExpandTilde resolves a leading ~ against the current user's home
// directory.
func ExpandTilde(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expand ~ in %s: %w", path, err)
	}
	return filepath.Join(home, path[1:]), nil
}
