// Package analyze derives usage statistics from a loaded history: frequency
// rankings, date coverage, and duplicate counts.
package analyze

import (
	"sort"
	"strings"
	"time"

	"zhc/internal/history"
)

// Ranking is one ranked item: a command or executable and how often it
// occurs.
type Ranking struct {
	Text  string `json:"text"`
	Count int    `json:"count"`
}

// Analysis is the full report computed over a history snapshot.
type Analysis struct {
	Filename       string
	Size           int
	FirstDate      time.Time
	LastDate       time.Time
	DuplicateCount int
	TopN           int
	TopCommands    []Ranking
	TopExecutables []Ranking
}

// Analyzer computes read-only statistics over a History. It never mutates
// the underlying entry list.
type Analyzer struct {
	history *history.History
}

// New returns an analyzer over h.
func New(h *history.History) *Analyzer {
	return &Analyzer{history: h}
}

// TopCommands returns the n most frequent commands, most frequent first.
// Equal counts are ordered by ascending command text so the result is
// deterministic. n <= 0 or an empty history yields an empty result.
func (a *Analyzer) TopCommands(n int) []Ranking {
	return topN(n, a.history.Entries(), func(e history.Entry) (string, bool) {
		return e.Command, true
	})
}

// TopExecutables ranks the first whitespace-delimited token of each command,
// the name of the invoked program. Empty or whitespace-only commands
// contribute nothing.
func (a *Analyzer) TopExecutables(n int) []Ranking {
	return topN(n, a.history.Entries(), func(e history.Entry) (string, bool) {
		fields := strings.Fields(e.Command)
		if len(fields) == 0 {
			return "", false
		}
		return fields[0], true
	})
}

func topN(n int, entries []history.Entry, key func(history.Entry) (string, bool)) []Ranking {
	if n <= 0 || len(entries) == 0 {
		return nil
	}

	counts := make(map[string]int)
	for _, entry := range entries {
		if k, ok := key(entry); ok {
			counts[k]++
		}
	}

	ranked := make([]Ranking, 0, len(counts))
	for text, count := range counts {
		ranked = append(ranked, Ranking{Text: text, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Text < ranked[j].Text
	})

	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// DateRange returns the earliest and latest local calendar dates across all
// entries with a convertible timestamp. File order is append order, not
// necessarily timestamp order, so every entry is scanned. ok is false when
// the history is empty or no timestamp converts.
func (a *Analyzer) DateRange() (first, last time.Time, ok bool) {
	for _, entry := range a.history.Entries() {
		date, valid := entry.LocalDate()
		if !valid {
			continue
		}
		if !ok {
			first, last, ok = date, date, true
			continue
		}
		if date.Before(first) {
			first = date
		}
		if date.After(last) {
			last = date
		}
	}
	return first, last, ok
}

// DuplicateCount reports how many distinct commands occur more than once.
func (a *Analyzer) DuplicateCount() int {
	return a.history.DuplicateCount()
}

// Analyze assembles the full report with the given ranking depth. When no
// entry carries a usable date, today stands in for both ends of the range.
func (a *Analyzer) Analyze(topN int) Analysis {
	first, last, ok := a.DateRange()
	if !ok {
		now := time.Now()
		y, m, d := now.Date()
		today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
		first, last = today, today
	}

	return Analysis{
		Filename:       a.history.Filename(),
		Size:           a.history.Size(),
		FirstDate:      first,
		LastDate:       last,
		DuplicateCount: a.DuplicateCount(),
		TopN:           topN,
		TopCommands:    a.TopCommands(topN),
		TopExecutables: a.TopExecutables(topN),
	}
}
