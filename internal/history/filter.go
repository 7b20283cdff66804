package history

import "strings"

// Filter matches commands containing any of a fixed set of words.
type Filter struct {
	words      []string
	ignoreCase bool
}

// NewFilter builds a filter over words, folding case up front when
// ignoreCase is set.
func NewFilter(words []string, ignoreCase bool) *Filter {
	f := &Filter{ignoreCase: ignoreCase, words: make([]string, 0, len(words))}
	for _, word := range words {
		if ignoreCase {
			word = strings.ToLower(word)
		}
		f.words = append(f.words, word)
	}
	return f
}

// Matches reports whether command contains any of the filter words.
func (f *Filter) Matches(command string) bool {
	if f.ignoreCase {
		command = strings.ToLower(command)
	}
	for _, word := range f.words {
		if strings.Contains(command, word) {
			return true
		}
	}
	return false
}
