// Package query parses search box input into a keyword filter and search text.
package query

import (
	"strings"
	"unicode"
)

const (
	keywordDelimiter  = ':'
	keywordsSeparator = ","
)

// Query is parsed search box input. "python:str.split" restricts the search
// for "str.split" to docsets having the keyword "python".
type Query struct {
	Keywords []string
	Text     string
}

// Parse splits input into an optional keyword prefix and the search text.
// The prefix is everything before the first ':' provided it is non-empty,
// contains no whitespace and the ':' is not part of a "::" scope operator;
// several keywords are separated by commas.
func Parse(s string) Query {
	idx := prefixEnd(s)
	if idx < 0 {
		return Query{Text: strings.TrimSpace(s)}
	}

	var keywords []string
	for _, kw := range strings.Split(s[:idx], keywordsSeparator) {
		kw = strings.TrimSpace(kw)
		if kw != "" {
			keywords = append(keywords, kw)
		}
	}
	return Query{
		Keywords: keywords,
		Text:     strings.TrimSpace(s[idx+1:]),
	}
}

// String reassembles the query in search box form
func (q Query) String() string {
	if len(q.Keywords) == 0 {
		return q.Text
	}
	return strings.Join(q.Keywords, keywordsSeparator) + string(keywordDelimiter) + q.Text
}

// IsEmpty reports whether there is nothing to search for
func (q Query) IsEmpty() bool {
	return q.Text == "" && len(q.Keywords) == 0
}

// HasKeywords reports whether the query is restricted to some docsets
func (q Query) HasKeywords() bool {
	return len(q.Keywords) > 0
}

// Matches reports whether a docset with the given keywords passes the filter
func (q Query) Matches(docsetKeywords []string) bool {
	if !q.HasKeywords() {
		return true
	}
	for _, want := range q.Keywords {
		for _, have := range docsetKeywords {
			if strings.EqualFold(want, have) {
				return true
			}
		}
	}
	return false
}

// KeywordPrefix returns the keyword filter part of s as typed, including the
// trailing ':', or "" when s has none
func KeywordPrefix(s string) string {
	if !Parse(s).HasKeywords() {
		return ""
	}
	return s[:prefixEnd(s)+1]
}

// prefixEnd is the index of the ':' closing the keyword prefix, or -1
func prefixEnd(s string) int {
	idx := strings.IndexRune(s, keywordDelimiter)
	if idx <= 0 || strings.IndexFunc(s[:idx], unicode.IsSpace) != -1 {
		return -1
	}
	if idx+1 < len(s) && s[idx+1] == keywordDelimiter {
		return -1
	}
	return idx
}
