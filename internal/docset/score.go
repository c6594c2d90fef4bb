package docset

import "strings"

const (
	scoreExact    = 4
	scorePrefix   = 3
	scoreBoundary = 2
	scoreContains = 1
)

// score ranks a symbol name against the search text. Names sharing a match
// class are ordered shortest first; 0 means no match.
func score(name, text string) int {
	n := strings.ToLower(name)
	t := strings.ToLower(text)

	var class int
	switch idx := strings.Index(n, t); {
	case t == "":
		return 0
	case n == t:
		class = scoreExact
	case idx == 0:
		class = scorePrefix
	case idx > 0 && isBoundary(n, t):
		class = scoreBoundary
	case idx > 0:
		class = scoreContains
	default:
		return 0
	}

	penalty := len(n)
	if penalty > 99 {
		penalty = 99
	}
	return class*100 + (99 - penalty)
}

// isBoundary reports whether t occurs in n right after a separator, as in
// "os.path.join" for "join" or "std::vector" for "vector"
func isBoundary(n, t string) bool {
	for i := strings.Index(n, t); i >= 0; {
		if i > 0 && strings.ContainsRune(".:_-/ #$", rune(n[i-1])) {
			return true
		}
		next := strings.Index(n[i+1:], t)
		if next < 0 {
			return false
		}
		i += next + 1
	}
	return false
}
