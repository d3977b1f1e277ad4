package discovery

import (
	"regexp"
	"strings"
)

// MaxCandidates bounds how many titles one description search looks up
const MaxCandidates = 8

var enumerated = regexp.MustCompile(`^\d+\.`)

// ExtractTitles turns a completion reply into candidate titles: one per
// non-empty line, trimmed, in order. Enumerated lines ("1. Dune") are
// dropped since the prompt asks for none, and at most MaxCandidates are
// kept. Titles are not corrected in any way.
func ExtractTitles(text string) []string {
	return SplitTitles(text, MaxCandidates)
}

// SplitTitles is ExtractTitles with a caller-chosen cap; limit <= 0 means
// no cap.
func SplitTitles(text string, limit int) []string {
	titles := make([]string, 0, MaxCandidates)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || enumerated.MatchString(line) {
			continue
		}
		titles = append(titles, line)
		if limit > 0 && len(titles) == limit {
			break
		}
	}
	return titles
}
