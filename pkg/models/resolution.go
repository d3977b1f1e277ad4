package models

// Outcome tells a caller which message to render for a resolution
type Outcome string

const (
	OutcomeFound     Outcome = "found"
	OutcomeNoMatches Outcome = "no_matches"
)

// Resolution is the ordered, deduplicated result of one description search.
// Items follow candidate order with unresolved candidates dropped.
type Resolution struct {
	Query      string      `json:"query"`
	Sequence   uint64      `json:"sequence,omitempty"`
	Candidates []string    `json:"candidates"`
	Items      []MediaItem `json:"items"`
	Outcome    Outcome     `json:"outcome"`
}

// Empty reports whether nothing matched
func (r *Resolution) Empty() bool {
	return len(r.Items) == 0
}
