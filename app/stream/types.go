package stream

import (
	"context"
)

// Node kinds recognized by the item-shape predicate.
const KindComment = "comment"

// Node field names populated by the host surface.
const (
	FieldAuthor = "author"
	FieldText   = "text"
	FieldPosted = "posted"
	FieldLikes  = "likes"
)

// Node is one element of the host tree. Nodes are treated as immutable
// once added; the host replaces a node instead of editing it in place.
type Node struct {
	NativeID    string
	Kind        string
	Fields      map[string]string
	Pinned      bool
	Highlighted bool
}

// Item is one extracted comment. Immutable after extraction;
// re-extraction for the same key is suppressed by the seen-key set.
type Item struct {
	Key           string `json:"key"`
	Author        string `json:"author"`
	Text          string `json:"text"`
	PostedLabel   string `json:"posted_label"`
	LikeCount     string `json:"like_count"`
	IsPinned      bool   `json:"is_pinned"`
	IsHighlighted bool   `json:"is_highlighted"`
}

type ScoreSource string

const (
	ScoreSourceRemote ScoreSource = "remote"
	ScoreSourceLocal  ScoreSource = "local"
)

// Score is the ephemeral risk estimate attached to a rendered item.
type Score struct {
	Value  float64     `json:"value"`
	Source ScoreSource `json:"source"`
}

// ScoredItem is an item as published in the rendered view. Score is nil
// when detection was disabled at extraction time.
type ScoredItem struct {
	Item
	Score *Score `json:"score,omitempty"`
}

// Analyzer produces a score for a newly extracted item. Implemented by
// the cross-context router; the observer never talks to the remote
// endpoint or the heuristic scorer directly.
type Analyzer interface {
	Run(ctx context.Context, item Item) (Score, error)
}

// SettingsSource supplies the read-only feature gate checked at the
// start of each extraction pass.
type SettingsSource interface {
	DetectionEnabled() bool
}
