package database

import (
	"fmt"
	"time"

	"github.com/botsieve/botsieve/app/stream"
)

// Judgment is the tri-state user vote. The integer encoding matches the
// wire values the remote collaborator expects: 1 bot, -1 human, 0 none.
// None is never stored; it only appears as the result of a cleared vote.
type Judgment int

const (
	JudgmentNone  Judgment = 0
	JudgmentBot   Judgment = 1
	JudgmentHuman Judgment = -1
)

func (j Judgment) String() string {
	switch j {
	case JudgmentBot:
		return "bot"
	case JudgmentHuman:
		return "human"
	default:
		return "none"
	}
}

// ParseJudgment maps the external string form to a Judgment. Only the
// two voteable states are accepted; "none" arrives by toggling, not by
// submitting it.
func ParseJudgment(s string) (Judgment, error) {
	switch s {
	case "bot":
		return JudgmentBot, nil
	case "human":
		return JudgmentHuman, nil
	default:
		return JudgmentNone, fmt.Errorf("invalid judgment %q", s)
	}
}

// Annotation is one persisted user judgment. The snapshot keeps the
// judgment interpretable after the comment leaves the stream.
type Annotation struct {
	Key        string      `json:"key"`
	Judgment   Judgment    `json:"judgment"`
	RecordedAt time.Time   `json:"recorded_at"`
	Snapshot   stream.Item `json:"snapshot"`
}

// Stats summarizes the annotation mapping.
type Stats struct {
	Total  int `json:"total"`
	Bots   int `json:"bot_count"`
	Humans int `json:"human_count"`
}
