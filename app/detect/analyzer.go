package detect

import (
	"context"
	"log/slog"

	"github.com/botsieve/botsieve/app/stream"
)

// Analyzer composes the two scorers: remote first, local heuristic on
// any remote failure. This is the only place the two interact.
type Analyzer struct {
	client *Client
	scorer *Scorer
}

func NewAnalyzer(client *Client, scorer *Scorer) *Analyzer {
	return &Analyzer{
		client: client,
		scorer: scorer,
	}
}

// Run produces a score for the item. With an empty endpoint the remote
// is never consulted. Remote failures are logged and absorbed; the
// heuristic path cannot fail, so the worst case is always a local score.
func (a *Analyzer) Run(ctx context.Context, endpoint string, item stream.Item) stream.Score {
	if endpoint != "" && a.client != nil {
		value, err := a.client.Analyze(ctx, endpoint, item)
		if err == nil {
			return stream.Score{Value: value, Source: stream.ScoreSourceRemote}
		}
		slog.Debug("Remote analysis unavailable, using heuristic score", "key", item.Key, "error", err)
	}

	return stream.Score{Value: a.scorer.Run(item), Source: stream.ScoreSourceLocal}
}
