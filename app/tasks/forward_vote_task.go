package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/botsieve/botsieve/app/database"
	"github.com/botsieve/botsieve/app/detect"
	"github.com/botsieve/botsieve/app/stream"
)

// ForwardVoteTask relays one recorded vote to the remote collaborator.
// MaxRetries is zero: forwarding is fire and forget, and on failure the
// local annotation simply stays ahead of the remote copy. That
// divergence is accepted; local state is the source of truth.
type ForwardVoteTask struct {
	Task
	client   *detect.Client
	endpoint string
	judgment database.Judgment
	snapshot stream.Item
}

func NewForwardVoteTask(client *detect.Client, endpoint string, key string, judgment database.Judgment, snapshot stream.Item) *ForwardVoteTask {
	task := NewTask(TaskTypeForwardVote, key)
	task.MaxRetries = 0

	return &ForwardVoteTask{
		Task:     task,
		client:   client,
		endpoint: endpoint,
		judgment: judgment,
		snapshot: snapshot,
	}
}

func (t *ForwardVoteTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	err := t.client.SubmitVote(ctx, t.endpoint, t.Subject, int(t.judgment), t.snapshot)
	if err != nil {
		return fmt.Errorf("failed to forward vote: %w", err)
	}

	slog.Info("Task completed",
		"type", "ForwardVote",
		"key", t.Subject,
		"duration", t.GetDuration(),
		"judgment", t.judgment.String())

	return nil
}
