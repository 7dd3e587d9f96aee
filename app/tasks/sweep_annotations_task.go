package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/botsieve/botsieve/app/database"
)

// SweepAnnotationsTask removes annotations older than the retention
// window. Runs on the scheduler's recurring interval rather than on
// every write, to bound write amplification.
type SweepAnnotationsTask struct {
	Task
	annotations database.AnnotationRepository
	retention   time.Duration
}

func NewSweepAnnotationsTask(annotations database.AnnotationRepository, retention time.Duration) *SweepAnnotationsTask {
	return &SweepAnnotationsTask{
		Task:        NewTask(TaskTypeSweepAnnotations, "retention"),
		annotations: annotations,
		retention:   retention,
	}
}

func (t *SweepAnnotationsTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	removed, err := t.annotations.SweepExpired(time.Now().UTC(), t.retention)
	if err != nil {
		return fmt.Errorf("failed to sweep expired annotations: %w", err)
	}

	slog.Info("Task completed",
		"type", "SweepAnnotations",
		"duration", t.GetDuration(),
		"retention", t.retention.String(),
		"removed", removed)

	return nil
}
