package bridge

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/botsieve/botsieve/app/database"
	"github.com/botsieve/botsieve/app/detect"
	"github.com/botsieve/botsieve/app/settings"
	"github.com/botsieve/botsieve/app/stream"
	"github.com/botsieve/botsieve/app/tasks"
)

type fakeAnnotations struct {
	mu          sync.Mutex
	annotations map[string]database.Annotation
	statsErr    error
	toggleErr   error
}

func newFakeAnnotations() *fakeAnnotations {
	return &fakeAnnotations{annotations: make(map[string]database.Annotation)}
}

func (f *fakeAnnotations) GetAll() (map[string]database.Annotation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]database.Annotation, len(f.annotations))
	for k, v := range f.annotations {
		out[k] = v
	}
	return out, nil
}

func (f *fakeAnnotations) Get(key string) (*database.Annotation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.annotations[key]; ok {
		return &a, nil
	}
	return nil, nil
}

func (f *fakeAnnotations) Toggle(key string, judgment database.Judgment, snapshot stream.Item) (database.Annotation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	result := database.Annotation{Key: key, Judgment: judgment, RecordedAt: time.Now().UTC(), Snapshot: snapshot}
	if f.toggleErr != nil {
		return result, f.toggleErr
	}

	if current, ok := f.annotations[key]; ok && current.Judgment == judgment {
		delete(f.annotations, key)
		result.Judgment = database.JudgmentNone
		return result, nil
	}
	f.annotations[key] = result
	return result, nil
}

func (f *fakeAnnotations) SweepExpired(now time.Time, maxAge time.Duration) (int, error) {
	return 0, nil
}

func (f *fakeAnnotations) ClearAll() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.annotations = make(map[string]database.Annotation)
	return nil
}

func (f *fakeAnnotations) GetStats() (database.Stats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statsErr != nil {
		return database.Stats{}, f.statsErr
	}
	stats := database.Stats{Total: len(f.annotations)}
	for _, a := range f.annotations {
		switch a.Judgment {
		case database.JudgmentBot:
			stats.Bots++
		case database.JudgmentHuman:
			stats.Humans++
		}
	}
	return stats, nil
}

type fakeScheduler struct {
	mu       sync.Mutex
	enqueued []tasks.TaskInterface
}

func (s *fakeScheduler) Start() {}
func (s *fakeScheduler) Stop()  {}

func (s *fakeScheduler) EnqueueTask(task tasks.TaskInterface) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enqueued = append(s.enqueued, task)
	return nil
}

func (s *fakeScheduler) enqueuedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.enqueued)
}

func (s *fakeScheduler) firstType() tasks.TaskType {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.enqueued) == 0 {
		return ""
	}
	return s.enqueued[0].GetType()
}

func testSettings(t *testing.T, yaml string) *settings.Cache {
	t.Helper()

	path := filepath.Join(t.TempDir(), "settings.yml")
	if yaml != "" {
		if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
			t.Fatalf("Failed to write settings file: %v", err)
		}
	}

	cache := settings.NewCache(path)
	if err := cache.Load(); err != nil {
		t.Fatalf("Failed to load settings: %v", err)
	}
	return cache
}

func newTestRouter(t *testing.T, repo database.AnnotationRepository, scheduler tasks.TaskSchedulerInterface, settingsYAML string) *Router {
	t.Helper()

	client := detect.NewClient(nil, "test-agent")
	analyzer := detect.NewAnalyzer(client, detect.NewScorer())

	router := NewRouter(repo, analyzer, client, scheduler, testSettings(t, settingsYAML))
	router.Start()
	t.Cleanup(router.Stop)
	return router
}

func testItem(key string) stream.Item {
	return stream.Item{Key: key, Author: "Casey", Text: "thanks for the detailed walkthrough"}
}

func TestRouter_AnalyzeItemLocalScore(t *testing.T) {
	router := newTestRouter(t, newFakeAnnotations(), &fakeScheduler{}, "")

	score, err := router.AnalyzeItem(context.Background(), testItem("c-1"))
	if err != nil {
		t.Fatalf("AnalyzeItem failed: %v", err)
	}
	if score.Source != stream.ScoreSourceLocal {
		t.Errorf("Expected local score with no endpoint configured, got %q", score.Source)
	}
	if score.Value < 0 || score.Value > 1 {
		t.Errorf("Score out of range: %v", score.Value)
	}
}

func TestRouter_AnalyzeDisabledDetectionStaysLocal(t *testing.T) {
	// Endpoint configured but detection off: the remote must not be used.
	router := newTestRouter(t, newFakeAnnotations(), &fakeScheduler{},
		"endpoint: http://127.0.0.1:1/api\ndetection_enabled: false\n")

	score, err := router.AnalyzeItem(context.Background(), testItem("c-1"))
	if err != nil {
		t.Fatalf("AnalyzeItem failed: %v", err)
	}
	if score.Source != stream.ScoreSourceLocal {
		t.Errorf("Expected local score with detection disabled, got %q", score.Source)
	}
}

func TestRouter_SubmitVoteTogglesAnnotation(t *testing.T) {
	repo := newFakeAnnotations()
	router := newTestRouter(t, repo, &fakeScheduler{}, "")

	annotation, err := router.SubmitVote(context.Background(), "c-1", database.JudgmentBot, testItem("c-1"))
	if err != nil {
		t.Fatalf("SubmitVote failed: %v", err)
	}
	if annotation.Judgment != database.JudgmentBot {
		t.Errorf("Expected bot judgment, got %v", annotation.Judgment)
	}

	annotation, err = router.SubmitVote(context.Background(), "c-1", database.JudgmentBot, testItem("c-1"))
	if err != nil {
		t.Fatalf("Second SubmitVote failed: %v", err)
	}
	if annotation.Judgment != database.JudgmentNone {
		t.Errorf("Expected cleared judgment on repeat vote, got %v", annotation.Judgment)
	}

	if stored, _ := repo.Get("c-1"); stored != nil {
		t.Errorf("Expected no record after toggle-off, got %+v", stored)
	}
}

func TestRouter_SubmitVoteForwardsWhenEndpointSet(t *testing.T) {
	scheduler := &fakeScheduler{}
	router := newTestRouter(t, newFakeAnnotations(), scheduler,
		"endpoint: http://127.0.0.1:1/api\n")

	if _, err := router.SubmitVote(context.Background(), "c-1", database.JudgmentBot, testItem("c-1")); err != nil {
		t.Fatalf("SubmitVote failed: %v", err)
	}
	if scheduler.enqueuedCount() != 1 {
		t.Fatalf("Expected 1 forwarding task enqueued, got %d", scheduler.enqueuedCount())
	}
	if got := scheduler.firstType(); got != tasks.TaskTypeForwardVote {
		t.Errorf("Expected forward vote task, got %q", got)
	}
}

func TestRouter_SubmitVoteNoForwardWithoutEndpoint(t *testing.T) {
	scheduler := &fakeScheduler{}
	router := newTestRouter(t, newFakeAnnotations(), scheduler, "")

	if _, err := router.SubmitVote(context.Background(), "c-1", database.JudgmentBot, testItem("c-1")); err != nil {
		t.Fatalf("SubmitVote failed: %v", err)
	}
	if scheduler.enqueuedCount() != 0 {
		t.Errorf("Expected no forwarding task without an endpoint, got %d", scheduler.enqueuedCount())
	}
}

func TestRouter_SubmitVoteDisabled(t *testing.T) {
	repo := newFakeAnnotations()
	router := newTestRouter(t, repo, &fakeScheduler{}, "voting_enabled: false\n")

	_, err := router.SubmitVote(context.Background(), "c-1", database.JudgmentBot, testItem("c-1"))
	if !errors.Is(err, ErrVotingDisabled) {
		t.Fatalf("Expected ErrVotingDisabled, got %v", err)
	}
	if stored, _ := repo.Get("c-1"); stored != nil {
		t.Error("Expected no record written with voting disabled")
	}
}

func TestRouter_SubmitVoteStorageFailureStillReplies(t *testing.T) {
	repo := newFakeAnnotations()
	repo.toggleErr = errors.New("disk full")
	router := newTestRouter(t, repo, &fakeScheduler{}, "")

	annotation, err := router.SubmitVote(context.Background(), "c-1", database.JudgmentBot, testItem("c-1"))
	if err != nil {
		t.Fatalf("Expected storage failure to be absorbed, got %v", err)
	}
	if annotation.Judgment != database.JudgmentBot {
		t.Errorf("Expected in-memory toggle result in the reply, got %v", annotation.Judgment)
	}
}

func TestRouter_GetStatistics(t *testing.T) {
	repo := newFakeAnnotations()
	router := newTestRouter(t, repo, &fakeScheduler{}, "")

	for key, judgment := range map[string]database.Judgment{
		"a": database.JudgmentBot,
		"b": database.JudgmentBot,
		"c": database.JudgmentHuman,
	} {
		if _, err := router.SubmitVote(context.Background(), key, judgment, testItem(key)); err != nil {
			t.Fatalf("SubmitVote failed: %v", err)
		}
	}

	stats, err := router.GetStatistics(context.Background())
	if err != nil {
		t.Fatalf("GetStatistics failed: %v", err)
	}
	if stats.Total != 3 || stats.Bots != 2 || stats.Humans != 1 {
		t.Errorf("Expected 3/2/1 totals, got %+v", stats)
	}
}

func TestRouter_GetStatisticsDegradesOnStorageError(t *testing.T) {
	repo := newFakeAnnotations()
	repo.statsErr = errors.New("database is locked")
	router := newTestRouter(t, repo, &fakeScheduler{}, "")

	stats, err := router.GetStatistics(context.Background())
	if err != nil {
		t.Fatalf("Expected degraded read without error, got %v", err)
	}
	if stats.Total != 0 {
		t.Errorf("Expected empty stats on storage failure, got %+v", stats)
	}
}

func TestRouter_RequestsAfterStop(t *testing.T) {
	router := newTestRouter(t, newFakeAnnotations(), &fakeScheduler{}, "")
	router.Stop()

	if _, err := router.AnalyzeItem(context.Background(), testItem("c-1")); !errors.Is(err, ErrRouterStopped) {
		t.Errorf("Expected ErrRouterStopped for analyze after shutdown, got %v", err)
	}
	if _, err := router.GetStatistics(context.Background()); !errors.Is(err, ErrRouterStopped) {
		t.Errorf("Expected ErrRouterStopped for stats after shutdown, got %v", err)
	}
}

func TestRouter_CanceledCallerContext(t *testing.T) {
	router := newTestRouter(t, newFakeAnnotations(), &fakeScheduler{}, "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The canceled context may lose the race against a fast reply, so
	// only assert that a returned error is the context's.
	if _, err := router.AnalyzeItem(ctx, testItem("c-1")); err != nil && !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled or success, got %v", err)
	}
}
