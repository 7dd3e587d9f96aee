// Package bridge relays requests between the observation context and
// the durable-state context. The two sides share no memory: the router
// loop is the only goroutine that touches the annotation store or the
// remote analysis client, so every mutation of durable state is
// serialized here.
package bridge

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/botsieve/botsieve/app/database"
	"github.com/botsieve/botsieve/app/detect"
	"github.com/botsieve/botsieve/app/settings"
	"github.com/botsieve/botsieve/app/stream"
	"github.com/botsieve/botsieve/app/tasks"
)

var _ stream.Analyzer = (*Router)(nil)

// ErrVotingDisabled is returned in the vote reply when the voting
// feature gate is off. The request still completes; the channel never
// drops it.
var ErrVotingDisabled = errors.New("voting is disabled in settings")

// ErrRouterStopped is returned when a request arrives after shutdown.
var ErrRouterStopped = errors.New("router is stopped")

type Router struct {
	annotations database.AnnotationRepository
	analyzer    *detect.Analyzer
	client      *detect.Client
	scheduler   tasks.TaskSchedulerInterface
	settings    *settings.Cache

	requests chan any
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

func NewRouter(annotations database.AnnotationRepository, analyzer *detect.Analyzer,
	client *detect.Client, scheduler tasks.TaskSchedulerInterface, settingsCache *settings.Cache) *Router {
	ctx, cancel := context.WithCancel(context.Background())

	return &Router{
		annotations: annotations,
		analyzer:    analyzer,
		client:      client,
		scheduler:   scheduler,
		settings:    settingsCache,
		requests:    make(chan any, 64),
		ctx:         ctx,
		cancel:      cancel,
	}
}

func (r *Router) Start() {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		for {
			select {
			case <-r.ctx.Done():
				return
			case req := <-r.requests:
				r.handle(req)
			}
		}
	}()
}

func (r *Router) Stop() {
	r.cancel()
	r.wg.Wait()
}

// Run satisfies stream.Analyzer so the observer can dispatch scoring
// without knowing about the durable-state side.
func (r *Router) Run(ctx context.Context, item stream.Item) (stream.Score, error) {
	return r.AnalyzeItem(ctx, item)
}

// AnalyzeItem requests a score for one item from the durable-state
// context.
func (r *Router) AnalyzeItem(ctx context.Context, item stream.Item) (stream.Score, error) {
	req := analyzeRequest{item: item, reply: make(chan analyzeReply, 1)}

	if err := r.send(ctx, req); err != nil {
		return stream.Score{}, err
	}

	select {
	case reply := <-req.reply:
		return reply.score, reply.err
	case <-r.ctx.Done():
		return stream.Score{}, ErrRouterStopped
	case <-ctx.Done():
		return stream.Score{}, ctx.Err()
	}
}

// SubmitVote records a judgment toggle and schedules best-effort
// forwarding to the remote collaborator.
func (r *Router) SubmitVote(ctx context.Context, key string, judgment database.Judgment, snapshot stream.Item) (database.Annotation, error) {
	req := voteRequest{key: key, judgment: judgment, snapshot: snapshot, reply: make(chan voteReply, 1)}

	if err := r.send(ctx, req); err != nil {
		return database.Annotation{}, err
	}

	select {
	case reply := <-req.reply:
		return reply.annotation, reply.err
	case <-r.ctx.Done():
		return database.Annotation{}, ErrRouterStopped
	case <-ctx.Done():
		return database.Annotation{}, ctx.Err()
	}
}

// GetStatistics returns vote totals from the durable-state context.
func (r *Router) GetStatistics(ctx context.Context) (database.Stats, error) {
	req := statsRequest{reply: make(chan statsReply, 1)}

	if err := r.send(ctx, req); err != nil {
		return database.Stats{}, err
	}

	select {
	case reply := <-req.reply:
		return reply.stats, reply.err
	case <-r.ctx.Done():
		return database.Stats{}, ErrRouterStopped
	case <-ctx.Done():
		return database.Stats{}, ctx.Err()
	}
}

func (r *Router) send(ctx context.Context, req any) error {
	select {
	case r.requests <- req:
		return nil
	case <-r.ctx.Done():
		return ErrRouterStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Router) handle(req any) {
	switch req := req.(type) {
	case analyzeRequest:
		req.reply <- r.handleAnalyze(req)
	case voteRequest:
		req.reply <- r.handleVote(req)
	case statsRequest:
		req.reply <- r.handleStats()
	default:
		slog.Error("Router received unknown request kind", "request", req)
	}
}

func (r *Router) handleAnalyze(req analyzeRequest) analyzeReply {
	snap := r.settings.Snapshot()

	endpoint := ""
	if snap.DetectionEnabled {
		endpoint = snap.Endpoint
	}

	// The analyzer absorbs every remote failure into a heuristic
	// fallback, so analysis itself cannot fail.
	score := r.analyzer.Run(r.ctx, endpoint, req.item)
	return analyzeReply{score: score}
}

func (r *Router) handleVote(req voteRequest) voteReply {
	snap := r.settings.Snapshot()

	if !snap.VotingEnabled {
		return voteReply{err: ErrVotingDisabled}
	}

	annotation, err := r.annotations.Toggle(req.key, req.judgment, req.snapshot)
	if err != nil {
		// The returned annotation carries the in-memory toggle result;
		// the caller shows it while the storage failure is only logged.
		slog.Error("Durable write failed for vote, local state may be lost", "key", req.key, "error", err)
		return voteReply{annotation: annotation, err: nil}
	}

	if snap.Endpoint != "" {
		task := tasks.NewForwardVoteTask(r.client, snap.Endpoint, req.key, annotation.Judgment, req.snapshot)
		if err := r.scheduler.EnqueueTask(task); err != nil {
			slog.Warn("Failed to enqueue vote forwarding", "key", req.key, "error", err)
		}
	}

	return voteReply{annotation: annotation}
}

func (r *Router) handleStats() statsReply {
	stats, err := r.annotations.GetStats()
	if err != nil {
		// Degraded read: report empty totals rather than blocking the
		// statistics surface.
		slog.Error("Failed to read annotation stats", "error", err)
		return statsReply{stats: database.Stats{}}
	}
	return statsReply{stats: stats}
}
