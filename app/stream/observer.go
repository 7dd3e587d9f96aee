package stream

import (
	"context"
	"log/slog"
	"sync"
)

// DefaultAuthor substitutes a missing author field on a candidate node.
// Partial data is preferred to dropping the node: an item the user
// cannot vote on is worse than an item with blank fields.
const DefaultAuthor = "Unknown"

// Observer watches the tree for newly appeared comment nodes and emits
// each key exactly once per tree lifetime. It runs as a single
// goroutine: extraction passes are strictly sequential, and a change
// signal arriving mid-pass is held in the tree's one-slot signal channel
// until the current pass finishes.
type Observer struct {
	tree     *Tree
	resolver *Resolver
	analyzer Analyzer
	settings SettingsSource
	seen     *seenSet

	// resolved pins the key computed for a node on first sight, the way
	// the host would stamp an ID attribute onto the node. Without it a
	// node lacking author and text would draw a fresh random key every
	// pass and be re-emitted forever.
	resolved map[*Node]string

	viewMu    sync.RWMutex
	view      map[string]ScoredItem
	viewOrder []string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewObserver(tree *Tree, analyzer Analyzer, settings SettingsSource, seenKeyLimit int) *Observer {
	ctx, cancel := context.WithCancel(context.Background())

	return &Observer{
		tree:     tree,
		resolver: NewResolver(),
		analyzer: analyzer,
		settings: settings,
		seen:     newSeenSet(seenKeyLimit),
		resolved: make(map[*Node]string),
		view:     make(map[string]ScoredItem),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (o *Observer) Start() {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()

		// Initial pass picks up nodes added before Start.
		o.RunPass(o.ctx)

		for {
			select {
			case <-o.ctx.Done():
				return
			case <-o.tree.Changes():
				o.RunPass(o.ctx)
			}
		}
	}()
}

func (o *Observer) Stop() {
	o.cancel()
	o.wg.Wait()
}

// RunPass executes one extraction pass and returns the number of newly
// emitted items. Passes never interleave: the observer goroutine is the
// only caller during normal operation (tests call it directly).
func (o *Observer) RunPass(ctx context.Context) int {
	detectionEnabled := o.settings == nil || o.settings.DetectionEnabled()

	nodes := o.tree.Snapshot()
	current := make(map[string]struct{}, len(nodes))
	emitted := 0

	for _, node := range nodes {
		if !matchesItemShape(node) {
			continue
		}

		key, ok := o.resolved[node]
		if !ok {
			key = o.resolver.Run(node)
			o.resolved[node] = key
		}
		current[key] = struct{}{}

		if o.seen.Contains(key) {
			continue
		}

		item := extractItem(node, key)
		o.seen.Add(key)
		emitted++

		scored := ScoredItem{Item: item}
		if detectionEnabled && o.analyzer != nil {
			score, err := o.analyzer.Run(ctx, item)
			if err != nil {
				slog.Warn("Scoring unavailable for item", "key", key, "error", err)
			} else {
				scored.Score = &score
			}
		}

		o.publish(scored)
	}

	o.prune(current)
	o.pruneResolved(nodes)

	if emitted > 0 {
		slog.Debug("Extraction pass completed", "nodes", len(nodes), "new", emitted, "tracked", o.seen.Len())
	}

	return emitted
}

// View returns the rendered items in first-seen order.
func (o *Observer) View() []ScoredItem {
	o.viewMu.RLock()
	defer o.viewMu.RUnlock()

	items := make([]ScoredItem, 0, len(o.viewOrder))
	for _, key := range o.viewOrder {
		if item, ok := o.view[key]; ok {
			items = append(items, item)
		}
	}
	return items
}

// HasSeen reports whether a key has already been emitted.
func (o *Observer) HasSeen(key string) bool {
	return o.seen.Contains(key)
}

func (o *Observer) publish(item ScoredItem) {
	o.viewMu.Lock()
	defer o.viewMu.Unlock()

	if _, ok := o.view[item.Key]; !ok {
		o.viewOrder = append(o.viewOrder, item.Key)
	}
	o.view[item.Key] = item
}

// prune drops view entries whose node has left the tree. The seen-key
// set is intentionally left untouched so a pruned key is never
// re-emitted within this tree lifetime.
func (o *Observer) prune(current map[string]struct{}) {
	o.viewMu.Lock()
	defer o.viewMu.Unlock()

	kept := o.viewOrder[:0]
	for _, key := range o.viewOrder {
		if _, ok := current[key]; ok {
			kept = append(kept, key)
		} else {
			delete(o.view, key)
		}
	}
	o.viewOrder = kept
}

// pruneResolved drops key pins for nodes no longer in the tree.
func (o *Observer) pruneResolved(nodes []*Node) {
	if len(o.resolved) == len(nodes) {
		return
	}

	live := make(map[*Node]struct{}, len(nodes))
	for _, node := range nodes {
		live[node] = struct{}{}
	}
	for node := range o.resolved {
		if _, ok := live[node]; !ok {
			delete(o.resolved, node)
		}
	}
}

func matchesItemShape(node *Node) bool {
	return node != nil && node.Kind == KindComment
}

func extractItem(node *Node, key string) Item {
	author := node.Fields[FieldAuthor]
	if author == "" {
		author = DefaultAuthor
	}

	return Item{
		Key:           key,
		Author:        author,
		Text:          node.Fields[FieldText],
		PostedLabel:   node.Fields[FieldPosted],
		LikeCount:     node.Fields[FieldLikes],
		IsPinned:      node.Pinned,
		IsHighlighted: node.Highlighted,
	}
}
