package stream

// seenSet is the deduplication set preventing re-extraction of already
// processed items. It is bounded: once limit keys are tracked, the
// oldest key is evicted first. An evicted key whose node is still in the
// tree would be re-emitted on the next pass; the limit is sized well
// above any realistic live comment count to keep that a
// long-session-only concern rather than an unbounded-growth one.
type seenSet struct {
	limit int
	keys  map[string]struct{}
	order []string
}

func newSeenSet(limit int) *seenSet {
	if limit <= 0 {
		limit = 10000
	}
	return &seenSet{
		limit: limit,
		keys:  make(map[string]struct{}),
	}
}

func (s *seenSet) Contains(key string) bool {
	_, ok := s.keys[key]
	return ok
}

func (s *seenSet) Add(key string) {
	if _, ok := s.keys[key]; ok {
		return
	}

	for len(s.keys) >= s.limit {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.keys, oldest)
	}

	s.keys[key] = struct{}{}
	s.order = append(s.order, key)
}

func (s *seenSet) Len() int {
	return len(s.keys)
}
