package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/botsieve/botsieve/app/stream"
)

var _ AnnotationRepository = (*AnnotationStore)(nil)

// AnnotationStore is the authoritative key -> Annotation mapping. Only
// the durable-state context writes to it; the HTTP surface reads.
type AnnotationStore struct {
	db *DB
}

func NewAnnotationStore(db *DB) *AnnotationStore {
	return &AnnotationStore{db: db}
}

// GetAll returns the full annotation mapping, used at render time to
// restore vote highlighting.
func (s *AnnotationStore) GetAll() (map[string]Annotation, error) {
	rows, err := s.db.Query(`
		SELECT comment_id, judgment, recorded_at, author, text,
		       posted_label, like_count, is_pinned, is_highlighted
		FROM annotations
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get annotations: %w", err)
	}
	defer rows.Close()

	annotations := make(map[string]Annotation)
	for rows.Next() {
		annotation, err := scanAnnotation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan annotation row: %w", err)
		}
		annotations[annotation.Key] = annotation
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating annotation rows: %w", err)
	}

	return annotations, nil
}

// Get returns the annotation for one key, or nil when the key has no
// recorded judgment.
func (s *AnnotationStore) Get(key string) (*Annotation, error) {
	row := s.db.QueryRow(`
		SELECT comment_id, judgment, recorded_at, author, text,
		       posted_label, like_count, is_pinned, is_highlighted
		FROM annotations
		WHERE comment_id = ?
	`, key)

	annotation, err := scanAnnotation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get annotation: %w", err)
	}
	return &annotation, nil
}

// Toggle records a judgment for key. Submitting the judgment already on
// record clears it; a different judgment replaces it. The returned
// annotation always carries a fresh RecordedAt, cleared votes included.
func (s *AnnotationStore) Toggle(key string, judgment Judgment, snapshot stream.Item) (Annotation, error) {
	now := time.Now().UTC()
	result := Annotation{
		Key:        key,
		Judgment:   judgment,
		RecordedAt: now,
		Snapshot:   snapshot,
	}

	var current Judgment
	err := s.db.QueryRow(`SELECT judgment FROM annotations WHERE comment_id = ?`, key).Scan(&current)
	if err != nil && err != sql.ErrNoRows {
		return result, fmt.Errorf("failed to read current judgment: %w", err)
	}

	if err == nil && current == judgment {
		// Same vote again: toggle off.
		if _, err := s.db.Exec(`DELETE FROM annotations WHERE comment_id = ?`, key); err != nil {
			return result, fmt.Errorf("failed to clear annotation: %w", err)
		}
		result.Judgment = JudgmentNone
		return result, nil
	}

	_, err = s.db.Exec(`
		INSERT INTO annotations (
			comment_id, judgment, recorded_at, author, text,
			posted_label, like_count, is_pinned, is_highlighted, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (comment_id) DO UPDATE SET
			judgment = excluded.judgment,
			recorded_at = excluded.recorded_at,
			author = excluded.author,
			text = excluded.text,
			posted_label = excluded.posted_label,
			like_count = excluded.like_count,
			is_pinned = excluded.is_pinned,
			is_highlighted = excluded.is_highlighted
	`, key, int(judgment), now.UnixMilli(), snapshot.Author, snapshot.Text,
		snapshot.PostedLabel, snapshot.LikeCount,
		boolToInt(snapshot.IsPinned), boolToInt(snapshot.IsHighlighted),
		now.UnixMilli())
	if err != nil {
		return result, fmt.Errorf("failed to store annotation: %w", err)
	}

	return result, nil
}

// SweepExpired deletes annotations recorded before now-maxAge and
// returns the number removed.
func (s *AnnotationStore) SweepExpired(now time.Time, maxAge time.Duration) (int, error) {
	cutoff := now.Add(-maxAge).UnixMilli()

	result, err := s.db.Exec(`DELETE FROM annotations WHERE recorded_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep expired annotations: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count swept annotations: %w", err)
	}

	return int(removed), nil
}

// ClearAll empties the annotation mapping.
func (s *AnnotationStore) ClearAll() error {
	if _, err := s.db.Exec(`DELETE FROM annotations`); err != nil {
		return fmt.Errorf("failed to clear annotations: %w", err)
	}
	return nil
}

// GetStats returns vote totals for the statistics surface.
func (s *AnnotationStore) GetStats() (Stats, error) {
	var stats Stats
	err := s.db.QueryRow(`
		SELECT
			COUNT(*) as total,
			COALESCE(SUM(CASE WHEN judgment = 1 THEN 1 ELSE 0 END), 0) as bots,
			COALESCE(SUM(CASE WHEN judgment = -1 THEN 1 ELSE 0 END), 0) as humans
		FROM annotations
	`).Scan(&stats.Total, &stats.Bots, &stats.Humans)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to get annotation stats: %w", err)
	}

	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnnotation(row rowScanner) (Annotation, error) {
	var (
		annotation  Annotation
		recordedAt  int64
		pinned      int
		highlighted int
	)

	err := row.Scan(
		&annotation.Key, &annotation.Judgment, &recordedAt,
		&annotation.Snapshot.Author, &annotation.Snapshot.Text,
		&annotation.Snapshot.PostedLabel, &annotation.Snapshot.LikeCount,
		&pinned, &highlighted,
	)
	if err != nil {
		return Annotation{}, err
	}

	annotation.RecordedAt = time.UnixMilli(recordedAt).UTC()
	annotation.Snapshot.Key = annotation.Key
	annotation.Snapshot.IsPinned = pinned != 0
	annotation.Snapshot.IsHighlighted = highlighted != 0

	return annotation, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
