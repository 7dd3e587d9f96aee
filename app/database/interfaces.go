package database

import (
	"time"

	"github.com/botsieve/botsieve/app/stream"
)

type AnnotationRepository interface {
	GetAll() (map[string]Annotation, error)
	Get(key string) (*Annotation, error)
	Toggle(key string, judgment Judgment, snapshot stream.Item) (Annotation, error)
	SweepExpired(now time.Time, maxAge time.Duration) (int, error)
	ClearAll() error
	GetStats() (Stats, error)
}
