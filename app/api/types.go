package api

import (
	"github.com/botsieve/botsieve/app/bridge"
	"github.com/botsieve/botsieve/app/database"
	"github.com/botsieve/botsieve/app/settings"
	"github.com/botsieve/botsieve/app/stream"
)

type Handler struct {
	tree        *stream.Tree
	observer    *stream.Observer
	router      *bridge.Router
	annotations database.AnnotationRepository
	settings    *settings.Cache
}

// commentPayload is one ingested comment node.
type commentPayload struct {
	ID          string `json:"id"`
	Author      string `json:"author"`
	Text        string `json:"text"`
	Posted      string `json:"posted"`
	Likes       string `json:"likes"`
	Pinned      bool   `json:"pinned"`
	Highlighted bool   `json:"highlighted"`
}

// votePayload is one user judgment toggle.
type votePayload struct {
	Key      string       `json:"key" binding:"required"`
	Judgment string       `json:"judgment" binding:"required"`
	Snapshot *stream.Item `json:"snapshot"`
}

// renderedComment is a view item with its current vote merged in.
type renderedComment struct {
	stream.ScoredItem
	Judgment string `json:"judgment"`
}
