package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/botsieve/botsieve/app/bridge"
	"github.com/botsieve/botsieve/app/database"
	"github.com/botsieve/botsieve/app/settings"
	"github.com/botsieve/botsieve/app/stream"
)

func NewHandler(tree *stream.Tree, observer *stream.Observer, router *bridge.Router,
	annotations database.AnnotationRepository, settingsCache *settings.Cache) *Handler {
	return &Handler{
		tree:        tree,
		observer:    observer,
		router:      router,
		annotations: annotations,
		settings:    settingsCache,
	}
}

// GetComments returns the rendered view: every tracked item with its
// score and current judgment. A failing annotation read degrades to "no
// prior votes" rather than an error; the worst case is heuristic-only,
// annotation-free rendering.
func (h *Handler) GetComments(c *gin.Context) {
	annotations, err := h.annotations.GetAll()
	if err != nil {
		slog.Error("Failed to read annotations for rendering, showing none", "error", err)
		annotations = map[string]database.Annotation{}
	}

	view := h.observer.View()
	rendered := make([]renderedComment, 0, len(view))
	for _, item := range view {
		judgment := database.JudgmentNone
		if annotation, ok := annotations[item.Key]; ok {
			judgment = annotation.Judgment
		}
		rendered = append(rendered, renderedComment{
			ScoredItem: item,
			Judgment:   judgment.String(),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"comments": rendered,
		"count":    len(rendered),
	})
}

// PostComments ingests a batch of comment nodes into the tree. The
// observer picks them up on the change signal the batch raises.
func (h *Handler) PostComments(c *gin.Context) {
	var payloads []commentPayload
	if err := c.ShouldBindJSON(&payloads); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "message": err.Error()})
		return
	}

	nodes := make([]*stream.Node, 0, len(payloads))
	for _, p := range payloads {
		nodes = append(nodes, &stream.Node{
			NativeID: p.ID,
			Kind:     stream.KindComment,
			Fields: map[string]string{
				stream.FieldAuthor: p.Author,
				stream.FieldText:   p.Text,
				stream.FieldPosted: p.Posted,
				stream.FieldLikes:  p.Likes,
			},
			Pinned:      p.Pinned,
			Highlighted: p.Highlighted,
		})
	}

	h.tree.Add(nodes...)

	c.JSON(http.StatusAccepted, gin.H{"added": len(nodes)})
}

// DeleteComment removes one node from the tree by its native ID.
func (h *Handler) DeleteComment(c *gin.Context) {
	id := c.Param("id")
	if !h.tree.Remove(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "comment not found", "id": id})
		return
	}
	c.Status(http.StatusNoContent)
}

// PostVote toggles a judgment for one item and relays it through the
// cross-context router.
func (h *Handler) PostVote(c *gin.Context) {
	var payload votePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "message": err.Error()})
		return
	}

	judgment, err := database.ParseJudgment(payload.Judgment)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snapshot := h.voteSnapshot(payload)

	annotation, err := h.router.SubmitVote(c.Request.Context(), payload.Key, judgment, snapshot)
	if err != nil {
		if err == bridge.ErrVotingDisabled {
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		}
		slog.Error("Vote submission failed", "key", payload.Key, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record vote"})
		return
	}

	c.JSON(http.StatusOK, annotation)
}

// GetStats returns vote totals through the router.
func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.router.GetStatistics(c.Request.Context())
	if err != nil {
		slog.Error("Statistics request failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read statistics"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetAnnotations returns the persisted annotation mapping.
func (h *Handler) GetAnnotations(c *gin.Context) {
	annotations, err := h.annotations.GetAll()
	if err != nil {
		slog.Error("Failed to read annotations, returning empty mapping", "error", err)
		annotations = map[string]database.Annotation{}
	}
	c.JSON(http.StatusOK, gin.H{
		"annotations": annotations,
		"count":       len(annotations),
	})
}

// DeleteAnnotations is the explicit user-initiated reset.
func (h *Handler) DeleteAnnotations(c *gin.Context) {
	if err := h.annotations.ClearAll(); err != nil {
		slog.Error("Failed to clear annotations", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear annotations"})
		return
	}
	c.Status(http.StatusNoContent)
}

// GetHealth reports service liveness plus the current settings and
// stream counters.
func (h *Handler) GetHealth(c *gin.Context) {
	snap := h.settings.Snapshot()

	c.JSON(http.StatusOK, gin.H{
		"timestamp":         time.Now().In(time.Local).Format(time.RFC3339),
		"comments":          h.tree.NodeCount(),
		"detection_enabled": snap.DetectionEnabled,
		"voting_enabled":    snap.VotingEnabled,
		"remote_configured": snap.Endpoint != "",
	})
}

func (h *Handler) voteSnapshot(payload votePayload) stream.Item {
	if payload.Snapshot != nil {
		snapshot := *payload.Snapshot
		snapshot.Key = payload.Key
		return snapshot
	}

	// No snapshot supplied: fall back to the rendered view so the vote
	// stays interpretable after the comment disappears.
	for _, item := range h.observer.View() {
		if item.Key == payload.Key {
			return item.Item
		}
	}

	return stream.Item{Key: payload.Key}
}
