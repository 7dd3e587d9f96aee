package bridge

import (
	"github.com/botsieve/botsieve/app/database"
	"github.com/botsieve/botsieve/app/stream"
)

// The three request kinds carried between the observation context and
// the durable-state context. Every request carries its full payload so
// the receiver can handle it statelessly, and every request gets exactly
// one reply: failures travel inside the reply, the channel itself never
// drops a request.

type analyzeRequest struct {
	item  stream.Item
	reply chan analyzeReply
}

type analyzeReply struct {
	score stream.Score
	err   error
}

type voteRequest struct {
	key      string
	judgment database.Judgment
	snapshot stream.Item
	reply    chan voteReply
}

type voteReply struct {
	annotation database.Annotation
	err        error
}

type statsRequest struct {
	reply chan statsReply
}

type statsReply struct {
	stats database.Stats
	err   error
}
