package stream

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

const derivedKeyPrefixLen = 50

// Resolver derives a stable key for a node. Preference order: the native
// ID when the host supplied one, then a hash over author and the first
// 50 characters of the text, then a time-plus-random key that is unique
// but not stable across passes.
//
// Two distinct nodes hashing to the same derived key are deliberately
// collapsed into one item downstream: a missed distinct item is cheaper
// than two annotations targeting the same comment.
type Resolver struct{}

func NewResolver() *Resolver {
	return &Resolver{}
}

func (r *Resolver) Run(node *Node) string {
	if node.NativeID != "" {
		return node.NativeID
	}

	author := node.Fields[FieldAuthor]
	text := node.Fields[FieldText]

	if author == "" && text == "" {
		return fmt.Sprintf("t-%d-%s", time.Now().UnixMilli(), uuid.NewString()[:8])
	}

	prefix := []rune(text)
	if len(prefix) > derivedKeyPrefixLen {
		prefix = prefix[:derivedKeyPrefixLen]
	}

	content := norm.NFC.String(fmt.Sprintf("%s|%s", author, string(prefix)))
	hash := sha256.Sum256([]byte(content))

	// The text length disambiguates comments sharing author and prefix
	// but differing past the first 50 characters.
	return fmt.Sprintf("c-%s-%d", hex.EncodeToString(hash[:])[:16], len(text))
}
