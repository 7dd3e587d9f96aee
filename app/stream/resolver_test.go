package stream

import (
	"strings"
	"testing"
)

func TestResolver_PrefersNativeID(t *testing.T) {
	resolver := NewResolver()

	node := &Node{
		NativeID: "UgxKREWxIg",
		Kind:     KindComment,
		Fields:   map[string]string{FieldAuthor: "Alice", FieldText: "Hello"},
	}

	if key := resolver.Run(node); key != "UgxKREWxIg" {
		t.Errorf("Expected native ID to win, got %q", key)
	}
}

func TestResolver_DerivedKeyIsStable(t *testing.T) {
	resolver := NewResolver()

	node := &Node{
		Kind:   KindComment,
		Fields: map[string]string{FieldAuthor: "Alice", FieldText: "A perfectly normal comment."},
	}

	first := resolver.Run(node)
	if !strings.HasPrefix(first, "c-") {
		t.Errorf("Expected derived key prefix 'c-', got %q", first)
	}

	for i := 0; i < 5; i++ {
		if got := resolver.Run(node); got != first {
			t.Fatalf("Derived key changed between runs: %q vs %q", first, got)
		}
	}
}

func TestResolver_SamePrefixSameKey(t *testing.T) {
	resolver := NewResolver()
	prefix := strings.Repeat("x", 50)

	a := &Node{Kind: KindComment, Fields: map[string]string{FieldAuthor: "Alice", FieldText: prefix + "tail one"}}
	b := &Node{Kind: KindComment, Fields: map[string]string{FieldAuthor: "Alice", FieldText: prefix + "tail two"}}

	// Identical author, identical first 50 characters, identical length:
	// the keys collide and the later node is deliberately treated as a
	// duplicate downstream.
	if resolver.Run(a) != resolver.Run(b) {
		t.Error("Expected same-author same-prefix same-length texts to collide")
	}
}

func TestResolver_LengthDisambiguates(t *testing.T) {
	resolver := NewResolver()
	prefix := strings.Repeat("x", 50)

	a := &Node{Kind: KindComment, Fields: map[string]string{FieldAuthor: "Alice", FieldText: prefix + "short"}}
	b := &Node{Kind: KindComment, Fields: map[string]string{FieldAuthor: "Alice", FieldText: prefix + "a longer tail"}}

	if resolver.Run(a) == resolver.Run(b) {
		t.Error("Expected different-length texts with the same prefix to get distinct keys")
	}
}

func TestResolver_DifferentAuthorsDifferentKeys(t *testing.T) {
	resolver := NewResolver()

	a := &Node{Kind: KindComment, Fields: map[string]string{FieldAuthor: "Alice", FieldText: "Same words"}}
	b := &Node{Kind: KindComment, Fields: map[string]string{FieldAuthor: "Bob", FieldText: "Same words"}}

	if resolver.Run(a) == resolver.Run(b) {
		t.Error("Expected different authors to get distinct keys")
	}
}

func TestResolver_FallbackKeyIsUnique(t *testing.T) {
	resolver := NewResolver()

	node := &Node{Kind: KindComment, Fields: map[string]string{}}

	first := resolver.Run(node)
	second := resolver.Run(node)

	if !strings.HasPrefix(first, "t-") {
		t.Errorf("Expected fallback key prefix 't-', got %q", first)
	}
	if first == second {
		t.Error("Fallback keys sacrifice stability for uniqueness; two runs must differ")
	}
}
