package stream

import (
	"fmt"
	"testing"
)

func TestSeenSet_AddAndContains(t *testing.T) {
	seen := newSeenSet(10)

	seen.Add("k1")
	seen.Add("k1")

	if !seen.Contains("k1") {
		t.Error("Expected k1 to be tracked")
	}
	if seen.Contains("k2") {
		t.Error("Did not expect k2 to be tracked")
	}
	if seen.Len() != 1 {
		t.Errorf("Duplicate Add must not grow the set, got %d", seen.Len())
	}
}

func TestSeenSet_EvictsOldestFirst(t *testing.T) {
	seen := newSeenSet(3)

	for i := 1; i <= 4; i++ {
		seen.Add(fmt.Sprintf("k%d", i))
	}

	if seen.Contains("k1") {
		t.Error("Expected the oldest key to be evicted at the cap")
	}
	for i := 2; i <= 4; i++ {
		key := fmt.Sprintf("k%d", i)
		if !seen.Contains(key) {
			t.Errorf("Expected %s to survive eviction", key)
		}
	}
	if seen.Len() != 3 {
		t.Errorf("Expected set to hold exactly the cap, got %d", seen.Len())
	}
}
