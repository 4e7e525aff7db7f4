package utils

import "testing"

func TestChunkIDDeterministic(t *testing.T) {
	a := ChunkID("some chunk text", "doc.txt", 3)
	b := ChunkID("some chunk text", "doc.txt", 3)
	if a != b {
		t.Errorf("same inputs produced different IDs: %s != %s", a, b)
	}
}

func TestChunkIDVariesByInput(t *testing.T) {
	base := ChunkID("text", "src", 0)
	if ChunkID("other", "src", 0) == base {
		t.Error("different text should produce a different ID")
	}
	if ChunkID("text", "other", 0) == base {
		t.Error("different source should produce a different ID")
	}
	if ChunkID("text", "src", 1) == base {
		t.Error("different position should produce a different ID")
	}
}

func TestDocumentIDShortAndStable(t *testing.T) {
	id := DocumentID("the raw document body")
	if len(id) != 12 {
		t.Errorf("expected 12-char document id, got %d chars", len(id))
	}
	if id != DocumentID("the raw document body") {
		t.Error("document id not stable across calls")
	}
}
