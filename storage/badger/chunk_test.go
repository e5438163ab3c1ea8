package badger

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/storage"
)

func TestChunkBasics(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()

	chunk := &core.DocumentChunk{
		Document: "missions/insat.md",
		Text:     "INSAT-3D is a meteorological satellite.",
		Vector:   []float32{0.1, 0.2, 0.3},
	}

	put, err := repos.Chunks.PutChunks(ctx, chunk)
	if err != nil {
		t.Fatalf("Failed to put chunk: %v", err)
	}
	if put[0].Id == 0 {
		t.Fatal("Expected non-zero ID")
	}
	if put[0].Id != core.ChunkID(chunk.Document, chunk.Text) {
		t.Fatal("Expected content-derived chunk ID")
	}

	got, err := repos.Chunks.GetChunk(ctx, put[0].Id)
	if err != nil {
		t.Fatalf("Failed to get chunk: %v", err)
	}
	if got.Text != chunk.Text {
		t.Fatalf("Expected %q, got %q", chunk.Text, got.Text)
	}
	if len(got.Vector) != 3 {
		t.Fatalf("Expected vector of length 3, got %d", len(got.Vector))
	}

	_, err = repos.Chunks.GetChunk(ctx, core.ID(999))
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestListChunksOrdered(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()

	// Insert out of ID order
	chunks := []*core.DocumentChunk{
		{Id: core.ID(30), Document: "c", Text: "third"},
		{Id: core.ID(10), Document: "a", Text: "first"},
		{Id: core.ID(20), Document: "b", Text: "second"},
	}
	if _, err := repos.Chunks.PutChunks(ctx, chunks...); err != nil {
		t.Fatalf("Failed to put chunks: %v", err)
	}

	listed, err := repos.Chunks.ListChunks(ctx)
	if err != nil {
		t.Fatalf("Failed to list chunks: %v", err)
	}
	if len(listed) != 3 {
		t.Fatalf("Expected 3 chunks, got %d", len(listed))
	}
	for i, want := range []core.ID{10, 20, 30} {
		if listed[i].Id != want {
			t.Fatalf("Expected ID %d at position %d, got %d", want, i, listed[i].Id)
		}
	}
}

func TestReplaceChunks(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()

	if _, err := repos.Chunks.PutChunks(ctx, &core.DocumentChunk{Id: core.ID(1), Document: "old", Text: "old text"}); err != nil {
		t.Fatalf("Failed to put chunk: %v", err)
	}

	replacement := []*core.DocumentChunk{
		{Id: core.ID(2), Document: "new", Text: "new text"},
	}
	if err := repos.Chunks.ReplaceChunks(ctx, replacement); err != nil {
		t.Fatalf("Failed to replace chunks: %v", err)
	}

	listed, err := repos.Chunks.ListChunks(ctx)
	if err != nil {
		t.Fatalf("Failed to list chunks: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("Expected 1 chunk after replace, got %d", len(listed))
	}
	if listed[0].Id != core.ID(2) {
		t.Fatalf("Expected replacement chunk, got ID %d", listed[0].Id)
	}
}
