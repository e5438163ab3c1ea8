package badger

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/storage"
)

func TestFAQBasics(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()

	faq := &core.FAQEntry{
		Question: "What orbit does INSAT-3D use?",
		Answer:   "INSAT-3D operates from a geostationary orbit.",
		Vector:   []float32{0.5, 0.5},
	}

	put, err := repos.FAQs.PutFAQs(ctx, faq)
	if err != nil {
		t.Fatalf("Failed to put FAQ: %v", err)
	}
	if put[0].Id != core.FAQID(faq.Question) {
		t.Fatal("Expected content-derived FAQ ID")
	}

	got, err := repos.FAQs.GetFAQ(ctx, put[0].Id)
	if err != nil {
		t.Fatalf("Failed to get FAQ: %v", err)
	}
	if got.Answer != faq.Answer {
		t.Fatalf("Expected %q, got %q", faq.Answer, got.Answer)
	}

	_, err = repos.FAQs.GetFAQ(ctx, core.ID(999))
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestReplaceFAQs(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()

	if _, err := repos.FAQs.PutFAQs(ctx, &core.FAQEntry{Question: "old?", Answer: "old."}); err != nil {
		t.Fatalf("Failed to put FAQ: %v", err)
	}

	replacement := []*core.FAQEntry{
		{Question: "new?", Answer: "new."},
	}
	if err := repos.FAQs.ReplaceFAQs(ctx, replacement); err != nil {
		t.Fatalf("Failed to replace FAQs: %v", err)
	}

	listed, err := repos.FAQs.ListFAQs(ctx)
	if err != nil {
		t.Fatalf("Failed to list FAQs: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("Expected 1 FAQ after replace, got %d", len(listed))
	}
	if listed[0].Question != "new?" {
		t.Fatalf("Expected replacement FAQ, got %q", listed[0].Question)
	}
}
