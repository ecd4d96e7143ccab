package services_test

import (
	"context"
	"testing"

	"clipforge/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithJobID(ctx, "ABC123")
	ctx = services.WithRecipe(ctx, "trim")
	ctx = services.WithStage(ctx, "fetch")
	ctx = services.WithRequestID(ctx, "req-123")

	if id, ok := services.JobIDFromContext(ctx); !ok || id != "ABC123" {
		t.Fatalf("unexpected job id: %v %v", id, ok)
	}
	if recipe, ok := services.RecipeFromContext(ctx); !ok || recipe != "trim" {
		t.Fatalf("unexpected recipe: %v %v", recipe, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "fetch" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestStageBlankPreservesContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
}

func TestFromNilContext(t *testing.T) {
	if _, ok := services.JobIDFromContext(nil); ok {
		t.Fatal("expected no job id from nil context")
	}
}
