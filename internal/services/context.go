package services

import "context"

type contextKey string

const (
	jobIDKey     contextKey = "job_id"
	recipeKey    contextKey = "recipe"
	stageKey     contextKey = "stage"
	requestIDKey contextKey = "request_id"
)

func withString(ctx context.Context, key contextKey, value string) context.Context {
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func stringFrom(ctx context.Context, key contextKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(key).(string)
	return v, ok && v != ""
}

// WithJobID annotates ctx with the job ID derived from the source URL.
func WithJobID(ctx context.Context, id string) context.Context {
	return withString(ctx, jobIDKey, id)
}

// JobIDFromContext extracts the job ID if present.
func JobIDFromContext(ctx context.Context) (string, bool) { return stringFrom(ctx, jobIDKey) }

// WithRecipe annotates ctx with the recipe name.
func WithRecipe(ctx context.Context, recipe string) context.Context {
	return withString(ctx, recipeKey, recipe)
}

func RecipeFromContext(ctx context.Context) (string, bool) { return stringFrom(ctx, recipeKey) }

// WithStage annotates ctx with the current stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	return withString(ctx, stageKey, stage)
}

func StageFromContext(ctx context.Context) (string, bool) { return stringFrom(ctx, stageKey) }

// WithRequestID annotates ctx with the request correlation ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return withString(ctx, requestIDKey, id)
}

func RequestIDFromContext(ctx context.Context) (string, bool) { return stringFrom(ctx, requestIDKey) }
