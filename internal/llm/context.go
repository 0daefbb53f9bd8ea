package llm

import (
	"context"
	"strings"
)

// modelKey carries a per-run model name through a request context.
type modelKey struct{}

// WithModel makes the CLI use model for calls made with the returned
// context. A blank model leaves ctx unchanged.
func WithModel(ctx context.Context, model string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if model = normalizeModel(model); model == "" {
		return ctx
	}
	return context.WithValue(ctx, modelKey{}, model)
}

// ModelFromContext returns the model set by WithModel, or "" when the
// configured default applies.
func ModelFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	model, _ := ctx.Value(modelKey{}).(string)
	return model
}

func normalizeModel(model string) string {
	return strings.ToLower(strings.TrimSpace(model))
}
