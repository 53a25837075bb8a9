package workflow

import (
	"context"
	"strings"
)

type commentKey struct{}

// WithComment attaches the comment of the decision being fired to ctx
func WithComment(ctx context.Context, comment *string) context.Context {
	return context.WithValue(ctx, commentKey{}, comment)
}

// CommentFrom returns the comment attached by WithComment
func CommentFrom(ctx context.Context) *string {
	c, _ := ctx.Value(commentKey{}).(*string)
	return c
}

// HasComment reports whether comment holds non-whitespace text
func HasComment(comment *string) bool {
	return comment != nil && strings.TrimSpace(*comment) != ""
}

// RequireComment is a guard passing only when the fired decision carries a comment
func RequireComment(ctx context.Context) bool {
	return HasComment(CommentFrom(ctx))
}
