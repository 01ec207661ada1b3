package auth

import (
	"context"
	"fmt"

	"github.com/thewillhuang/middleman/internal/models"
)

// Caller is the identity resolved from a request credential. The zero value is anonymous.
type Caller struct {
	PersonID string
	IsClient bool
}

// Anonymous reports whether no person was resolved.
func (c Caller) Anonymous() bool {
	return c.PersonID == ""
}

// Require fails with ErrAuthenticationRequired for anonymous callers.
func (c Caller) Require() error {
	if c.Anonymous() {
		return fmt.Errorf("%w: sign in to continue", models.ErrAuthenticationRequired)
	}
	return nil
}

type callerKey struct{}

// WithCaller stores the caller in ctx.
func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFrom returns the caller stored in ctx or an anonymous one.
func CallerFrom(ctx context.Context) Caller {
	c, _ := ctx.Value(callerKey{}).(Caller)
	return c
}
