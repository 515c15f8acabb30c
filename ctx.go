package mediagrab

import "context"

type contextKey string

const userContextKey contextKey = "mediagrab:user"

// WithContext stores the resolved user on the context.
func WithContext(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// FromContext retrieves the user placed by WithContext, if any.
func FromContext(ctx context.Context) (*User, bool) {
	user, ok := ctx.Value(userContextKey).(*User)
	return user, ok && user != nil
}
