package cart

import "context"

type ctxKey struct{}

// WithCart returns a context carrying c
func WithCart(ctx context.Context, c *Cart) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// FromContext returns the cart installed by WithCart. It panics when there is
// none: a handler reading the cart outside the session middleware is a wiring
// bug.
func FromContext(ctx context.Context) *Cart {
	c, ok := ctx.Value(ctxKey{}).(*Cart)
	if !ok || c == nil {
		panic("cart: FromContext called without a cart in context")
	}
	return c
}
