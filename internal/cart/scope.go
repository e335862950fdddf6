package cart

import "context"

type ctxKey struct{}

// NewContext returns a copy of ctx carrying m.
func NewContext(ctx context.Context, m *Manager) context.Context {
	return context.WithValue(ctx, ctxKey{}, m)
}

// FromContext returns the manager installed by NewContext. It panics with
// ErrNoManager when there is none.
func FromContext(ctx context.Context) *Manager {
	m, ok := ctx.Value(ctxKey{}).(*Manager)
	if !ok || m == nil {
		panic(ErrNoManager)
	}
	return m
}
