package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/gomarketplace/pkg/errors"
)

func TestStore_LoadMissing(t *testing.T) {
	s := New(nil, "cart")

	_, err := s.Load(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestStore_SaveThenLoad(t *testing.T) {
	s := New(nil, "cart")
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, []byte(`[1]`)))
	require.NoError(t, s.Save(ctx, []byte(`[2]`)))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, `[2]`, string(got))
	assert.NoError(t, s.Ping(ctx))
}

func TestStore_CopiesPayloads(t *testing.T) {
	s := New(nil, "cart")
	ctx := context.Background()

	in := []byte(`abc`)
	require.NoError(t, s.Save(ctx, in))
	in[0] = 'x'

	out, err := s.Load(ctx)
	require.NoError(t, err)
	out[1] = 'y'

	again, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again))
}

func TestStore_SharedBacking(t *testing.T) {
	b := NewBacking()
	ctx := context.Background()

	require.NoError(t, New(b, "cart").Save(ctx, []byte(`[]`)))

	got, err := New(b, "cart").Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))

	_, err = New(b, "other").Load(ctx)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	b.Put("other", []byte("x"))
	raw, ok := b.Get("other")
	assert.True(t, ok)
	assert.Equal(t, "x", string(raw))
}
