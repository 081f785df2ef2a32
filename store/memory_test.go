package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreGetMissing(t *testing.T) {
	m := NewMemoryStore()

	value, ok, err := m.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, value)
}

func TestMemoryStorePutGet(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, m.Put(ctx, "a/b", json.RawMessage(`{"x":1}`)))

	value, ok, err := m.Get(ctx, "a/b")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"x":1}`, string(value))
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	original := json.RawMessage(`{"x":1}`)
	require.NoError(t, m.Put(ctx, "a", original))
	original[2] = 'y'

	value, _, err := m.Get(ctx, "a")
	require.NoError(t, err)
	assert.JSONEq(t, `{"x":1}`, string(value), "stored value must not alias the caller's buffer")

	value[2] = 'z'
	again, _, err := m.Get(ctx, "a")
	require.NoError(t, err)
	assert.JSONEq(t, `{"x":1}`, string(again), "returned value must not alias the stored buffer")
}

func TestMemoryStoreLastWriteWins(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, m.Put(ctx, "p", json.RawMessage(`{"a":1}`)))
	require.NoError(t, m.Put(ctx, "p", json.RawMessage(`{"b":2}`)))

	value, _, err := m.Get(ctx, "p")
	require.NoError(t, err)
	assert.JSONEq(t, `{"b":2}`, string(value))
}
