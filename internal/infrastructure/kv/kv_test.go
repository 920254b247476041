package kv

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStores(t *testing.T) {
	tests := []struct {
		name string
		open func(t *testing.T) Store
	}{
		{
			name: "memory",
			open: func(t *testing.T) Store { return NewMemory() },
		},
		{
			name: "sqlite",
			open: func(t *testing.T) Store {
				s, err := NewSQLite(filepath.Join(t.TempDir(), "kv.db"))
				require.NoError(t, err)
				return s
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := tt.open(t)
			defer store.Close()
			ctx := context.Background()

			_, err := store.Get(ctx, RecordsKey)
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, store.Set(ctx, RecordsKey, `[]`))
			require.NoError(t, store.Set(ctx, RecordsKey, `[{"title":"a"}]`))

			got, err := store.Get(ctx, RecordsKey)
			require.NoError(t, err)
			assert.Equal(t, `[{"title":"a"}]`, got)
		})
	}
}

func TestSQLiteReopenKeepsValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.db")
	ctx := context.Background()

	s, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, SettingsKey, `{"name":"홍길동"}`))
	require.NoError(t, s.Close())

	s, err = NewSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get(ctx, SettingsKey)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"홍길동"}`, got)
}
