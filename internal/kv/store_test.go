package kv

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"finx-auth/internal/db"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runStoreContract(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("get missing", func(t *testing.T) {
		_, ok, err := store.Get(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("set then get", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "a", "1"))
		v, ok, err := store.Get(ctx, "a")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "1", v)
	})

	t.Run("overwrite", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "a", "2"))
		v, _, err := store.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, "2", v)
	})

	t.Run("multiset", func(t *testing.T) {
		require.NoError(t, store.MultiSet(ctx, map[string]string{"b": "x", "c": "y"}))
		for k, want := range map[string]string{"b": "x", "c": "y"} {
			v, ok, err := store.Get(ctx, k)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, want, v)
		}
	})

	t.Run("remove is idempotent", func(t *testing.T) {
		require.NoError(t, store.Remove(ctx, "a"))
		require.NoError(t, store.Remove(ctx, "a"))
		_, ok, err := store.Get(ctx, "a")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("multiremove", func(t *testing.T) {
		require.NoError(t, store.MultiRemove(ctx, "b", "c", "never-set"))
		for _, k := range []string{"b", "c"} {
			_, ok, err := store.Get(ctx, k)
			require.NoError(t, err)
			assert.False(t, ok)
		}
		require.NoError(t, store.MultiRemove(ctx))
	})

	t.Run("empty value round trip", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "empty", ""))
		v, ok, err := store.Get(ctx, "empty")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "", v)
		require.NoError(t, store.Remove(ctx, "empty"))
	})
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	runStoreContract(t, m)
	assert.Equal(t, 0, m.Len())
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	f, err := NewFile(path)
	require.NoError(t, err)
	runStoreContract(t, f)

	require.NoError(t, f.Set(context.Background(), "@finx_access_token", "A"))

	// A second handle on the same file sees the write.
	other, err := NewFile(path)
	require.NoError(t, err)
	v, ok, err := other.Get(context.Background(), "@finx_access_token")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "A", v)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFile_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	f, err := NewFile(path)
	require.NoError(t, err)

	_, _, err = f.Get(context.Background(), "a")
	assert.Error(t, err)
}

func TestRedis_Integration(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	client := goredis.NewClient(&goredis.Options{Addr: addr})
	defer client.Close()
	require.NoError(t, client.Ping(context.Background()).Err())

	runStoreContract(t, NewRedis(client, "finx-test:"+t.Name()+":"))
}

func TestPostgres_Integration(t *testing.T) {
	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		t.Skip("DATABASE_DSN not set")
	}

	database, err := db.Open(context.Background(), dsn)
	require.NoError(t, err)
	defer database.Close()

	runStoreContract(t, NewPostgres(database, "finx-test:"+t.Name()+":"))
}
