package cache_test

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/harvestctl/internal/cache"
)

func newTestSQLite(t *testing.T) *cache.SQLite {
	t.Helper()
	s, err := cache.NewSQLiteMemory()
	require.NoError(t, err, "new memory store")
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteSetGet(t *testing.T) {
	s := newTestSQLite(t)

	_, ok := s.Get("harvest_projects")
	assert.False(t, ok, "empty store should miss")

	require.NoError(t, s.Set("harvest_projects", []byte("<projects/>")))
	got, ok := s.Get("harvest_projects")
	require.True(t, ok)
	assert.Equal(t, "<projects/>", string(got))

	require.NoError(t, s.Set("harvest_projects", []byte("<projects><project/></projects>")))
	got, ok = s.Get("harvest_projects")
	require.True(t, ok)
	assert.Equal(t, "<projects><project/></projects>", string(got))
}

func TestSQLiteListAndPurge(t *testing.T) {
	s := newTestSQLite(t)
	require.NoError(t, s.Set("a", []byte("12345")))
	require.NoError(t, s.Set("b", []byte("1")))

	infos, err := s.List()
	require.NoError(t, err)
	require.Len(t, infos, 2)
	sizes := map[string]int{}
	for _, info := range infos {
		sizes[info.Key] = info.Size
		assert.WithinDuration(t, time.Now(), info.StoredAt, time.Minute)
	}
	assert.Equal(t, map[string]int{"a": 5, "b": 1}, sizes)

	n, err := s.Purge(time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = s.Purge(0)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	infos, err = s.List()
	require.NoError(t, err)
	assert.Empty(t, infos)
}

func TestSQLiteReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "cache.db")

	s, err := cache.NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Set("harvest_users", []byte("<users/>")))
	require.NoError(t, s.Close())

	s, err = cache.NewSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	got, ok := s.Get("harvest_users")
	require.True(t, ok, "entry should survive reopening")
	assert.Equal(t, "<users/>", string(got))
}

func TestMemoryEvictsLeastRecentlyUsed(t *testing.T) {
	m := cache.NewMemory(2)
	require.NoError(t, m.Set("a", []byte("1")))
	require.NoError(t, m.Set("b", []byte("2")))

	// Touch a so b becomes the eviction candidate.
	_, ok := m.Get("a")
	require.True(t, ok)
	require.NoError(t, m.Set("c", []byte("3")))

	_, ok = m.Get("b")
	assert.False(t, ok, "b should have been evicted")
	_, ok = m.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 2, m.Len())

	m.Clear()
	assert.Equal(t, 0, m.Len())
}

func TestMemoryDefaultSize(t *testing.T) {
	m := cache.NewMemory(0)
	for i := 0; i < cache.DefaultMemorySize+10; i++ {
		require.NoError(t, m.Set(fmt.Sprintf("key-%d", i), []byte("x")))
	}
	assert.Equal(t, cache.DefaultMemorySize, m.Len())
}
