package harvest_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/harvestctl/harvest"
	"github.com/Tiliavir/harvestctl/internal/cache"
)

// mapCache is a minimal harvest.Cache that records writes.
type mapCache struct {
	data   map[string][]byte
	sets   int
	setErr error
}

func newMapCache() *mapCache { return &mapCache{data: map[string][]byte{}} }

func (m *mapCache) Get(key string) ([]byte, bool) {
	v, ok := m.data[key]
	return v, ok
}

func (m *mapCache) Set(key string, value []byte) error {
	m.sets++
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	return nil
}

func TestAllProjectsCached(t *testing.T) {
	f := newFakeHarvest(t, map[string]string{"projects": projectsXML})
	c := f.client()
	mc := newMapCache()
	c.SetCache(mc)

	ctx := context.Background()
	first, err := c.AllProjects(ctx)
	require.NoError(t, err)
	second, err := c.AllProjects(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, f.hits("projects"), "second call must be served from cache")
	assert.Equal(t, projectsXML, string(mc.data["harvest_projects"]))

	name, ok := second.Lookup(101, "name")
	assert.True(t, ok)
	assert.Equal(t, "Website Relaunch", name)
	assert.NotNil(t, first.Doc())
}

func TestAllProjectsWithoutCache(t *testing.T) {
	f := newFakeHarvest(t, map[string]string{"projects": projectsXML})
	c := f.client()

	for i := 0; i < 3; i++ {
		_, err := c.AllProjects(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, 3, f.hits("projects"))
}

func TestDirectoriesUseTheirOwnKeys(t *testing.T) {
	f := newFakeHarvest(t, map[string]string{
		"projects": projectsXML,
		"clients":  clientsXML,
		"people":   usersXML,
	})
	mem := cache.NewMemory(0)
	c := f.client(harvest.WithCache(mem))
	ctx := context.Background()

	_, err := c.AllProjects(ctx)
	require.NoError(t, err)
	_, err = c.AllClients(ctx)
	require.NoError(t, err)
	_, err = c.AllUsers(ctx)
	require.NoError(t, err)

	for key, want := range map[string]string{
		"harvest_projects": projectsXML,
		"harvest_clients":  clientsXML,
		"harvest_users":    usersXML,
	} {
		got, ok := mem.Get(key)
		require.True(t, ok, key)
		assert.Equal(t, want, string(got), key)
	}
}

func TestEmptyCachedValueRefetches(t *testing.T) {
	f := newFakeHarvest(t, map[string]string{"clients": clientsXML})
	mc := newMapCache()
	mc.data["harvest_clients"] = []byte{}
	c := f.client(harvest.WithCache(mc))

	_, err := c.AllClients(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, f.hits("clients"))
}

func TestCacheWriteFailureIsNotFatal(t *testing.T) {
	f := newFakeHarvest(t, map[string]string{"clients": clientsXML})
	mc := newMapCache()
	mc.setErr = errors.New("disk full")
	c := f.client(harvest.WithCache(mc))

	name, err := c.ClientName(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", name)
	assert.Equal(t, 1, mc.sets)
}

func TestMalformedDirectory(t *testing.T) {
	for name, body := range map[string]string{
		"plain text":   "not xml at all",
		"empty":        "",
		"unclosed tag": "<projects><project><id>1</id></projects>",
	} {
		t.Run(name, func(t *testing.T) {
			f := newFakeHarvest(t, map[string]string{"projects": body})
			mc := newMapCache()
			c := f.client(harvest.WithCache(mc))

			_, err := c.AllProjects(context.Background())
			assert.ErrorIs(t, err, harvest.ErrParse)
			assert.Zero(t, mc.sets, "malformed bodies must not be cached")
		})
	}
}

func TestProjectLookups(t *testing.T) {
	f := newFakeHarvest(t, map[string]string{"projects": projectsXML})
	c := f.client()
	ctx := context.Background()

	tests := []struct {
		id           int64
		wantName     string
		wantBillable bool
	}{
		{id: 101, wantName: "Website Relaunch", wantBillable: true},
		{id: 102, wantName: "Internal", wantBillable: false},
		{id: 103, wantName: "Legacy", wantBillable: false},
		{id: 999, wantName: "", wantBillable: false},
	}
	for _, tt := range tests {
		name, err := c.ProjectName(ctx, tt.id)
		require.NoError(t, err)
		assert.Equal(t, tt.wantName, name, "ProjectName(%d)", tt.id)

		billable, err := c.IsBillable(ctx, tt.id)
		require.NoError(t, err)
		assert.Equal(t, tt.wantBillable, billable, "IsBillable(%d)", tt.id)
	}
}

func TestClientName(t *testing.T) {
	f := newFakeHarvest(t, map[string]string{"clients": clientsXML})
	c := f.client()

	name, err := c.ClientName(context.Background(), 8)
	require.NoError(t, err)
	assert.Equal(t, "In-house", name)

	name, err = c.ClientName(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, name)
}

func TestUserNameMemoized(t *testing.T) {
	f := newFakeHarvest(t, map[string]string{"people": usersXML})
	c := f.client()
	ctx := context.Background()

	name, err := c.UserName(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", name)

	name, err = c.UserName(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", name)
	assert.Equal(t, 1, f.hits("people"), "repeat lookups come from the memo")

	name, err = c.UserName(ctx, 43)
	require.NoError(t, err)
	assert.Equal(t, "John Roe", name)
	assert.Equal(t, 2, f.hits("people"))

	// A second client does not share the memo.
	_, err = f.client().UserName(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, 3, f.hits("people"))
}

func TestUserNameUnknown(t *testing.T) {
	f := newFakeHarvest(t, map[string]string{"people": usersXML})
	name, err := f.client().UserName(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, name)
}
