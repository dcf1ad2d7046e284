package cache

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorePutGet(t *testing.T) {
	store := New(t.TempDir())

	entry := &Entry{
		Status:       200,
		ETag:         `"abc123"`,
		LastModified: "Wed, 21 Oct 2015 07:28:00 GMT",
		StoredAt:     time.Now().UTC().Truncate(time.Millisecond),
		Headers:      http.Header{"Content-Type": []string{"application/json"}},
		Body:         []byte(`{"id":1}`),
	}

	key := Key("GET", "https://gitlab.com/api/v4/projects/1", nil, "user:42")
	require.NoError(t, store.Put("gitlab.com", "project", key, entry))

	got, ok := store.Get("gitlab.com", "project", key)
	require.True(t, ok)
	assert.Equal(t, entry.Status, got.Status)
	assert.Equal(t, entry.ETag, got.ETag)
	assert.Equal(t, entry.LastModified, got.LastModified)
	assert.True(t, entry.StoredAt.Equal(got.StoredAt))
	assert.Equal(t, entry.Body, got.Body)
	assert.Equal(t, "application/json", got.Headers.Get("Content-Type"))
	assert.True(t, got.HasValidators())
}

func TestStoreGetAbsent(t *testing.T) {
	store := New(t.TempDir())

	_, ok := store.Get("gitlab.com", "project", Key("GET", "https://gitlab.com/x", nil, ""))
	assert.False(t, ok)
}

func TestStoreGetCorruptFileIsAbsent(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)

	key := Key("GET", "https://gitlab.com/api/v4/projects/1", nil, "")
	path := store.path("gitlab.com", "project", key)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte{0xff, 0x01, 0x02}, 0o600))

	_, ok := store.Get("gitlab.com", "project", key)
	assert.False(t, ok)
}

func TestStoreGetTruncatedFileIsAbsent(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)

	entry := &Entry{Status: 200, StoredAt: time.Now().UTC(), Body: []byte("full body content")}
	key := Key("GET", "https://gitlab.com/api/v4/projects/1", nil, "")
	require.NoError(t, store.Put("gitlab.com", "project", key, entry))

	path := store.path("gitlab.com", "project", key)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data[:len(data)/2], 0o600))

	_, ok := store.Get("gitlab.com", "project", key)
	assert.False(t, ok)
}

func TestDisabledStore(t *testing.T) {
	store := New("")
	assert.False(t, store.Enabled())

	require.NoError(t, store.Put("gitlab.com", "project", "anykey", &Entry{}))
	_, ok := store.Get("gitlab.com", "project", "anykey")
	assert.False(t, ok)
}

func TestKeyIsStableAcrossQueryParamOrder(t *testing.T) {
	a := Key("GET", "https://gitlab.com/api/v4/projects?a=1&b=2", nil, "user:1")
	b := Key("GET", "https://gitlab.com/api/v4/projects?b=2&a=1", nil, "user:1")
	assert.Equal(t, a, b)
}

func TestKeyVariesByMethodBodyAndAuth(t *testing.T) {
	base := Key("GET", "https://gitlab.com/api/v4/projects/1", nil, "user:1")

	assert.NotEqual(t, base, Key("POST", "https://gitlab.com/api/v4/projects/1", nil, "user:1"))
	assert.NotEqual(t, base, Key("GET", "https://gitlab.com/api/v4/projects/1", []byte("x"), "user:1"))
	assert.NotEqual(t, base, Key("GET", "https://gitlab.com/api/v4/projects/1", nil, "user:2"))
}

func TestStorePathLayout(t *testing.T) {
	store := New("/cache-root")
	key := Key("GET", "https://gitlab.com/api/v4/projects/1", nil, "")

	got := store.path("gitlab.com", "merge_request", key)
	want := filepath.Join("/cache-root", "gitlab.com", "merge_request", key[:2], key)
	assert.Equal(t, want, got)
}

func TestTouchUpdatesStoredAtMonotonically(t *testing.T) {
	store := New(t.TempDir())
	key := Key("GET", "https://gitlab.com/api/v4/projects/1", nil, "")

	initial := time.Now().UTC().Add(-time.Hour).Truncate(time.Millisecond)
	require.NoError(t, store.Put("gitlab.com", "project", key, &Entry{Status: 200, StoredAt: initial}))

	older := initial.Add(-time.Minute)
	require.NoError(t, store.Touch("gitlab.com", "project", key, older))
	got, ok := store.Get("gitlab.com", "project", key)
	require.True(t, ok)
	assert.True(t, got.StoredAt.Equal(initial), "touch with an older timestamp must be ignored")

	newer := initial.Add(time.Minute)
	require.NoError(t, store.Touch("gitlab.com", "project", key, newer))
	got, ok = store.Get("gitlab.com", "project", key)
	require.True(t, ok)
	assert.True(t, got.StoredAt.Equal(newer))
}
