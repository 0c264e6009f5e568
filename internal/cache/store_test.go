package cache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type repo struct {
	Name  string `json:"name"`
	Stars int    `json:"stars"`
}

func openStore(t *testing.T, now func() time.Time) *Store {
	t.Helper()
	st, err := Open(OpenOptions{
		Path: filepath.Join(t.TempDir(), "nested", "cache.db"),
		Now:  now,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(OpenOptions{})
	assert.Error(t, err)
}

func TestPutGet(t *testing.T) {
	stamp := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	st := openStore(t, func() time.Time { return stamp })

	in := []repo{{Name: "convertit", Stars: 12}, {Name: "hy2ng", Stars: 7}}
	require.NoError(t, st.Put("repos:TheByteArray", in))

	var out []repo
	e, err := st.Get("repos:TheByteArray", &out)
	require.NoError(t, err)
	assert.Equal(t, in, out)
	assert.True(t, stamp.Equal(e.StoredAt))
}

func TestGetMissing(t *testing.T) {
	st := openStore(t, nil)
	var out []repo
	_, err := st.Get("nope", &out)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	st := openStore(t, nil)
	require.NoError(t, st.Put("k", 1))
	require.NoError(t, st.Delete("k"))
	var v int
	_, err := st.Get("k", &v)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEntryFresh(t *testing.T) {
	stored := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	e := Entry{StoredAt: stored}

	assert.True(t, e.Fresh(time.Hour, stored.Add(59*time.Minute)))
	assert.False(t, e.Fresh(time.Hour, stored.Add(time.Hour)))
	assert.True(t, e.Fresh(0, stored.Add(1000*time.Hour)))
}

func TestFingerprint(t *testing.T) {
	st := openStore(t, nil)

	got, err := st.Fingerprint("public")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, st.SetFingerprint("public", "abc"))
	got, err = st.Fingerprint("public")
	require.NoError(t, err)
	assert.Equal(t, "abc", got)
}

func TestRecordBuild(t *testing.T) {
	st := openStore(t, nil)

	paths, err := st.Manifest("public")
	require.NoError(t, err)
	assert.Nil(t, paths)

	require.NoError(t, st.RecordBuild("public", "abc", []string{"index.html", "blog/index.html"}))
	paths, err = st.Manifest("public")
	require.NoError(t, err)
	assert.Equal(t, []string{"index.html", "blog/index.html"}, paths)
	got, err := st.Fingerprint("public")
	require.NoError(t, err)
	assert.Equal(t, "abc", got)
}
