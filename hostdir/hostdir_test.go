package hostdir

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/minio/sha256-simd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestOpenNotDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "f", "x")
	_, err := Open(filepath.Join(dir, "f"))
	assert.Error(t, err)
	_, err = Open(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.txt", "bee")
	writeFile(t, dir, "a.txt", "ay")
	writeFile(t, dir, ".gitignore", "*.img")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0755))
	require.NoError(t, os.Symlink("a.txt", filepath.Join(dir, "link")))
	require.NoError(t, os.Symlink("sub", filepath.Join(dir, "dirlink")))

	d, err := Open(dir)
	require.NoError(t, err)
	names, err := d.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt", "link"}, names)
}

func TestPrepareCleanup(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()
	writeFile(t, dir, "tty", "keep me")

	d, err := Open(dir)
	require.NoError(t, err)
	now := time.Date(2020, 3, 4, 5, 6, 7, 0, time.Local)
	require.NoError(t, d.Prepare(now))

	names, err := d.List()
	require.NoError(t, err)
	assert.Equal([]string{"created.txt", "mouse", "rtc", "sound", "taux", "tty"}, names)

	stamp, err := os.ReadFile(filepath.Join(dir, StampName))
	require.NoError(t, err)
	assert.Equal("2020-03-04, 05:06:07\n", string(stamp))

	require.NoError(t, d.Cleanup())
	names, err = d.List()
	require.NoError(t, err)
	assert.Equal([]string{"tty"}, names, "files that existed before are kept")
	b, _ := os.ReadFile(filepath.Join(dir, "tty"))
	assert.Equal("keep me", string(b))
}

func TestSource(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()
	writeFile(t, dir, "f", "0123456789")
	d, err := Open(dir)
	require.NoError(t, err)

	sz, err := d.Size("f")
	assert.NoError(err)
	assert.Equal(uint64(10), sz)

	p := make([]byte, 4)
	n, err := d.ReadAt("f", p, 3)
	assert.NoError(err)
	assert.Equal(4, n)
	assert.Equal("3456", string(p))

	n, err = d.ReadAt("f", p, 8)
	assert.Equal(io.EOF, err)
	assert.Equal(2, n)

	_, err = d.Size("nope")
	assert.True(os.IsNotExist(err))

	sum, err := d.Digest("f")
	assert.NoError(err)
	assert.Equal(sha256.Sum256([]byte("0123456789")), sum)
}
