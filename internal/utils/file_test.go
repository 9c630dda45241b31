package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, nil, 0o644))
}

func TestIsImageFile(t *testing.T) {
	assert.True(t, IsImageFile("a/b/photo.JPG"))
	assert.True(t, IsImageFile("x.webp"))
	assert.False(t, IsImageFile("notes.txt"))
	assert.False(t, IsImageFile("noext"))
}

func TestGenerateOutputFilename(t *testing.T) {
	assert.Equal(t, filepath.Join("out", "p_cat_snap.png"),
		GenerateOutputFilename("in/cat.jpg", "out", "p_", "_snap", "png"))
	assert.Equal(t, filepath.Join("out", "cat.jpg"),
		GenerateOutputFilename("in/cat.jpg", "out", "", "", ""))
	assert.Equal(t, filepath.Join("out", "dog_snap.jpg"),
		GenerateOutputFilename("https://example.com/img/dog.jpg?size=large", "out", "", "_snap", ""))
}

func TestExpandInputs(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b.png"))
	touch(t, filepath.Join(dir, "a.jpg"))
	touch(t, filepath.Join(dir, "sub", "c.webp"))
	touch(t, filepath.Join(dir, "readme.md"))
	touch(t, filepath.Join(dir, ".cache", "d.png"))

	got, err := ExpandInputs([]string{dir, "https://example.com/x.png", "single.jpg"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.jpg"),
		filepath.Join(dir, "b.png"),
		filepath.Join(dir, "sub", "c.webp"),
		"https://example.com/x.png",
		"single.jpg",
	}, got)

	empty := t.TempDir()
	_, err = ExpandInputs([]string{empty})
	assert.Error(t, err)
}

func TestExistence(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.png")
	touch(t, file)

	assert.True(t, FileExists(file))
	assert.False(t, FileExists(dir))
	assert.True(t, DirExists(dir))
	assert.False(t, DirExists(file))

	nested := filepath.Join(dir, "x", "y")
	require.NoError(t, EnsureDir(nested))
	assert.True(t, DirExists(nested))
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "a_b_c", SanitizeFilename("a/b:c"))
	assert.Equal(t, "photo.jpg", SanitizeFilename(" photo.jpg?x=1"))
}
