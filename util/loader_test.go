package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListImageFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.JPG", "a.png", "c.jpeg", "notes.txt", "d.bmp"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.jpg"), 0o755))

	names, err := ListImageFiles(dir, ".jpg", ".jpeg", ".png")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.png", "b.JPG", "c.jpeg"}, names)
}

func TestListImageFilesMissingDir(t *testing.T) {
	_, err := ListImageFiles(filepath.Join(t.TempDir(), "absent"), ".jpg")
	assert.True(t, os.IsNotExist(err))
}

func TestHasExtension(t *testing.T) {
	assert.True(t, HasExtension("car.PNG", ".png"))
	assert.False(t, HasExtension("car.png.txt", ".png"))
	assert.False(t, HasExtension("car", ".png"))
}
