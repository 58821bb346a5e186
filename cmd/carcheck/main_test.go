package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/nvr-ai/carcheck/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestNewLoggerHonorsQuiet(t *testing.T) {
	defer func() { quiet = false }()

	quiet = false
	assert.Equal(t, os.Stderr, newLogger().Writer())

	quiet = true
	assert.Equal(t, io.Discard, newLogger().Writer())
}

func TestParseSourceFlag(t *testing.T) {
	src, err := parseSourceFlag("final_dataset")
	require.NoError(t, err)
	assert.Equal(t, dataset.Source{Root: "final_dataset"}, src)

	src, err = parseSourceFlag("dirt finding.v3i.yolov8#0=drop,1=3")
	require.NoError(t, err)
	assert.Equal(t, "dirt finding.v3i.yolov8", src.Root)
	assert.Equal(t, dataset.ClassMap{0: nil, 1: dataset.To(3)}, src.ClassMap)

	_, err = parseSourceFlag("#1=2")
	assert.Error(t, err)
	_, err = parseSourceFlag("data#1=x")
	assert.Error(t, err)
}

func TestExpandImages(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.JPG"), "x")
	writeFile(t, filepath.Join(dir, "a.png"), "x")
	writeFile(t, filepath.Join(dir, "notes.txt"), "x")
	single := filepath.Join(t.TempDir(), "car.jpg")
	writeFile(t, single, "x")

	files, err := expandImages([]string{single, dir})
	require.NoError(t, err)
	assert.Equal(t, []string{single, filepath.Join(dir, "a.png"), filepath.Join(dir, "b.JPG")}, files)

	_, err = expandImages([]string{filepath.Join(dir, "missing")})
	assert.Error(t, err)
}

func TestMergeCommand(t *testing.T) {
	a := t.TempDir()
	b := t.TempDir()
	dest := filepath.Join(t.TempDir(), "final")
	writeFile(t, filepath.Join(a, "train", "images", "car1.jpg"), "img")
	writeFile(t, filepath.Join(a, "train", "labels", "car1.txt"), "0 0.5 0.5 0.2 0.2")
	writeFile(t, filepath.Join(b, "train", "images", "car2.jpg"), "img")
	writeFile(t, filepath.Join(b, "train", "labels", "car2.txt"), "1 0.3 0.3 0.1 0.1\n0 0.1 0.1 0.1 0.1")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"merge", "-q", "--no-progress",
		"--dest", dest,
		"--source", a,
		"--source", b + "#0=drop,1=3",
		"--names", "dent,scratch,rust,dirt,clean",
	})
	require.NoError(t, rootCmd.Execute())

	label, err := os.ReadFile(filepath.Join(dest, "labels", "train", "car2.txt"))
	require.NoError(t, err)
	assert.Equal(t, "3 0.3 0.3 0.1 0.1", string(label))

	m, err := dataset.ReadManifest(filepath.Join(dest, dataset.ManifestFileName))
	require.NoError(t, err)
	assert.Equal(t, 5, m.NC)
	assert.Contains(t, out.String(), "2 images copied")
}
