package dataset

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func newConsolidator(t *testing.T, cfg Config) *Consolidator {
	t.Helper()
	c, err := New(cfg, WithLogger(log.New(io.Discard, "", 0)))
	require.NoError(t, err)
	return c
}

func TestInitializeDestinationIsIdempotent(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, InitializeDestination(root))
	writeFile(t, filepath.Join(root, "images", "train", "keep.jpg"), "x")
	require.NoError(t, InitializeDestination(root))

	for _, kind := range []string{ImagesDir, LabelsDir} {
		for _, split := range Splits {
			info, err := os.Stat(filepath.Join(root, kind, string(split)))
			require.NoError(t, err)
			assert.True(t, info.IsDir())
		}
	}
	assert.FileExists(t, filepath.Join(root, "images", "train", "keep.jpg"))
}

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)

	_, err = New(Config{Destination: t.TempDir(), Collision: "skip"})
	assert.Error(t, err)
}

func TestCopyFileSafely(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	c := newConsolidator(t, Config{Destination: dst})

	t.Run("missing source", func(t *testing.T) {
		name, err := c.CopyFileSafely(filepath.Join(src, "ghost.jpg"), dst)
		var missing *SourceMissingError
		require.True(t, errors.As(err, &missing))
		assert.Empty(t, name)
		assert.Empty(t, listDir(t, dst))
	})

	t.Run("short name kept", func(t *testing.T) {
		writeFile(t, filepath.Join(src, "car.jpg"), "pixels")
		name, err := c.CopyFileSafely(filepath.Join(src, "car.jpg"), dst)
		require.NoError(t, err)
		assert.Equal(t, "car.jpg", name)
		assert.Equal(t, "pixels", readFile(t, filepath.Join(dst, "car.jpg")))
	})

	t.Run("long name truncated", func(t *testing.T) {
		long := strings.Repeat("a", 60) + strings.Repeat("b", 60) + ".png"
		writeFile(t, filepath.Join(src, long), "pixels")
		name, err := c.CopyFileSafely(filepath.Join(src, long), dst)
		require.NoError(t, err)
		assert.Equal(t, strings.Repeat("a", 50)+"_.png", name)
		assert.FileExists(t, filepath.Join(dst, name))
	})

	t.Run("unwritable destination", func(t *testing.T) {
		writeFile(t, filepath.Join(src, "door.jpg"), "pixels")
		_, err := c.CopyFileSafely(filepath.Join(src, "door.jpg"), filepath.Join(dst, "absent"))
		var werr *WriteError
		assert.True(t, errors.As(err, &werr))
	})
}

func TestTruncateFilename(t *testing.T) {
	exact := strings.Repeat("x", 96) + ".jpg"
	require.Len(t, exact, 100)
	assert.Equal(t, exact, TruncateFilename(exact))

	over := strings.Repeat("x", 97) + ".jpg"
	assert.Equal(t, strings.Repeat("x", 50)+"_.jpg", TruncateFilename(over))

	// Length is counted in characters, not bytes.
	cyrillic := strings.Repeat("ж", 90) + ".jpg"
	assert.Equal(t, cyrillic, TruncateFilename(cyrillic))
}

// Source A keeps its labels verbatim, source B is remapped with {0: drop, 1: 3}
// and has no test split.
func TestRunMergesTwoSources(t *testing.T) {
	a := t.TempDir()
	b := t.TempDir()
	dest := filepath.Join(t.TempDir(), "final")

	writeFile(t, filepath.Join(a, "train", "images", "car1.jpg"), "a-img")
	writeFile(t, filepath.Join(a, "train", "labels", "car1.txt"), "0 0.5 0.5 0.2 0.2")
	writeFile(t, filepath.Join(a, "test", "images", "car3.png"), "a-test")

	writeFile(t, filepath.Join(b, "train", "images", "car2.jpg"), "b-img")
	writeFile(t, filepath.Join(b, "train", "labels", "car2.txt"), "1 0.3 0.3 0.1 0.1\n0 0.7 0.7 0.1 0.1\n")

	c := newConsolidator(t, Config{
		Destination: dest,
		Sources: []Source{
			{Root: a},
			{Root: b, ClassMap: ClassMap{0: nil, 1: To(3)}},
		},
		ClassNames: []string{"dent", "scratch", "rust", "dirt", "clean"},
	})

	result, err := c.Run()
	require.NoError(t, err)

	assert.Equal(t, "a-img", readFile(t, filepath.Join(dest, "images", "train", "car1.jpg")))
	assert.Equal(t, "0 0.5 0.5 0.2 0.2", readFile(t, filepath.Join(dest, "labels", "train", "car1.txt")))
	assert.Equal(t, "b-img", readFile(t, filepath.Join(dest, "images", "train", "car2.jpg")))
	assert.Equal(t, "3 0.3 0.3 0.1 0.1", readFile(t, filepath.Join(dest, "labels", "train", "car2.txt")))

	assert.Equal(t, []string{"car3.png"}, listDir(t, filepath.Join(dest, "images", "test")))
	assert.Empty(t, listDir(t, filepath.Join(dest, "labels", "test")))
	assert.Empty(t, listDir(t, filepath.Join(dest, "images", "valid")))

	assert.Equal(t, 3, result.ImagesCopied)
	assert.Equal(t, 1, result.LabelsCopied)
	assert.Equal(t, 1, result.LabelsRemapped)
	assert.Equal(t, 1, result.LabelsMissing)
	assert.Equal(t, 1, result.LinesDropped)
	assert.Empty(t, result.Issues)

	m, err := ReadManifest(filepath.Join(dest, ManifestFileName))
	require.NoError(t, err)
	assert.Equal(t, dest, m.Path)
	assert.Equal(t, 5, m.NC)
	assert.Equal(t, "images/valid", m.Val)
}

func TestMergeAcceptsImagesFirstLayout(t *testing.T) {
	src := t.TempDir()
	dest := t.TempDir()
	writeFile(t, filepath.Join(src, "images", "valid", "car.jpg"), "img")
	writeFile(t, filepath.Join(src, "labels", "valid", "car.txt"), "2 0.1 0.2 0.3 0.4\n")
	require.NoError(t, InitializeDestination(dest))

	c := newConsolidator(t, Config{Destination: dest})
	_, err := c.MergeDatasetSplit(Source{Root: src}, filepath.Join(dest, "images"), filepath.Join(dest, "labels"))
	require.NoError(t, err)

	assert.Equal(t, "2 0.1 0.2 0.3 0.4\n", readFile(t, filepath.Join(dest, "labels", "valid", "car.txt")))
}

func TestMergeFindsLabelNextToImage(t *testing.T) {
	src := t.TempDir()
	dest := t.TempDir()
	writeFile(t, filepath.Join(src, "images", "train", "car.jpg"), "img")
	writeFile(t, filepath.Join(src, "images", "train", "car.txt"), "1 0.5 0.5 0.1 0.1")
	require.NoError(t, InitializeDestination(dest))

	c := newConsolidator(t, Config{Destination: dest})
	result, err := c.MergeDatasetSplit(
		Source{Root: src, ClassMap: ClassMap{1: To(2)}},
		filepath.Join(dest, "images"), filepath.Join(dest, "labels"))
	require.NoError(t, err)

	assert.Equal(t, []string{"car.jpg"}, listDir(t, filepath.Join(dest, "images", "train")))
	assert.Equal(t, "2 0.5 0.5 0.1 0.1", readFile(t, filepath.Join(dest, "labels", "train", "car.txt")))
	assert.Equal(t, 1, result.LabelsRemapped)
}

func TestMergeSkipsNonImagesAndMatchesExtensionsCaseInsensitively(t *testing.T) {
	src := t.TempDir()
	dest := t.TempDir()
	writeFile(t, filepath.Join(src, "train", "images", "UPPER.JPEG"), "img")
	writeFile(t, filepath.Join(src, "train", "images", "readme.md"), "doc")
	writeFile(t, filepath.Join(src, "train", "images", "photo.webp"), "img")
	writeFile(t, filepath.Join(src, "train", "labels", "UPPER.TXT"), "0 1 1 1 1")
	require.NoError(t, InitializeDestination(dest))

	c := newConsolidator(t, Config{Destination: dest})
	result, err := c.MergeDatasetSplit(Source{Root: src}, filepath.Join(dest, "images"), filepath.Join(dest, "labels"))
	require.NoError(t, err)

	assert.Equal(t, []string{"UPPER.JPEG"}, listDir(t, filepath.Join(dest, "images", "train")))
	// Label lookup only matches a lowercase .txt extension.
	assert.Empty(t, listDir(t, filepath.Join(dest, "labels", "train")))
	assert.Equal(t, 1, result.LabelsMissing)
}

func TestMergeDropsFullyRemovedLabelFiles(t *testing.T) {
	src := t.TempDir()
	dest := t.TempDir()
	writeFile(t, filepath.Join(src, "train", "images", "clean.jpg"), "img")
	writeFile(t, filepath.Join(src, "train", "labels", "clean.txt"), "0 0.5 0.5 1 1\n0 0.2 0.2 0.1 0.1\n")
	require.NoError(t, InitializeDestination(dest))

	c := newConsolidator(t, Config{Destination: dest})
	result, err := c.MergeDatasetSplit(
		Source{Root: src, ClassMap: ClassMap{0: nil, 1: To(3)}},
		filepath.Join(dest, "images"), filepath.Join(dest, "labels"))
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dest, "images", "train", "clean.jpg"))
	assert.NoFileExists(t, filepath.Join(dest, "labels", "train", "clean.txt"))
	assert.Equal(t, 1, result.LabelsDropped)
	assert.Equal(t, 2, result.LinesDropped)
}

func TestMergeTruncatedImageCarriesLabelName(t *testing.T) {
	src := t.TempDir()
	dest := t.TempDir()
	long := strings.Repeat("r", 120)
	writeFile(t, filepath.Join(src, "train", "images", long+".jpg"), "img")
	writeFile(t, filepath.Join(src, "train", "labels", long+".txt"), "1 0.5 0.5 0.5 0.5")
	require.NoError(t, InitializeDestination(dest))

	c := newConsolidator(t, Config{Destination: dest})
	result, err := c.MergeDatasetSplit(
		Source{Root: src, ClassMap: ClassMap{1: To(3)}},
		filepath.Join(dest, "images"), filepath.Join(dest, "labels"))
	require.NoError(t, err)

	short := strings.Repeat("r", 50) + "_"
	assert.Equal(t, []string{short + ".jpg"}, listDir(t, filepath.Join(dest, "images", "train")))
	assert.Equal(t, "3 0.5 0.5 0.5 0.5", readFile(t, filepath.Join(dest, "labels", "train", short+".txt")))
	assert.Equal(t, 1, result.Renamed)
}

func TestMergeMalformedClassID(t *testing.T) {
	setup := func(t *testing.T) (string, string) {
		src := t.TempDir()
		dest := t.TempDir()
		writeFile(t, filepath.Join(src, "train", "images", "car.jpg"), "img")
		writeFile(t, filepath.Join(src, "train", "labels", "car.txt"),
			"1 0.1 0.1 0.1 0.1\n\nx 0.2 0.2 0.2 0.2\n1 0.3 0.3 0.3 0.3")
		require.NoError(t, InitializeDestination(dest))
		return src, dest
	}
	m := ClassMap{1: To(4)}

	t.Run("bad line skipped", func(t *testing.T) {
		src, dest := setup(t)
		c := newConsolidator(t, Config{Destination: dest, SkipMalformedLines: true})
		result, err := c.MergeDatasetSplit(Source{Root: src, ClassMap: m}, filepath.Join(dest, "images"), filepath.Join(dest, "labels"))
		require.NoError(t, err)

		assert.Equal(t, "4 0.1 0.1 0.1 0.1\n4 0.3 0.3 0.3 0.3", readFile(t, filepath.Join(dest, "labels", "train", "car.txt")))
		require.Len(t, result.Issues, 1)
		assert.Equal(t, 3, result.Issues[0].Line)
		var perr *ParseError
		require.True(t, errors.As(result.Issues[0].Err, &perr))
		assert.Equal(t, "x", perr.Token)
	})

	t.Run("file rejected by default", func(t *testing.T) {
		src, dest := setup(t)
		c := newConsolidator(t, Config{Destination: dest})
		result, err := c.MergeDatasetSplit(Source{Root: src, ClassMap: m}, filepath.Join(dest, "images"), filepath.Join(dest, "labels"))
		require.NoError(t, err)

		assert.FileExists(t, filepath.Join(dest, "images", "train", "car.jpg"))
		assert.NoFileExists(t, filepath.Join(dest, "labels", "train", "car.txt"))
		assert.Equal(t, 1, result.LabelsRejected)
		assert.Len(t, result.Issues, 1)
	})
}

func TestCollisionPolicies(t *testing.T) {
	setup := func(t *testing.T) (Source, Source, string) {
		a := t.TempDir()
		b := t.TempDir()
		writeFile(t, filepath.Join(a, "train", "images", "car.jpg"), "from-a")
		writeFile(t, filepath.Join(a, "train", "labels", "car.txt"), "0 0.1 0.1 0.1 0.1")
		writeFile(t, filepath.Join(b, "train", "images", "car.jpg"), "from-b")
		writeFile(t, filepath.Join(b, "train", "labels", "car.txt"), "1 0.9 0.9 0.1 0.1")
		return Source{Root: a}, Source{Root: b, ClassMap: ClassMap{1: To(3)}}, filepath.Join(t.TempDir(), "out")
	}

	t.Run("overwrite keeps last writer", func(t *testing.T) {
		a, b, dest := setup(t)
		c := newConsolidator(t, Config{Destination: dest, Sources: []Source{a, b}})
		_, err := c.Run()
		require.NoError(t, err)

		assert.Equal(t, []string{"car.jpg"}, listDir(t, filepath.Join(dest, "images", "train")))
		assert.Equal(t, "from-b", readFile(t, filepath.Join(dest, "images", "train", "car.jpg")))
		assert.Equal(t, "3 0.9 0.9 0.1 0.1", readFile(t, filepath.Join(dest, "labels", "train", "car.txt")))
	})

	t.Run("overwrite with unlabeled later image removes earlier label", func(t *testing.T) {
		a, b, dest := setup(t)
		require.NoError(t, os.Remove(filepath.Join(b.Root, "train", "labels", "car.txt")))
		c := newConsolidator(t, Config{Destination: dest, Sources: []Source{a, b}})
		result, err := c.Run()
		require.NoError(t, err)

		assert.Equal(t, "from-b", readFile(t, filepath.Join(dest, "images", "train", "car.jpg")))
		assert.NoFileExists(t, filepath.Join(dest, "labels", "train", "car.txt"))
		assert.Equal(t, 1, result.LabelsMissing)
		assert.Equal(t, 1, result.StaleLabelsRemoved)
	})

	t.Run("overwrite with fully dropped later label removes earlier label", func(t *testing.T) {
		a, b, dest := setup(t)
		writeFile(t, filepath.Join(a.Root, "train", "labels", "car.txt"), "2 0.1 0.1 0.1 0.1")
		writeFile(t, filepath.Join(b.Root, "train", "labels", "car.txt"), "0 0.9 0.9 0.1 0.1")
		b.ClassMap = ClassMap{0: nil, 1: To(3)}
		c := newConsolidator(t, Config{Destination: dest, Sources: []Source{a, b}})
		result, err := c.Run()
		require.NoError(t, err)

		assert.Equal(t, "from-b", readFile(t, filepath.Join(dest, "images", "train", "car.jpg")))
		assert.NoFileExists(t, filepath.Join(dest, "labels", "train", "car.txt"))
		assert.Equal(t, 1, result.LabelsDropped)
		assert.Equal(t, 1, result.StaleLabelsRemoved)
	})

	t.Run("rename keeps both", func(t *testing.T) {
		a, b, dest := setup(t)
		c := newConsolidator(t, Config{Destination: dest, Sources: []Source{a, b}, Collision: CollisionRename})
		result, err := c.Run()
		require.NoError(t, err)

		assert.Equal(t, []string{"car.jpg", "car_1.jpg"}, listDir(t, filepath.Join(dest, "images", "train")))
		assert.Equal(t, "from-b", readFile(t, filepath.Join(dest, "images", "train", "car_1.jpg")))
		assert.Equal(t, "0 0.1 0.1 0.1 0.1", readFile(t, filepath.Join(dest, "labels", "train", "car.txt")))
		assert.Equal(t, "3 0.9 0.9 0.1 0.1", readFile(t, filepath.Join(dest, "labels", "train", "car_1.txt")))
		assert.Equal(t, 1, result.Renamed)
	})

	t.Run("error aborts", func(t *testing.T) {
		a, b, dest := setup(t)
		c := newConsolidator(t, Config{Destination: dest, Sources: []Source{a, b}, Collision: CollisionFail})
		result, err := c.Run()
		var cerr *CollisionError
		require.True(t, errors.As(err, &cerr))
		assert.Equal(t, 1, result.ImagesCopied)
		assert.NoFileExists(t, filepath.Join(dest, ManifestFileName))
	})
}

func TestRemapLabelPreservesGeometryTokens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seg.txt")
	writeFile(t, path, "1 0.100 0.2e-1 0.3\t0.4 0.5 0.6\n2 0.9 0.9 0.1 0.1\n7 1 1 1 1\n")

	kept, dropped, issues, err := RemapLabel(path, ClassMap{1: To(0), 2: To(5), 7: nil})
	require.NoError(t, err)
	assert.Empty(t, issues)
	assert.Equal(t, 1, dropped)
	assert.Equal(t, []string{"0 0.100 0.2e-1 0.3 0.4 0.5 0.6", "5 0.9 0.9 0.1 0.1"}, kept)
}
