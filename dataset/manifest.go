package dataset

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ManifestFileName is the manifest written at the destination root.
const ManifestFileName = "data.yaml"

// SplitPaths are the image directories of each split, relative to the dataset root.
type SplitPaths struct {
	Train string
	Val   string
	Test  string
}

// DefaultSplitPaths returns images/train, images/valid and images/test.
func DefaultSplitPaths() SplitPaths {
	return SplitPaths{
		Train: filepath.ToSlash(filepath.Join(ImagesDir, string(Train))),
		Val:   filepath.ToSlash(filepath.Join(ImagesDir, string(Valid))),
		Test:  filepath.ToSlash(filepath.Join(ImagesDir, string(Test))),
	}
}

// Manifest is the dataset description consumed by YOLO trainers.
type Manifest struct {
	Path  string   `yaml:"path"`
	Train string   `yaml:"train"`
	Val   string   `yaml:"val"`
	Test  string   `yaml:"test"`
	NC    int      `yaml:"nc"`
	Names []string `yaml:"names,flow"`
}

// WriteManifest writes destRoot/data.yaml declaring the dataset root, the split
// image paths, the class count and the ordered class names.
//
// Arguments:
//   - destRoot: The merged dataset root, written as-is into the path field.
//   - classNames: The ordered class names.
//   - paths: The split image paths relative to destRoot.
//
// Returns:
//   - error: A *WriteError if the manifest could not be written.
func WriteManifest(destRoot string, classNames []string, paths SplitPaths) error {
	names := classNames
	if names == nil {
		names = []string{}
	}
	m := Manifest{
		Path:  destRoot,
		Train: paths.Train,
		Val:   paths.Val,
		Test:  paths.Test,
		NC:    len(names),
		Names: names,
	}

	data, err := yaml.Marshal(&m)
	if err != nil {
		return errors.Wrap(err, "marshal manifest")
	}

	path := filepath.Join(destRoot, ManifestFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}

// ReadManifest loads a manifest file.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read manifest %s", path)
	}
	m := &Manifest{}
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, errors.Wrapf(err, "parse manifest %s", path)
	}
	return m, nil
}
