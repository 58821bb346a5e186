// Package dataset - Consolidation of YOLO-format detection datasets.
package dataset

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Split is one of the train/valid/test partitions of a dataset.
type Split string

// Split constants
const (
	// Train is the training partition.
	Train Split = "train"
	// Valid is the validation partition.
	Valid Split = "valid"
	// Test is the test partition.
	Test Split = "test"
)

// Splits lists every partition in the order they are merged.
var Splits = []Split{Train, Valid, Test}

const (
	// ImagesDir is the directory holding image files of a dataset.
	ImagesDir = "images"
	// LabelsDir is the directory holding label files of a dataset.
	LabelsDir = "labels"
	// LabelExt is the extension of a label file. Matching is case-sensitive.
	LabelExt = ".txt"
)

// ImageExtensions are the image file extensions picked up from a source split.
// Matching is case-insensitive.
var ImageExtensions = []string{".jpg", ".jpeg", ".png"}

// InitializeDestination creates images/{train,valid,test} and labels/{train,valid,test}
// under root. Existing directories are left untouched.
//
// Arguments:
//   - root: The destination dataset root.
//
// Returns:
//   - error: A *WriteError if a directory could not be created.
func InitializeDestination(root string) error {
	for _, split := range Splits {
		for _, kind := range []string{ImagesDir, LabelsDir} {
			dir := filepath.Join(root, kind, string(split))
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return &WriteError{Path: dir, Err: err}
			}
		}
	}
	return nil
}

// sourceSplit resolves the image and label directories of a split inside a source
// dataset. Both the images/<split> layout and the <split>/images layout produced by
// Roboflow exports are accepted; images/<split> wins when both exist.
func sourceSplit(root string, split Split) (imagesDir, labelsDir string, err error) {
	candidates := [][2]string{
		{filepath.Join(root, ImagesDir, string(split)), filepath.Join(root, LabelsDir, string(split))},
		{filepath.Join(root, string(split), ImagesDir), filepath.Join(root, string(split), LabelsDir)},
	}
	for _, c := range candidates {
		info, statErr := os.Stat(c[0])
		if statErr == nil && info.IsDir() {
			return c[0], c[1], nil
		}
		if statErr != nil && !os.IsNotExist(statErr) {
			return "", "", errors.Wrapf(statErr, "stat %s", c[0])
		}
	}
	return "", "", &SourceMissingError{Path: candidates[0][0]}
}
