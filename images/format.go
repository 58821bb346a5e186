// Package images - Image formats accepted by the inspection pipeline.
package images

import (
	"path/filepath"
	"strings"
)

// ImageFormat represents supported image formats
type ImageFormat string

const (
	FormatJPEG ImageFormat = "jpeg"
	FormatPNG  ImageFormat = "png"
)

var extensions = map[string]ImageFormat{
	".jpg":  FormatJPEG,
	".jpeg": FormatJPEG,
	".png":  FormatPNG,
}

// FormatOf returns the format of a file name by its extension, ignoring case.
//
// Arguments:
//   - name: A file name or path.
//
// Returns:
//   - ImageFormat: The format.
//   - bool: False when the extension is not a supported image format.
//
// @example
// f, ok := FormatOf("car.JPG") // FormatJPEG, true
func FormatOf(name string) (ImageFormat, bool) {
	f, ok := extensions[strings.ToLower(filepath.Ext(name))]
	return f, ok
}

// Extension returns the canonical file extension of the format.
func (f ImageFormat) Extension() string {
	if f == FormatJPEG {
		return ".jpg"
	}
	return "." + string(f)
}
