// Package inference - YOLOv8 detection and segmentation models served by ONNX Runtime.
package inference

import (
	"github.com/pkg/errors"
)

// Strides are the feature map strides of the YOLOv8 detection heads.
var Strides = []int{8, 16, 32}

// Config describes one exported YOLOv8 model.
type Config struct {
	// ModelPath is the .onnx file.
	ModelPath string `yaml:"path"`
	// LibraryPath is the onnxruntime shared library. Empty uses the loader default.
	LibraryPath string `yaml:"library_path,omitempty"`
	// InputSize is the square input resolution the model was exported with.
	InputSize int `yaml:"input_size"`
	// ConfidenceThreshold filters detections below this class score.
	ConfidenceThreshold float32 `yaml:"confidence"`
	// NMSThreshold controls Non-Maximum Suppression IoU threshold
	NMSThreshold float32 `yaml:"nms"`
	// Classes are the class names in model output order.
	Classes []string `yaml:"classes"`
	// MaskCoefficients is the number of trailing mask channels of a segmentation
	// head (32 for YOLOv8-seg, 0 for detection).
	MaskCoefficients int `yaml:"mask_coefficients"`
	// InputName and OutputName are the graph tensor names.
	InputName  string `yaml:"input_name,omitempty"`
	OutputName string `yaml:"output_name,omitempty"`
	// Threads sets the intra-op thread count. Zero lets onnxruntime decide.
	Threads int `yaml:"threads,omitempty"`
}

// DefaultConfig returns the thresholds Ultralytics uses at predict time.
//
// Returns:
//   - Config: Configuration without model path or classes.
//
// @example
// cfg := DefaultConfig()
// cfg.ModelPath = "parts.onnx"
// cfg.Classes = PartClasses
// detector, err := NewDetector(cfg)
func DefaultConfig() Config {
	return Config{
		InputSize:           640,
		ConfidenceThreshold: 0.25,
		NMSThreshold:        0.7,
		InputName:           "images",
		OutputName:          "output0",
	}
}

// Validate checks that the configuration describes a usable model.
func (c Config) Validate() error {
	if c.ModelPath == "" {
		return errors.New("model path is required")
	}
	if c.InputSize <= 0 || c.InputSize%Strides[len(Strides)-1] != 0 {
		return errors.Errorf("input size %d must be a positive multiple of %d", c.InputSize, Strides[len(Strides)-1])
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return errors.Errorf("confidence threshold %v out of [0, 1]", c.ConfidenceThreshold)
	}
	if c.NMSThreshold < 0 || c.NMSThreshold > 1 {
		return errors.Errorf("nms threshold %v out of [0, 1]", c.NMSThreshold)
	}
	if len(c.Classes) == 0 {
		return errors.New("at least one class name is required")
	}
	if c.MaskCoefficients < 0 {
		return errors.Errorf("mask coefficients %d is negative", c.MaskCoefficients)
	}
	return nil
}

// Anchors returns the number of predictions the model emits for its input size.
func (c Config) Anchors() int {
	return AnchorCount(c.InputSize)
}

// Channels returns the number of values per prediction: 4 box values, one score
// per class and the mask coefficients.
func (c Config) Channels() int {
	return 4 + len(c.Classes) + c.MaskCoefficients
}

// AnchorCount returns the number of YOLOv8 predictions for a square input of
// the given size, e.g. 8400 for 640 and 5376 for 512.
func AnchorCount(size int) int {
	n := 0
	for _, s := range Strides {
		n += (size / s) * (size / s)
	}
	return n
}
