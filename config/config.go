// Package config - YAML job file for the merge, inspect and serve commands.
package config

import (
	"os"

	"github.com/nvr-ai/carcheck/dataset"
	"github.com/nvr-ai/carcheck/inference"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultInputSize is the inference resolution the car models were trained at.
const DefaultInputSize = 512

// Config is a complete job file.
type Config struct {
	Merge   Merge   `yaml:"merge"`
	Inspect Inspect `yaml:"inspect"`
	Server  Server  `yaml:"server"`
}

// Merge configures dataset consolidation.
type Merge struct {
	Destination        string           `yaml:"destination"`
	Collision          string           `yaml:"collision"`
	SkipMalformedLines bool             `yaml:"skip_malformed_lines"`
	ClassNames         []string         `yaml:"class_names"`
	Sources            []dataset.Source `yaml:"sources"`
}

// Inspect configures the three inspection models.
type Inspect struct {
	// LibraryPath is the onnxruntime shared library shared by every model.
	LibraryPath string `yaml:"library_path"`
	// OutputDir receives annotated images. Empty disables annotation.
	OutputDir string            `yaml:"output_dir"`
	Parts     inference.Config  `yaml:"parts"`
	Damage    inference.Config  `yaml:"damage"`
	Dirt      *inference.Config `yaml:"dirt,omitempty"`
}

// Server configures the HTTP API.
type Server struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	// MaxUploadBytes caps the request body of an upload; 413 beyond it.
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
}

// Default returns the configuration used when no job file is given.
//
// Returns:
//   - Config: Merge class names of the damage dataset, 512px models and an API
//     on :8080 accepting the local frontend.
func Default() Config {
	return Config{
		Merge: Merge{
			Collision:  string(dataset.CollisionOverwrite),
			ClassNames: append([]string(nil), inference.DamageClasses...),
		},
		Server: Server{
			Addr:           ":8080",
			AllowedOrigins: []string{"http://localhost:3000"},
			MaxUploadBytes: 32 << 20,
		},
	}
}

// Load reads a job file over Default and fills model defaults.
//
// Arguments:
//   - path: The YAML job file.
//
// Returns:
//   - *Config: The configuration.
//   - error: An error if the file cannot be read or parsed.
//
// @example
// cfg, err := config.Load("carcheck.yaml")
// consolidator, err := dataset.New(cfg.Merge.Dataset())
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	cfg.Inspect.ApplyDefaults()
	return &cfg, nil
}

// Dataset converts the merge section into a consolidator configuration.
func (m Merge) Dataset() dataset.Config {
	return dataset.Config{
		Destination:        m.Destination,
		Sources:            m.Sources,
		ClassNames:         m.ClassNames,
		Collision:          dataset.CollisionPolicy(m.Collision),
		SkipMalformedLines: m.SkipMalformedLines,
	}
}

// Validate checks the merge section.
func (m Merge) Validate() error {
	if m.Destination == "" {
		return errors.New("merge: destination is required")
	}
	if len(m.Sources) == 0 {
		return errors.New("merge: at least one source is required")
	}
	for i, s := range m.Sources {
		if s.Root == "" {
			return errors.Errorf("merge: source %d has no root", i)
		}
	}
	if _, err := dataset.ParseCollisionPolicy(m.Collision); err != nil {
		return errors.Wrap(err, "merge")
	}
	return nil
}

// ApplyDefaults fills unset model fields: input size, thresholds, tensor names,
// class lists and the shared library path. The parts model is a segmentation
// model and gets 32 mask coefficients unless set.
func (i *Inspect) ApplyDefaults() {
	i.Parts = modelDefaults(i.Parts, inference.PartClasses, i.LibraryPath)
	if i.Parts.MaskCoefficients == 0 {
		i.Parts.MaskCoefficients = 32
	}
	i.Damage = modelDefaults(i.Damage, inference.DamageClasses, i.LibraryPath)
	if i.Dirt != nil {
		dirt := modelDefaults(*i.Dirt, inference.DirtClasses, i.LibraryPath)
		i.Dirt = &dirt
	}
}

// Validate checks the inspect section after ApplyDefaults.
func (i Inspect) Validate() error {
	if err := i.Parts.Validate(); err != nil {
		return errors.Wrap(err, "inspect: parts")
	}
	if err := i.Damage.Validate(); err != nil {
		return errors.Wrap(err, "inspect: damage")
	}
	if i.Dirt != nil {
		if err := i.Dirt.Validate(); err != nil {
			return errors.Wrap(err, "inspect: dirt")
		}
	}
	return nil
}

func modelDefaults(c inference.Config, classes []string, libraryPath string) inference.Config {
	d := inference.DefaultConfig()
	if c.InputSize == 0 {
		c.InputSize = DefaultInputSize
	}
	if c.ConfidenceThreshold == 0 {
		c.ConfidenceThreshold = d.ConfidenceThreshold
	}
	if c.NMSThreshold == 0 {
		c.NMSThreshold = d.NMSThreshold
	}
	if c.InputName == "" {
		c.InputName = d.InputName
	}
	if c.OutputName == "" {
		c.OutputName = d.OutputName
	}
	if len(c.Classes) == 0 {
		c.Classes = append([]string(nil), classes...)
	}
	if c.LibraryPath == "" {
		c.LibraryPath = libraryPath
	}
	return c
}
