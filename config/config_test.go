package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nvr-ai/carcheck/dataset"
	"github.com/nvr-ai/carcheck/inference"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const job = `
merge:
  destination: final_dataset_1
  class_names: [dent, scratch, rust, dirt, clean]
  sources:
    - root: final_dataset
    - root: dirt finding.v3i.yolov8
      class_map: {0: null, 1: 3}
inspect:
  library_path: /opt/onnxruntime/lib/libonnxruntime.so
  output_dir: runs/predict_combined
  parts:
    path: parts.onnx
  damage:
    path: damage.onnx
    confidence: 0.4
  dirt:
    path: dirt.onnx
    input_size: 640
server:
  addr: 127.0.0.1:9000
`

func writeJob(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "carcheck.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeJob(t, job))
	require.NoError(t, err)

	m := cfg.Merge
	assert.NoError(t, m.Validate())
	assert.Equal(t, "overwrite", m.Collision)
	require.Len(t, m.Sources, 2)
	assert.Empty(t, m.Sources[0].ClassMap)
	assert.Equal(t, dataset.ClassMap{0: nil, 1: dataset.To(3)}, m.Sources[1].ClassMap)

	ds := m.Dataset()
	assert.Equal(t, "final_dataset_1", ds.Destination)
	assert.Equal(t, dataset.CollisionOverwrite, ds.Collision)

	in := cfg.Inspect
	require.NoError(t, in.Validate())
	assert.Equal(t, DefaultInputSize, in.Parts.InputSize)
	assert.Equal(t, 32, in.Parts.MaskCoefficients)
	assert.Equal(t, inference.PartClasses, in.Parts.Classes)
	assert.Equal(t, "/opt/onnxruntime/lib/libonnxruntime.so", in.Parts.LibraryPath)
	assert.Equal(t, "images", in.Parts.InputName)
	assert.InDelta(t, 0.4, in.Damage.ConfidenceThreshold, 1e-6)
	assert.InDelta(t, 0.7, in.Damage.NMSThreshold, 1e-6)
	assert.Zero(t, in.Damage.MaskCoefficients)
	require.NotNil(t, in.Dirt)
	assert.Equal(t, 640, in.Dirt.InputSize)
	assert.Equal(t, inference.DirtClasses, in.Dirt.Classes)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.AllowedOrigins)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeJob(t, "merge: [not, a, map]"))
	assert.Error(t, err)
}

func TestMergeValidate(t *testing.T) {
	ok := Merge{Destination: "out", Sources: []dataset.Source{{Root: "a"}}}
	assert.NoError(t, ok.Validate())

	noDest := ok
	noDest.Destination = ""
	assert.Error(t, noDest.Validate())

	noSources := ok
	noSources.Sources = nil
	assert.Error(t, noSources.Validate())

	badPolicy := ok
	badPolicy.Collision = "skip"
	assert.Error(t, badPolicy.Validate())
}

func TestInspectValidateWithoutModels(t *testing.T) {
	in := Default().Inspect
	in.ApplyDefaults()
	assert.Error(t, in.Validate())
	assert.Nil(t, in.Dirt)
}
