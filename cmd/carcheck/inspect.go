package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/nvr-ai/carcheck/config"
	"github.com/nvr-ai/carcheck/dataset"
	"github.com/nvr-ai/carcheck/inference"
	"github.com/nvr-ai/carcheck/inspection"
	"github.com/nvr-ai/carcheck/profiler"
	"github.com/nvr-ai/carcheck/util"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect IMAGE|DIR...",
	Short: "Report damaged parts and dirt on car photos",
	Long: `Run the part, damage and dirt models on every given image (directories are
expanded to their .jpg, .jpeg and .png files) and print the damaged parts and the
dirt state. With an output directory, annotated copies are written there.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInspect,
}

var (
	inspectParts     string
	inspectDamage    string
	inspectDirt      string
	inspectLibrary   string
	inspectOutputDir string
	inspectVerbose   bool
	inspectJSON      bool
	inspectProfile   bool
)

func init() {
	rootCmd.AddCommand(inspectCmd)

	addModelFlags(inspectCmd)
	inspectCmd.Flags().StringVarP(&inspectOutputDir, "output-dir", "o", "", "Write annotated images to this directory")
	inspectCmd.Flags().BoolVarP(&inspectVerbose, "verbose", "v", false, "List every detection with its confidence")
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "Print the grouped summary as JSON")
	inspectCmd.Flags().BoolVar(&inspectProfile, "profile", false, "Print per-model timings")
}

func addModelFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&inspectParts, "parts", "", "Car parts segmentation model (.onnx)")
	cmd.Flags().StringVar(&inspectDamage, "damage", "", "Damage detection model (.onnx)")
	cmd.Flags().StringVar(&inspectDirt, "dirt", "", "Dirt detection model (.onnx)")
	cmd.Flags().StringVar(&inspectLibrary, "library", "", "onnxruntime shared library")
}

// applyModelFlags overrides the inspect section with command line model paths.
func applyModelFlags(in *config.Inspect) {
	if inspectParts != "" {
		in.Parts.ModelPath = inspectParts
	}
	if inspectDamage != "" {
		in.Damage.ModelPath = inspectDamage
	}
	if inspectDirt != "" {
		if in.Dirt == nil {
			in.Dirt = &inference.Config{}
		}
		in.Dirt.ModelPath = inspectDirt
	}
	if inspectLibrary != "" {
		in.LibraryPath = inspectLibrary
		in.Parts.LibraryPath = inspectLibrary
		in.Damage.LibraryPath = inspectLibrary
		if in.Dirt != nil {
			in.Dirt.LibraryPath = inspectLibrary
		}
	}
	in.ApplyDefaults()
}

// buildInspector loads every configured model. The returned function closes them.
func buildInspector(in config.Inspect, logger *log.Logger, opts ...inspection.Option) (*inspection.Inspector, func(), error) {
	if err := in.Validate(); err != nil {
		return nil, nil, err
	}

	var detectors []*inference.Detector
	closeAll := func() {
		for _, d := range detectors {
			d.Close()
		}
	}
	load := func(cfg inference.Config) (*inference.Detector, error) {
		d, err := inference.NewDetector(cfg, inference.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		detectors = append(detectors, d)
		return d, nil
	}

	parts, err := load(in.Parts)
	if err != nil {
		closeAll()
		return nil, nil, err
	}
	damage, err := load(in.Damage)
	if err != nil {
		closeAll()
		return nil, nil, err
	}
	if in.Dirt != nil {
		dirt, err := load(*in.Dirt)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		opts = append(opts, inspection.WithDirtModel(dirt))
	}

	insp, err := inspection.New(parts, damage, opts...)
	if err != nil {
		closeAll()
		return nil, nil, err
	}
	return insp, closeAll, nil
}

// expandImages replaces directories with the image files they contain.
func expandImages(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, errors.Wrapf(err, "stat %s", arg)
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		names, err := util.ListImageFiles(arg, dataset.ImageExtensions...)
		if err != nil {
			return nil, errors.Wrapf(err, "list %s", arg)
		}
		for _, name := range names {
			files = append(files, filepath.Join(arg, name))
		}
	}
	return files, nil
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyModelFlags(&cfg.Inspect)
	if inspectOutputDir != "" {
		cfg.Inspect.OutputDir = inspectOutputDir
	}

	files, err := expandImages(args)
	if err != nil {
		return err
	}

	var prof *profiler.Profiler
	if inspectProfile {
		prof = profiler.New()
	}
	logger := newLogger()
	insp, closeAll, err := buildInspector(cfg.Inspect, logger,
		inspection.WithOutputDir(cfg.Inspect.OutputDir),
		inspection.WithLogger(logger),
		inspection.WithProfiler(prof))
	if err != nil {
		return err
	}
	defer closeAll()

	out := cmd.OutOrStdout()
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	for _, file := range files {
		report, err := insp.InspectFile(cmd.Context(), file)
		if err != nil {
			return err
		}
		if inspectJSON {
			if err := enc.Encode(inspection.Summarize(report)); err != nil {
				return err
			}
			continue
		}
		if len(files) > 1 {
			fmt.Fprintf(out, "📄 %s\n", file)
		}
		if err := report.WriteText(out, inspectVerbose); err != nil {
			return err
		}
	}
	prof.WriteReport(cmd.ErrOrStderr())
	return nil
}
