package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/nvr-ai/carcheck/dataset"
	"github.com/nvr-ai/carcheck/profiler"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge YOLO datasets into one dataset",
	Long: `Merge YOLO-format datasets into one destination dataset.

Every source is walked split by split (train, valid, test). Images are copied,
names longer than 100 characters are shortened, and labels are either copied
verbatim or rewritten through the source's class map. A data.yaml manifest is
written at the destination root.

Sources are given as PATH or PATH#MAP, where MAP is a class map such as
"0=drop,1=3". Command line sources replace the ones of the job file.`,
	Example: `  carcheck merge --dest final_dataset_1 \
    --source final_dataset \
    --source "dirt finding.v3i.yolov8#0=drop,1=3" \
    --names dent,scratch,rust,dirt,clean`,
	RunE: runMerge,
}

var (
	mergeDest          string
	mergeSources       []string
	mergeNames         []string
	mergeCollision     string
	mergeSkipMalformed bool
	mergeNoProgress    bool
	mergeProfile       bool
)

func init() {
	rootCmd.AddCommand(mergeCmd)

	mergeCmd.Flags().StringVar(&mergeDest, "dest", "", "Destination dataset root")
	mergeCmd.Flags().StringArrayVar(&mergeSources, "source", nil, "Source dataset as PATH or PATH#MAP (repeatable, merged in order)")
	mergeCmd.Flags().StringSliceVar(&mergeNames, "names", nil, "Ordered class names for data.yaml")
	mergeCmd.Flags().StringVar(&mergeCollision, "collision", "", "Name collision policy: overwrite, error or rename")
	mergeCmd.Flags().BoolVar(&mergeSkipMalformed, "skip-malformed", false, "Drop malformed label lines instead of rejecting the file")
	mergeCmd.Flags().BoolVar(&mergeNoProgress, "no-progress", false, "Disable progress bars")
	mergeCmd.Flags().BoolVar(&mergeProfile, "profile", false, "Print per-split timings")
}

// parseSourceFlag splits PATH#MAP. The class map follows the last '#'.
func parseSourceFlag(s string) (dataset.Source, error) {
	path, mapping := s, ""
	if i := strings.LastIndex(s, "#"); i >= 0 {
		path, mapping = s[:i], s[i+1:]
	}
	if path == "" {
		return dataset.Source{}, errors.Errorf("source %q has no path", s)
	}
	m, err := dataset.ParseClassMap(mapping)
	if err != nil {
		return dataset.Source{}, errors.Wrapf(err, "source %q", s)
	}
	return dataset.Source{Root: path, ClassMap: m}, nil
}

func runMerge(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	m := cfg.Merge
	if mergeDest != "" {
		m.Destination = mergeDest
	}
	if len(mergeSources) > 0 {
		m.Sources = nil
		for _, s := range mergeSources {
			src, err := parseSourceFlag(s)
			if err != nil {
				return err
			}
			m.Sources = append(m.Sources, src)
		}
	}
	if len(mergeNames) > 0 {
		m.ClassNames = mergeNames
	}
	if mergeCollision != "" {
		m.Collision = mergeCollision
	}
	if mergeSkipMalformed {
		m.SkipMalformedLines = true
	}
	if err := m.Validate(); err != nil {
		return err
	}

	opts := []dataset.Option{dataset.WithLogger(newLogger())}
	if !mergeNoProgress && !quiet {
		opts = append(opts, dataset.WithProgress(os.Stderr))
	}
	var prof *profiler.Profiler
	if mergeProfile {
		prof = profiler.New()
		opts = append(opts, dataset.WithProfiler(prof))
	}

	consolidator, err := dataset.New(m.Dataset(), opts...)
	if err != nil {
		return err
	}
	result, err := consolidator.Run()
	if result != nil {
		printMergeResult(cmd.OutOrStdout(), result)
	}
	prof.WriteReport(cmd.ErrOrStderr())
	return err
}

func printMergeResult(w io.Writer, r *dataset.Result) {
	fmt.Fprintf(w, "%s %d images copied (%d renamed, %d missing)\n",
		color.GreenString("📷"), r.ImagesCopied, r.Renamed, r.ImagesMissing)
	fmt.Fprintf(w, "%s %d labels copied, %d remapped, %d dropped, %d missing, %d rejected; %d lines dropped\n",
		color.GreenString("🏷️"), r.LabelsCopied, r.LabelsRemapped, r.LabelsDropped, r.LabelsMissing, r.LabelsRejected, r.LinesDropped)
	if r.StaleLabelsRemoved > 0 {
		fmt.Fprintf(w, "%s %d stale labels removed after overwrites\n",
			color.YellowString("🗑️"), r.StaleLabelsRemoved)
	}
	for _, issue := range r.Issues {
		fmt.Fprintf(w, "%s %s\n", color.YellowString("⚠️"), issue)
	}
}
