package dataset

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nvr-ai/carcheck/util"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
)

// MergeDatasetSplit copies every split of src into destImagesRoot/<split> and
// destLabelsRoot/<split>.
//
// Splits missing from src are skipped. The label of an image is looked up in the
// split's labels directory, then next to the image. Images without a label file
// are copied alone. When src has a class map, label lines are remapped and a label file is
// written only if at least one line survives; otherwise label files are copied
// verbatim.
//
// Arguments:
//   - src: The source dataset and its class map.
//   - destImagesRoot: The destination images directory (containing the split dirs).
//   - destLabelsRoot: The destination labels directory (containing the split dirs).
//
// Returns:
//   - *Result: Counters and per-line issues for this source.
//   - error: A *WriteError or *CollisionError; the result is still populated.
func (c *Consolidator) MergeDatasetSplit(src Source, destImagesRoot, destLabelsRoot string) (*Result, error) {
	result := &Result{}
	for _, split := range Splits {
		imagesDir, labelsDir, err := sourceSplit(src.Root, split)
		if err != nil {
			var missing *SourceMissingError
			if errors.As(err, &missing) {
				c.logger.Printf("⏭️ Split %s missing in %s, skipping", split, src.Root)
				continue
			}
			return result, err
		}

		stop := c.profiler.StartOperation("merge_" + string(split))
		err = c.mergeSplit(src, split, imagesDir, labelsDir,
			filepath.Join(destImagesRoot, string(split)),
			filepath.Join(destLabelsRoot, string(split)),
			result)
		stop()
		if err != nil {
			return result, err
		}
	}
	return result, nil
}

func (c *Consolidator) mergeSplit(src Source, split Split, imagesDir, labelsDir, imagesDst, labelsDst string, result *Result) error {
	files, err := util.ListImageFiles(imagesDir, ImageExtensions...)
	if err != nil {
		return errors.Wrapf(err, "list %s", imagesDir)
	}

	var bar *progressbar.ProgressBar
	if c.progress != nil {
		bar = progressbar.NewOptions(len(files),
			progressbar.OptionSetWriter(c.progress),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(15),
			progressbar.OptionSetDescription("[cyan]["+string(split)+"][reset] "+filepath.Base(src.Root)),
		)
		defer bar.Finish()
	}

	for _, file := range files {
		if bar != nil {
			bar.Add(1)
		}

		name, err := c.CopyFileSafely(filepath.Join(imagesDir, file), imagesDst)
		if err != nil {
			var missing *SourceMissingError
			if errors.As(err, &missing) {
				result.ImagesMissing++
				continue
			}
			return err
		}
		result.ImagesCopied++
		if name != file {
			result.Renamed++
		}

		// The image at name was just replaced, so whatever label sits beside it
		// belongs to an older image.
		labelDst := filepath.Join(labelsDst, stem(name)+LabelExt)
		if err := c.removeStaleLabel(labelDst, result); err != nil {
			return err
		}

		labelSrc, err := findLabel(stem(file)+LabelExt, labelsDir, imagesDir)
		if err != nil {
			return err
		}
		if labelSrc == "" {
			result.LabelsMissing++
			continue
		}

		if len(src.ClassMap) == 0 {
			if err := copyFile(labelSrc, labelDst); err != nil {
				return err
			}
			result.LabelsCopied++
			continue
		}

		if err := c.remapLabelFile(labelSrc, labelDst, src.ClassMap, result); err != nil {
			return err
		}
	}
	return nil
}

// removeStaleLabel deletes labelDst if an earlier image left it behind.
func (c *Consolidator) removeStaleLabel(labelDst string, result *Result) error {
	err := os.Remove(labelDst)
	if err == nil {
		c.logger.Printf("🗑️ Removed stale label %s", labelDst)
		result.StaleLabelsRemoved++
		return nil
	}
	if os.IsNotExist(err) {
		return nil
	}
	return &WriteError{Path: labelDst, Err: err}
}

// findLabel returns the first dir/name that exists, or "" when none does.
func findLabel(name string, dirs ...string) (string, error) {
	for _, dir := range dirs {
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err == nil && !info.IsDir() {
			return path, nil
		}
		if err != nil && !os.IsNotExist(err) {
			return "", errors.Wrapf(err, "stat %s", path)
		}
	}
	return "", nil
}

// remapLabelFile rewrites labelSrc through m into labelDst. Malformed lines are
// recorded in result.Issues and reject the file unless SkipMalformedLines is set;
// they never abort the run.
func (c *Consolidator) remapLabelFile(labelSrc, labelDst string, m ClassMap, result *Result) error {
	kept, dropped, issues, err := RemapLabel(labelSrc, m)
	if err != nil {
		return err
	}
	for _, issue := range issues {
		c.logger.Printf("⚠️ %v", issue.Err)
	}
	result.Issues = append(result.Issues, issues...)
	result.LinesDropped += dropped

	if len(issues) > 0 && !c.cfg.SkipMalformedLines {
		c.logger.Printf("❌ Rejected %s: %d malformed line(s)", labelSrc, len(issues))
		result.LabelsRejected++
		return nil
	}
	if len(kept) == 0 {
		result.LabelsDropped++
		return nil
	}

	if err := os.WriteFile(labelDst, []byte(strings.Join(kept, "\n")), 0o644); err != nil {
		return &WriteError{Path: labelDst, Err: err}
	}
	result.LabelsRemapped++
	return nil
}

// RemapLabel reads a label file and remaps the class id of every line through m.
//
// Token 0 is replaced with the mapped id; the remaining tokens pass through and are
// joined with single spaces. Blank lines are ignored. A line whose token 0 is not an
// integer becomes a LineIssue carrying a *ParseError and is skipped.
//
// Arguments:
//   - path: The label file.
//   - m: The class map.
//
// Returns:
//   - []string: The surviving lines.
//   - int: The number of lines dropped by the class map.
//   - []LineIssue: Malformed lines.
//   - error: An error if the file could not be read.
func RemapLabel(path string, m ClassMap) ([]string, int, []LineIssue, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	var (
		kept    []string
		dropped int
		issues  []LineIssue
		lineNo  int
	)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		id, err := strconv.Atoi(fields[0])
		if err != nil {
			issues = append(issues, LineIssue{
				Path: path,
				Line: lineNo,
				Err:  &ParseError{Path: path, Line: lineNo, Token: fields[0], Err: err},
			})
			continue
		}

		to, ok := m.Lookup(id)
		if !ok {
			dropped++
			continue
		}
		fields[0] = strconv.Itoa(to)
		kept = append(kept, strings.Join(fields, " "))
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, nil, errors.Wrapf(err, "read %s", path)
	}
	return kept, dropped, issues, nil
}

func stem(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
