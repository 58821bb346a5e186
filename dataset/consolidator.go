package dataset

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/nvr-ai/carcheck/profiler"
	"github.com/pkg/errors"
)

const (
	// MaxFilenameLength is the longest file name copied unchanged.
	MaxFilenameLength = 100
	// TruncatedStemLength is how much of the stem survives truncation.
	TruncatedStemLength = 50
)

// CollisionPolicy decides what happens when two images of one run land on the same
// destination name.
type CollisionPolicy string

// CollisionPolicy constants
const (
	// CollisionOverwrite lets the later file replace the earlier one (last writer wins).
	CollisionOverwrite CollisionPolicy = "overwrite"
	// CollisionFail aborts the run with a *CollisionError.
	CollisionFail CollisionPolicy = "error"
	// CollisionRename appends _1, _2, ... to the stem until the name is free.
	CollisionRename CollisionPolicy = "rename"
)

// ParseCollisionPolicy validates a policy name. An empty name means CollisionOverwrite.
func ParseCollisionPolicy(s string) (CollisionPolicy, error) {
	switch p := CollisionPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return CollisionOverwrite, nil
	case CollisionOverwrite, CollisionFail, CollisionRename:
		return p, nil
	default:
		return "", errors.Errorf("unknown collision policy %q (want overwrite, error or rename)", s)
	}
}

// Source is one dataset to merge.
type Source struct {
	// Root is the dataset root directory.
	Root string `yaml:"root"`
	// ClassMap remaps label class ids. An empty map copies label files verbatim.
	ClassMap ClassMap `yaml:"class_map,omitempty"`
}

// Config describes one consolidation run.
type Config struct {
	// Destination is the merged dataset root.
	Destination string
	// Sources are merged in order; later sources overwrite earlier ones on collision.
	Sources []Source
	// ClassNames is the ordered class list written to the manifest.
	ClassNames []string
	// Collision is the destination name collision policy.
	Collision CollisionPolicy
	// SkipMalformedLines drops only the malformed lines of a label file and keeps
	// the rest. By default one malformed line rejects the whole label file.
	SkipMalformedLines bool
}

// Option configures a Consolidator.
type Option func(*Consolidator)

// WithLogger routes status and warning lines to l.
func WithLogger(l *log.Logger) Option {
	return func(c *Consolidator) {
		c.logger = l
	}
}

// WithProgress renders a progress bar per split to w.
func WithProgress(w io.Writer) Option {
	return func(c *Consolidator) {
		c.progress = w
	}
}

// WithProfiler records per-split timings into p.
func WithProfiler(p *profiler.Profiler) Option {
	return func(c *Consolidator) {
		c.profiler = p
	}
}

// Consolidator merges source datasets into one destination dataset.
type Consolidator struct {
	cfg      Config
	logger   *log.Logger
	progress io.Writer
	profiler *profiler.Profiler

	// written tracks destination paths produced in this run.
	written map[string]struct{}
}

// New creates a Consolidator for cfg.
//
// Arguments:
//   - cfg: The run configuration.
//   - opts: Optional logger, progress and profiler.
//
// Returns:
//   - *Consolidator: The consolidator.
//   - error: An error if the configuration is incomplete.
func New(cfg Config, opts ...Option) (*Consolidator, error) {
	if cfg.Destination == "" {
		return nil, errors.New("destination root is required")
	}
	policy, err := ParseCollisionPolicy(string(cfg.Collision))
	if err != nil {
		return nil, err
	}
	cfg.Collision = policy

	c := &Consolidator{
		cfg:     cfg,
		logger:  log.New(os.Stderr, "", log.LstdFlags),
		written: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Run initializes the destination, merges every source in order and writes the
// manifest. A *WriteError or *CollisionError stops the run; the partial result is
// returned alongside it.
func (c *Consolidator) Run() (*Result, error) {
	if err := InitializeDestination(c.cfg.Destination); err != nil {
		return nil, err
	}

	imagesRoot := filepath.Join(c.cfg.Destination, ImagesDir)
	labelsRoot := filepath.Join(c.cfg.Destination, LabelsDir)

	total := &Result{}
	for _, src := range c.cfg.Sources {
		c.logger.Printf("📂 Merging %s (class map: %s)", src.Root, describeClassMap(src.ClassMap))
		res, err := c.MergeDatasetSplit(src, imagesRoot, labelsRoot)
		total.Add(res)
		if err != nil {
			return total, errors.Wrapf(err, "merge %s", src.Root)
		}
	}

	if err := WriteManifest(c.cfg.Destination, c.cfg.ClassNames, DefaultSplitPaths()); err != nil {
		return total, err
	}
	c.logger.Printf("✅ Datasets merged into %s", c.cfg.Destination)
	return total, nil
}

// CopyFileSafely copies sourcePath into destDir and returns the destination file
// name. Names longer than MaxFilenameLength are truncated (see TruncateFilename);
// callers must derive the label name from the returned name.
//
// A missing source logs a warning and returns a *SourceMissingError with an empty
// name. Write failures return a *WriteError.
func (c *Consolidator) CopyFileSafely(sourcePath, destDir string) (string, error) {
	if _, err := os.Stat(sourcePath); err != nil {
		if os.IsNotExist(err) {
			c.logger.Printf("⚠️ File not found: %s", sourcePath)
			return "", &SourceMissingError{Path: sourcePath}
		}
		return "", errors.Wrapf(err, "stat %s", sourcePath)
	}

	name, err := c.claim(destDir, TruncateFilename(filepath.Base(sourcePath)))
	if err != nil {
		return "", err
	}
	if err := copyFile(sourcePath, filepath.Join(destDir, name)); err != nil {
		return "", err
	}
	return name, nil
}

// claim applies the collision policy to name inside destDir.
func (c *Consolidator) claim(destDir, name string) (string, error) {
	path := filepath.Join(destDir, name)
	if _, taken := c.written[path]; !taken {
		c.written[path] = struct{}{}
		return name, nil
	}

	switch c.cfg.Collision {
	case CollisionFail:
		return "", &CollisionError{Path: path}
	case CollisionRename:
		ext := filepath.Ext(name)
		stem := strings.TrimSuffix(name, ext)
		for i := 1; ; i++ {
			candidate := stem + "_" + strconv.Itoa(i) + ext
			p := filepath.Join(destDir, candidate)
			if _, taken := c.written[p]; !taken {
				c.written[p] = struct{}{}
				c.logger.Printf("⚠️ Renamed colliding %s to %s", path, candidate)
				return candidate, nil
			}
		}
	default:
		c.logger.Printf("⚠️ Overwriting %s written earlier in this run", path)
		return name, nil
	}
}

// TruncateFilename shortens names longer than MaxFilenameLength characters to the
// first TruncatedStemLength characters of the stem, an underscore and the original
// extension. Shorter names are returned unchanged.
//
// @example
// TruncateFilename(strings.Repeat("a", 120) + ".jpg") // 50 x "a" + "_.jpg"
func TruncateFilename(name string) string {
	if utf8.RuneCountInString(name) <= MaxFilenameLength {
		return name
	}
	ext := filepath.Ext(name)
	stem := []rune(strings.TrimSuffix(name, ext))
	if len(stem) > TruncatedStemLength {
		stem = stem[:TruncatedStemLength]
	}
	return string(stem) + "_" + ext
}

// copyFile copies src to dst, truncating dst. Both handles are closed on every path.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.Wrapf(err, "open %s", src)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return &WriteError{Path: dst, Err: err}
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return &WriteError{Path: dst, Err: err}
	}
	if err := out.Close(); err != nil {
		return &WriteError{Path: dst, Err: err}
	}
	return nil
}

func describeClassMap(m ClassMap) string {
	if len(m) == 0 {
		return "none, labels copied verbatim"
	}
	return m.String()
}
