// Package inspection - Car damage and dirt inspection built from three detectors:
// car parts, surface damage and dirt.
package inspection

import (
	"context"
	"fmt"
	"image"
	"log"
	"os"

	"github.com/nvr-ai/carcheck/common"
	"github.com/nvr-ai/carcheck/profiler"
	"github.com/pkg/errors"
)

// Detector finds objects in an image. *inference.Detector implements it.
type Detector interface {
	Detect(ctx context.Context, img image.Image) ([]common.BoundingBox, error)
}

// DirtState is the cleanliness verdict of an inspection.
type DirtState string

// DirtState constants
const (
	DirtDirty   DirtState = "dirty"
	DirtClean   DirtState = "clean"
	DirtUnknown DirtState = "not detected"
)

// DamagedPart is a damage detection overlapping a part detection.
type DamagedPart struct {
	Part      string             `json:"part"`
	Damage    string             `json:"damage"`
	PartBox   common.BoundingBox `json:"part_box"`
	DamageBox common.BoundingBox `json:"damage_box"`
}

func (d DamagedPart) String() string {
	return fmt.Sprintf("%s (%s)", d.Part, d.Damage)
}

// MatchDamage pairs every damage box with every part box it overlaps, edges
// inclusive. A damage spanning two parts yields two entries and two damages on
// one part yield two entries; duplicates are kept.
//
// Arguments:
//   - parts: Part detections.
//   - damages: Damage detections.
//
// Returns:
//   - []DamagedPart: Pairs in damage order, then part order.
//
// @example
// parts := []common.BoundingBox{{Label: "hood", X1: 0, Y1: 0, X2: 100, Y2: 50}}
// damages := []common.BoundingBox{{Label: "dent", X1: 90, Y1: 40, X2: 120, Y2: 60}}
// MatchDamage(parts, damages) // [hood (dent)]
func MatchDamage(parts, damages []common.BoundingBox) []DamagedPart {
	var matched []DamagedPart
	for _, damage := range damages {
		for _, part := range parts {
			if damage.Overlaps(&part) {
				matched = append(matched, DamagedPart{
					Part:      part.Label,
					Damage:    damage.Label,
					PartBox:   part,
					DamageBox: damage,
				})
			}
		}
	}
	return matched
}

// DirtFrom returns DirtDirty when the dirt model found anything and DirtClean
// otherwise.
func DirtFrom(detections []common.BoundingBox) DirtState {
	if len(detections) > 0 {
		return DirtDirty
	}
	return DirtClean
}

// Option configures an Inspector.
type Option func(*Inspector)

// WithDirtModel enables the dirt verdict. Without it the state is DirtUnknown.
func WithDirtModel(d Detector) Option {
	return func(i *Inspector) {
		i.dirt = d
	}
}

// WithOutputDir makes InspectFile write annotated images into dir.
func WithOutputDir(dir string) Option {
	return func(i *Inspector) {
		i.outputDir = dir
	}
}

// WithLogger routes status lines to l.
func WithLogger(l *log.Logger) Option {
	return func(i *Inspector) {
		i.logger = l
	}
}

// WithProfiler records per-model timings into p.
func WithProfiler(p *profiler.Profiler) Option {
	return func(i *Inspector) {
		i.profiler = p
	}
}

// Inspector runs the part, damage and dirt models on an image and combines
// their detections. It is safe for concurrent use when its detectors are.
type Inspector struct {
	parts     Detector
	damage    Detector
	dirt      Detector
	outputDir string
	logger    *log.Logger
	profiler  *profiler.Profiler
}

// New creates an Inspector from a part and a damage detector.
func New(parts, damage Detector, opts ...Option) (*Inspector, error) {
	if parts == nil || damage == nil {
		return nil, errors.New("part and damage detectors are required")
	}
	i := &Inspector{
		parts:  parts,
		damage: damage,
		logger: log.New(os.Stderr, "", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Inspect runs the part, damage and dirt models on img, in that order.
//
// Arguments:
//   - ctx: Passed to every model.
//   - img: The car image.
//
// Returns:
//   - *Report: Raw detections, damaged parts and dirt state.
//   - error: The first model error.
func (i *Inspector) Inspect(ctx context.Context, img image.Image) (*Report, error) {
	report := &Report{DirtState: DirtUnknown}

	var err error
	if report.Parts, err = i.detect(ctx, "parts", i.parts, img); err != nil {
		return nil, err
	}
	if report.Damages, err = i.detect(ctx, "damage", i.damage, img); err != nil {
		return nil, err
	}
	report.DamagedParts = MatchDamage(report.Parts, report.Damages)

	if i.dirt != nil {
		if report.Dirt, err = i.detect(ctx, "dirt", i.dirt, img); err != nil {
			return nil, err
		}
		report.DirtState = DirtFrom(report.Dirt)
	}
	return report, nil
}

func (i *Inspector) detect(ctx context.Context, name string, d Detector, img image.Image) ([]common.BoundingBox, error) {
	stop := i.profiler.StartOperation(name)
	defer stop()

	boxes, err := d.Detect(ctx, img)
	if err != nil {
		return nil, errors.Wrapf(err, "%s model", name)
	}
	return boxes, nil
}
