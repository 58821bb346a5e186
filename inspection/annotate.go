package inspection

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

var (
	partColor = color.RGBA{R: 255}
	dirtColor = color.RGBA{B: 255}
)

// Annotate draws every damaged part box with a "part (damage)" caption and the
// dirt state in the top-left corner.
func Annotate(img *gocv.Mat, r *Report) {
	for _, d := range r.DamagedParts {
		rect := d.PartBox.ToRect()
		gocv.Rectangle(img, rect, partColor, 2)
		gocv.PutText(img, d.String(), image.Pt(rect.Min.X, rect.Min.Y-5), gocv.FontHersheySimplex, 0.6, partColor, 2)
	}
	gocv.PutText(img, fmt.Sprintf("Dirt: %s", r.DirtState), image.Pt(10, 30), gocv.FontHersheySimplex, 1, dirtColor, 2)
}

// InspectFile reads an image from disk and inspects it. With an output directory
// configured the annotated image is written to <dir>/<basename of path>.
//
// Arguments:
//   - ctx: Passed to every model.
//   - path: The image file.
//
// Returns:
//   - *Report: The report with Source and, when written, Annotated set.
//   - error: An error if the file cannot be read, a model fails or the
//     annotated image cannot be written.
func (i *Inspector) InspectFile(ctx context.Context, path string) (*Report, error) {
	mat := gocv.IMRead(path, gocv.IMReadColor)
	if mat.Empty() {
		return nil, errors.Errorf("error reading image: %s", path)
	}
	defer mat.Close()

	img, err := mat.ToImage()
	if err != nil {
		return nil, errors.Wrapf(err, "convert %s", path)
	}

	report, err := i.Inspect(ctx, img)
	if err != nil {
		return nil, errors.Wrapf(err, "inspect %s", path)
	}
	report.Source = path

	if i.outputDir == "" {
		return report, nil
	}
	if err := os.MkdirAll(i.outputDir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create %s", i.outputDir)
	}

	Annotate(&mat, report)
	out := filepath.Join(i.outputDir, filepath.Base(path))
	if !gocv.IMWrite(out, mat) {
		return nil, errors.Errorf("failed to save annotated image: %s", out)
	}
	i.logger.Printf("✅ Result saved: %s", out)
	report.Annotated = out
	return report, nil
}
