package inference

import (
	"image"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
)

// PadValue is the normalized gray used to fill the letterbox border.
const PadValue = float32(114) / 255

// Letterbox is the geometry of an image scaled into a square model input with
// its aspect ratio preserved and the remainder padded.
type Letterbox struct {
	// Scale is the factor applied to the source image.
	Scale float32
	// PadX and PadY are the left and top border widths in input pixels.
	PadX, PadY int
	// Width and Height are the scaled image dimensions inside the input.
	Width, Height int
}

// NewLetterbox computes the letterbox of a srcW x srcH image inside a size x size input.
func NewLetterbox(srcW, srcH, size int) Letterbox {
	scale := float32(size) / float32(srcW)
	if s := float32(size) / float32(srcH); s < scale {
		scale = s
	}
	w := int(float32(srcW)*scale + 0.5)
	h := int(float32(srcH)*scale + 0.5)
	if w > size {
		w = size
	}
	if h > size {
		h = size
	}
	return Letterbox{
		Scale:  scale,
		PadX:   (size - w) / 2,
		PadY:   (size - h) / 2,
		Width:  w,
		Height: h,
	}
}

// Unproject maps a point in model input coordinates back to the source image.
func (l Letterbox) Unproject(x, y float32) (float32, float32) {
	return (x - float32(l.PadX)) / l.Scale, (y - float32(l.PadY)) / l.Scale
}

// PrepareInput letterboxes img into dst as a planar RGB tensor of shape
// (1, 3, size, size) with values in [0, 1].
//
// Arguments:
//   - img: The image to prepare.
//   - size: The square model input size.
//   - dst: The destination tensor data to populate.
//
// Returns:
//   - Letterbox: The geometry needed to map detections back to img.
//   - error: An error if dst is too small or img is empty.
func PrepareInput(img image.Image, size int, dst []float32) (Letterbox, error) {
	channelSize := size * size
	if len(dst) < channelSize*3 {
		return Letterbox{}, errors.Errorf("destination tensor only holds %d floats, needs %d", len(dst), channelSize*3)
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return Letterbox{}, errors.New("empty image")
	}

	lb := NewLetterbox(b.Dx(), b.Dy(), size)
	for i := range dst[:channelSize*3] {
		dst[i] = PadValue
	}
	red := dst[0:channelSize]
	green := dst[channelSize : channelSize*2]
	blue := dst[channelSize*2 : channelSize*3]

	scaled := resize.Resize(uint(lb.Width), uint(lb.Height), img, resize.Bilinear)
	sb := scaled.Bounds()
	for y := 0; y < lb.Height; y++ {
		row := (y + lb.PadY) * size
		for x := 0; x < lb.Width; x++ {
			r, g, bl, _ := scaled.At(sb.Min.X+x, sb.Min.Y+y).RGBA()
			i := row + x + lb.PadX
			red[i] = float32(r>>8) / 255.0
			green[i] = float32(g>>8) / 255.0
			blue[i] = float32(bl>>8) / 255.0
		}
	}
	return lb, nil
}
