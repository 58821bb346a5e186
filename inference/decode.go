package inference

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/nvr-ai/carcheck/common"
	"github.com/nvr-ai/carcheck/models/postprocess"
	"github.com/pkg/errors"
)

// DecodeOutput turns a raw YOLOv8 output tensor of shape (1, channels, anchors)
// into detections in source image coordinates.
//
// For every anchor the best class score is taken; anchors below the confidence
// threshold are discarded, boxes are mapped back through the letterbox, clamped
// to the image and reduced with class-aware NMS. Mask coefficients are ignored.
//
// Arguments:
//   - output: The output tensor data, channel-major.
//   - cfg: The model configuration.
//   - lb: The letterbox used to prepare the input.
//   - width, height: The source image dimensions.
//
// Returns:
//   - []common.BoundingBox: Detections, highest confidence first.
//   - error: An error if output is smaller than the configured shape.
func DecodeOutput(output []float32, cfg Config, lb Letterbox, width, height int) ([]common.BoundingBox, error) {
	anchors := cfg.Anchors()
	numClasses := len(cfg.Classes)
	if want := cfg.Channels() * anchors; len(output) < want {
		return nil, errors.Errorf("output holds %d floats, expected %d (1, %d, %d)", len(output), want, cfg.Channels(), anchors)
	}

	w, h := float32(width), float32(height)
	var boxes []common.BoundingBox
	for idx := 0; idx < anchors; idx++ {
		classID := -1
		probability := float32(-1)
		for col := 0; col < numClasses; col++ {
			if p := output[anchors*(col+4)+idx]; p > probability {
				probability = p
				classID = col
			}
		}
		if probability < cfg.ConfidenceThreshold {
			continue
		}

		xc, yc := output[idx], output[anchors+idx]
		bw, bh := output[2*anchors+idx], output[3*anchors+idx]
		x1, y1 := lb.Unproject(xc-bw/2, yc-bh/2)
		x2, y2 := lb.Unproject(xc+bw/2, yc+bh/2)

		boxes = append(boxes, common.BoundingBox{
			ClassID:    classID,
			Label:      className(cfg.Classes, classID),
			Confidence: probability,
			X1:         clamp(x1, w),
			Y1:         clamp(y1, h),
			X2:         clamp(x2, w),
			Y2:         clamp(y2, h),
		})
	}

	return postprocess.ApplyGreedyNMS(boxes, postprocess.NMSConfig{
		IoUThreshold: cfg.NMSThreshold,
		ClassAware:   true,
	}), nil
}

func clamp(v, limit float32) float32 {
	return math32.Min(math32.Max(v, 0), limit)
}

func className(classes []string, id int) string {
	if id >= 0 && id < len(classes) {
		return classes[id]
	}
	return fmt.Sprintf("class_%d", id)
}
