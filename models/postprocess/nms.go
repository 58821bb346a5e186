// Package postprocess - provides Non-Maximum Suppression for detection results.
package postprocess

import (
	"sort"

	"github.com/nvr-ai/carcheck/common"
)

// NMSConfig defines parameters for Non-Maximum Suppression.
type NMSConfig struct {
	IoUThreshold float32 // Overlap threshold for suppression.
	ClassAware   bool    // If true, suppress only within same class.
}

// SortByConfidence orders detections by descending confidence. Ties keep their
// input order.
func SortByConfidence(detections []common.BoundingBox) {
	sort.SliceStable(detections, func(i, j int) bool {
		return detections[i].Confidence > detections[j].Confidence
	})
}

// ApplyGreedyNMS performs standard greedy Non-Maximum Suppression.
//
// Detections are sorted by descending confidence in place; each kept detection
// suppresses every later one whose IoU with it exceeds the threshold.
//
// Arguments:
//   - detections: Candidate detections in original image coordinates.
//   - config: NMS configuration.
//
// Returns:
//   - Filtered slice of detections, highest confidence first. If no detections
//     are provided, returns nil.
func ApplyGreedyNMS(detections []common.BoundingBox, config NMSConfig) []common.BoundingBox {
	n := len(detections)
	if n == 0 {
		return nil
	}
	SortByConfidence(detections)

	filtered := make([]common.BoundingBox, 0, n)
	used := make([]bool, n)

	for i := 0; i < n; i++ {
		if used[i] {
			continue
		}

		anchor := detections[i]
		filtered = append(filtered, anchor)
		used[i] = true

		for j := i + 1; j < n; j++ {
			if used[j] {
				continue
			}
			if config.ClassAware && anchor.ClassID != detections[j].ClassID {
				continue
			}

			// Suppress if IoU exceeds threshold
			if anchor.IoU(&detections[j]) > config.IoUThreshold {
				used[j] = true
			}
		}
	}

	return filtered
}
