package postprocess

import (
	"testing"

	"github.com/nvr-ai/carcheck/common"
	"github.com/stretchr/testify/assert"
)

func TestApplyGreedyNMS(t *testing.T) {
	detections := []common.BoundingBox{
		{ClassID: 0, Label: "hood", Confidence: 0.6, X1: 2, Y1: 2, X2: 102, Y2: 102},
		{ClassID: 0, Label: "hood", Confidence: 0.9, X1: 0, Y1: 0, X2: 100, Y2: 100},
		{ClassID: 1, Label: "front_bumper", Confidence: 0.8, X1: 1, Y1: 1, X2: 101, Y2: 101},
		{ClassID: 0, Label: "hood", Confidence: 0.7, X1: 300, Y1: 300, X2: 400, Y2: 400},
	}

	t.Run("class agnostic", func(t *testing.T) {
		in := append([]common.BoundingBox(nil), detections...)
		out := ApplyGreedyNMS(in, NMSConfig{IoUThreshold: 0.5})
		assert.Len(t, out, 2)
		assert.Equal(t, float32(0.9), out[0].Confidence)
		assert.Equal(t, float32(0.7), out[1].Confidence)
	})

	t.Run("class aware", func(t *testing.T) {
		in := append([]common.BoundingBox(nil), detections...)
		out := ApplyGreedyNMS(in, NMSConfig{IoUThreshold: 0.5, ClassAware: true})
		assert.Len(t, out, 3)
		labels := []string{out[0].Label, out[1].Label, out[2].Label}
		assert.Equal(t, []string{"hood", "front_bumper", "hood"}, labels)
	})

	t.Run("empty", func(t *testing.T) {
		assert.Nil(t, ApplyGreedyNMS(nil, NMSConfig{IoUThreshold: 0.5}))
	})
}
