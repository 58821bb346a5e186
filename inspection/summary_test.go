package inspection

import (
	"encoding/json"
	"testing"

	"github.com/nvr-ai/carcheck/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	report := &Report{
		Parts: []common.BoundingBox{
			box("front_bumper", 0, 0, 1, 1),
			box("hood", 0, 0, 1, 1),
			box("front_left_door", 0, 0, 1, 1),
			box("front_left_door", 5, 5, 6, 6),
			box("wheel", 0, 0, 1, 1),
			box("back_glass", 0, 0, 1, 1),
		},
		DamagedParts: []DamagedPart{
			{Part: "front_bumper", Damage: "dent"},
			{Part: "front_bumper", Damage: "dent"},
			{Part: "front_bumper", Damage: "scratch"},
			{Part: "hood", Damage: "rust"},
			{Part: "wheel", Damage: "scratch"},
		},
		DirtState: DirtClean,
	}

	s := Summarize(report)
	assert.Equal(t, []string{"front_bumper (dent)", "front_bumper (scratch)"}, s.Bumpers)
	assert.Equal(t, []string{"front_left_door"}, s.Doors)
	assert.Equal(t, []string{"hood (rust)", "back_glass"}, s.Body)
	assert.Equal(t, "clean", s.Status)
}

func TestSummarizeEmptyGroupsEncodeAsArrays(t *testing.T) {
	data, err := json.Marshal(Summarize(&Report{DirtState: DirtUnknown}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"bumpers":[],"doors":[],"body":[],"status":"not detected"}`, string(data))
}
