package node

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema() Schema {
	return Schema{
		Name:        "Sample",
		DisplayName: "Sample Node",
		Inputs: []Input{
			{Name: "image", Kind: KindImage},
			Float("strength", 1, 0, 1, 0.01),
			Enum("mode", "a", "a", "b"),
			Int("seed", 0, 0, 1<<32-1),
		},
		Outputs: []Output{{Name: "IMAGE", Kind: KindImage}},
	}
}

func TestSchemaValidate(t *testing.T) {
	require.NoError(t, testSchema().Validate())

	s := testSchema()
	s.Inputs = append(s.Inputs, Input{Name: "image", Kind: KindImage})
	assert.ErrorContains(t, s.Validate(), "duplicate")

	s = testSchema()
	s.Inputs[1] = Float("strength", 2, 0, 1, 0.01)
	assert.ErrorContains(t, s.Validate(), "above max")

	s = testSchema()
	s.Inputs[2] = Enum("mode", "c", "a", "b")
	assert.ErrorContains(t, s.Validate(), "not one of")

	s = testSchema()
	s.Outputs = nil
	assert.Error(t, s.Validate())
}

func TestSchemaInputLookup(t *testing.T) {
	in, ok := testSchema().Input("strength")
	require.True(t, ok)
	assert.Equal(t, KindFloat, in.Kind)
	assert.Equal(t, 1.0, *in.Max)

	_, ok = testSchema().Input("missing")
	assert.False(t, ok)
}

func TestReport(t *testing.T) {
	r := NewReport(3)
	r.Record(0, nil)
	r.Record(1, errors.New("boom"))
	r.Skip(2)

	assert.Len(t, r.Frames, 3)
	assert.Equal(t, 2, r.Fallbacks())
	assert.Len(t, r.Errors(), 1)
	assert.False(t, r.Frames[0].Fallback)
}
