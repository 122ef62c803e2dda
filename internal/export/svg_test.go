package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/san-kum/mpcdrive/internal/dynamo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrajectorySVG(t *testing.T) {
	svg := TrajectorySVG([]Layer{
		{Points: []dynamo.Point{{X: 0, Y: 0}, {X: 10, Y: 0}}, Stroke: "#fff", Dashed: true},
		{Points: []dynamo.Point{{X: 0, Y: 0}, {X: 10, Y: 1}}, Stroke: "#0f0"},
		{Stroke: "#f00"},
	}, 200, 100)

	assert.True(t, strings.HasPrefix(svg, "<?xml"))
	assert.Equal(t, 2, strings.Count(svg, "<path"))
	assert.Equal(t, 1, strings.Count(svg, "stroke-dasharray"))
	assert.True(t, strings.HasSuffix(svg, "</svg>\n"))
}

func TestTrajectorySVGEmpty(t *testing.T) {
	assert.Empty(t, TrajectorySVG(nil, 100, 100))
}

func TestWriteRunSVG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRunSVG(&buf, []dynamo.Point{{X: 1}}, []dynamo.Point{{X: 2, Y: 3}}, 50, 50))
	assert.Contains(t, buf.String(), `stroke="#00ff88"`)

	assert.Error(t, WriteRunSVG(&buf, nil, nil, 50, 50))
}
