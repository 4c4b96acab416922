package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGridPointsCount(t *testing.T) {
	pts := GridPoints(600, 600, 6)
	assert.Len(t, pts, 36)
}

func TestGridPointsCellCenters(t *testing.T) {
	pts := GridPoints(600, 300, 6)
	require.Len(t, pts, 36)

	// first cell center: x = 0.5*600/6 = 50, y = 0.5*300/6 = 25
	assert.Equal(t, [2]int{50, 25}, pts[0])
	// last cell center: x = 5.5*600/6 = 550, y = 5.5*300/6 = 275
	assert.Equal(t, [2]int{550, 275}, pts[35])

	for _, p := range pts {
		assert.GreaterOrEqual(t, p[0], 0)
		assert.Less(t, p[0], 600)
		assert.GreaterOrEqual(t, p[1], 0)
		assert.Less(t, p[1], 300)
	}
}

func TestGridPointsTruncation(t *testing.T) {
	// 7px wide, 3 columns: centers at 7/6, 3.5, 35/6 -> 1, 3, 5
	pts := GridPoints(7, 7, 3)
	require.Len(t, pts, 9)
	assert.Equal(t, 1, pts[0][0])
	assert.Equal(t, 3, pts[3][0])
	assert.Equal(t, 5, pts[6][0])
}

func TestGridPointsDeterministic(t *testing.T) {
	a := GridPoints(1024, 768, 6)
	b := GridPoints(1024, 768, 6)
	assert.Equal(t, a, b)
}
