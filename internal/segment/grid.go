// Package segment implements the segmentation-based component discovery
// pass: grid prompt sampling, batch inference against the mask sidecar,
// region extraction and spatial dedup.
package segment

// GridPoints returns n*n prompt points at the centers of an n-by-n grid of
// image cells, ordered column by column. The layout is fully deterministic;
// cache keys and reproducible runs depend on it.
func GridPoints(width, height, n int) [][2]int {
	points := make([][2]int, 0, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			x := int((float64(i) + 0.5) * float64(width) / float64(n))
			y := int((float64(j) + 0.5) * float64(height) / float64(n))
			points = append(points, [2]int{x, y})
		}
	}
	return points
}
