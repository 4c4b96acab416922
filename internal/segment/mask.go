package segment

// Bounds is an inclusive pixel-space bounding box.
type Bounds struct {
	XMin, YMin, XMax, YMax int
}

// maskBounds computes the bounding box of the foreground pixels in a
// row-major run-length encoded mask. counts alternates runs of background
// and foreground pixels, starting with background. Returns false for an
// empty mask or an encoding that does not cover exactly width*height pixels.
func maskBounds(counts []int, width, height int) (Bounds, bool) {
	total := 0
	for _, c := range counts {
		if c < 0 {
			return Bounds{}, false
		}
		total += c
	}
	if width <= 0 || height <= 0 || total != width*height {
		return Bounds{}, false
	}

	b := Bounds{XMin: width, YMin: height, XMax: -1, YMax: -1}
	pos := 0
	for i, c := range counts {
		if i%2 == 1 && c > 0 {
			start, end := pos, pos+c-1 // inclusive pixel index range
			y0, y1 := start/width, end/width
			if y0 < b.YMin {
				b.YMin = y0
			}
			if y1 > b.YMax {
				b.YMax = y1
			}
			if y1 > y0 {
				// The run wraps at least one row boundary, so it touches
				// both image edges.
				b.XMin = 0
				b.XMax = width - 1
			} else {
				if x := start % width; x < b.XMin {
					b.XMin = x
				}
				if x := end % width; x > b.XMax {
					b.XMax = x
				}
			}
		}
		pos += c
	}

	if b.XMax < 0 {
		return Bounds{}, false
	}
	return b, true
}
