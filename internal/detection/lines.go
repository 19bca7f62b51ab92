package detection

// Segment is a connector reduced to a directed line between two corners of
// its bounding box.
type Segment struct {
	Start Point `json:"start"`
	End   Point `json:"end"`

	// Reversed is set when the arrowhead sits at Start rather than End.
	Reversed bool `json:"reversed"`

	// StartCount and EndCount are the contour points found within the
	// arrow radius of each end.
	StartCount int `json:"start_count"`
	EndCount   int `json:"end_count"`
}

// Head returns the end carrying the arrowhead.
func (s Segment) Head() Point {
	if s.Reversed {
		return s.Start
	}
	return s.End
}

// Tail returns the end the connector points away from.
func (s Segment) Tail() Point {
	if s.Reversed {
		return s.End
	}
	return s.Start
}

// ConnectorResolver turns connector contours into Segments.
type ConnectorResolver struct {
	// Offset is the corner matching tolerance in pixels.
	Offset int
	// Arrow is the radius used to count arrowhead points.
	Arrow int
}

// Resolve picks the segment endpoints among the corners of box and infers
// the direction from point density.
//
// With A=(x,y), B=(x,y+h), C=(x+w,y+h), D=(x+w,y):
//   - start is A if the first point left of x+Offset is also above
//     y+Offset, B if it is below y+h-Offset; A by default.
//   - end is C if the first point right of x+w-Offset is below y+h-Offset,
//     D if it is above y+Offset; C by default.
//
// Each point within Arrow of the start counts for the start, otherwise
// within Arrow of the end for the end. An arrowhead adds boundary points,
// so the denser end is taken as the head. This assumes the arrowhead is the
// only source of density asymmetry.
func (r ConnectorResolver) Resolve(contour Contour, box Box) Segment {
	x, y, w, h := box.X, box.Y, box.W, box.H
	a, b := Point{x, y}, Point{x, y + h}
	c, d := Point{x + w, y + h}, Point{x + w, y}

	start, found := a, false
	for _, p := range contour.Points {
		if found {
			break
		}
		switch {
		case p.X < x+r.Offset && p.Y < y+r.Offset:
			start, found = a, true
		case p.X < x+r.Offset && p.Y > y+h-r.Offset:
			start, found = b, true
		}
	}

	end, found := c, false
	for _, p := range contour.Points {
		if found {
			break
		}
		switch {
		case p.X > x+w-r.Offset && p.Y > y+h-r.Offset:
			end, found = c, true
		case p.X > x+w-r.Offset && p.Y < y+r.Offset:
			end, found = d, true
		}
	}

	seg := Segment{Start: start, End: end}
	radius2 := r.Arrow * r.Arrow
	for _, p := range contour.Points {
		if dist2(p, start) < radius2 {
			seg.StartCount++
		} else if dist2(p, end) < radius2 {
			seg.EndCount++
		}
	}
	seg.Reversed = seg.StartCount > seg.EndCount
	return seg
}

func dist2(p, q Point) int {
	dx, dy := p.X-q.X, p.Y-q.Y
	return dx*dx + dy*dy
}
