package facematch

import (
	"fmt"
	"image"
)

// Rect is a face bounding box in pixel coordinates, as reported by a detector:
// top-left corner plus width and height.
type Rect struct {
	X, Y int
	W, H int
}

func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d %dx%d)", r.X, r.Y, r.W, r.H)
}

// clamp intersects the box with a width x height frame.
// Detectors routinely report boxes that spill over the frame edge.
func (r Rect) clamp(width, height int) image.Rectangle {
	if r.W <= 0 || r.H <= 0 {
		return image.Rectangle{}
	}
	box := image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H)
	return box.Intersect(image.Rect(0, 0, width, height))
}

// Area returns the box area in pixels, zero for degenerate boxes.
func (r Rect) Area() int {
	if r.W <= 0 || r.H <= 0 {
		return 0
	}
	return r.W * r.H
}
