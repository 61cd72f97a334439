// Package gesture builds the finger paths for scroll, swipe, pinch and rotate
// gestures from the current viewport size.
package gesture

import (
	"math"
	"time"
)

// Viewport is the current screen size in pixels.
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Center returns the viewport midpoint.
func (v Viewport) Center() Point {
	return Point{X: v.Width / 2, Y: v.Height / 2}
}

// Valid reports whether both dimensions are positive.
func (v Viewport) Valid() bool {
	return v.Width > 0 && v.Height > 0
}

// Point is a viewport coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Polar returns the point at radius r and angle deg (degrees) from p,
// truncating toward zero.
func (p Point) Polar(r, deg float64) Point {
	rad := deg * (math.Pi / 180)
	return Point{
		X: int(float64(p.X) + r*math.Cos(rad)),
		Y: int(float64(p.Y) + r*math.Sin(rad)),
	}
}

// StepKind is one finger event.
type StepKind int

const (
	StepPress StepKind = iota
	StepWait
	StepMove
	StepRelease
)

// String returns the string representation of StepKind
func (k StepKind) String() string {
	switch k {
	case StepPress:
		return "press"
	case StepWait:
		return "wait"
	case StepMove:
		return "moveTo"
	case StepRelease:
		return "release"
	default:
		return "unknown"
	}
}

// Step is a single event in a finger path. Point is unused for wait and release.
type Step struct {
	Kind     StepKind
	Point    Point
	Duration time.Duration
}

// Path is the ordered event list of one simulated finger.
type Path struct {
	Steps []Step
}

// NewPath starts an empty finger path.
func NewPath() *Path {
	return &Path{}
}

// Press puts the finger down at p.
func (p *Path) Press(pt Point) *Path {
	p.Steps = append(p.Steps, Step{Kind: StepPress, Point: pt})
	return p
}

// Wait holds the finger still for d.
func (p *Path) Wait(d time.Duration) *Path {
	p.Steps = append(p.Steps, Step{Kind: StepWait, Duration: d})
	return p
}

// MoveTo drags the finger to pt.
func (p *Path) MoveTo(pt Point) *Path {
	p.Steps = append(p.Steps, Step{Kind: StepMove, Point: pt})
	return p
}

// Release lifts the finger.
func (p *Path) Release() *Path {
	p.Steps = append(p.Steps, Step{Kind: StepRelease})
	return p
}

// Points returns the touched coordinates in order: the press point followed by every move target.
func (p *Path) Points() []Point {
	var pts []Point
	for _, s := range p.Steps {
		if s.Kind == StepPress || s.Kind == StepMove {
			pts = append(pts, s.Point)
		}
	}
	return pts
}

// Gesture is one or more finger paths performed together.
type Gesture struct {
	Name    string
	Fingers []*Path
}
