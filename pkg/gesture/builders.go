package gesture

import (
	"fmt"
	"strings"
	"time"
)

// Direction names a gesture direction. Values are matched case-insensitively.
type Direction string

const (
	Up               Direction = "up"
	Down             Direction = "down"
	Right            Direction = "right"
	Left             Direction = "left"
	Clockwise        Direction = "clockwise"
	CounterClockwise Direction = "counterclockwise"
)

// Center requests the viewport midline for the free axis of scroll and swipe.
const Center = -1

// Geometry constants.
const (
	ScrollHold = 100 * time.Millisecond
	PinchHold  = 50 * time.Millisecond

	PinchOuterRadius = 250.0
	PinchInnerRadius = 50.0

	RotateRadius = 200.0
	RotateStep   = 5
	RotateStart  = 45.0
	MinDegree    = 5
	MaxDegree    = 180
)

// PinchAngles are the polar angles of the two pinch fingers.
var PinchAngles = [2]float64{45, 225}

// InvalidArgError describes a rejected argument.
type InvalidArgError struct {
	Param string
	Msg   string
}

func (e *InvalidArgError) Error() string {
	return fmt.Sprintf("%s: %s", e.Param, e.Msg)
}

func normalize(d Direction) Direction {
	return Direction(strings.ToLower(strings.TrimSpace(string(d))))
}

// ValidateScroll checks a scroll direction and x position.
func ValidateScroll(d Direction, x int) (Direction, error) {
	d = normalize(d)
	if d != Up && d != Down {
		return "", &InvalidArgError{Param: "direction", Msg: "must be in ['up', 'down']"}
	}
	if x < Center {
		return "", &InvalidArgError{Param: "x_position", Msg: "must not be negative"}
	}
	return d, nil
}

// ValidateSwipe checks a swipe direction and y position.
func ValidateSwipe(d Direction, y int) (Direction, error) {
	d = normalize(d)
	if d != Right && d != Left {
		return "", &InvalidArgError{Param: "direction", Msg: "must be in ['right', 'left']"}
	}
	if y < Center {
		return "", &InvalidArgError{Param: "y_position", Msg: "must not be negative"}
	}
	return d, nil
}

// ValidateRotate checks a rotation degree and direction.
func ValidateRotate(degree int, d Direction) (Direction, error) {
	d = normalize(d)
	if d != Clockwise && d != CounterClockwise {
		return "", &InvalidArgError{Param: "direction", Msg: "must be in ['clockwise', 'counterclockwise']"}
	}
	if degree < MinDegree || degree > MaxDegree || degree%RotateStep != 0 {
		return "", &InvalidArgError{Param: "degree", Msg: "must be from 5 to 180 and must be divisible by 5"}
	}
	return d, nil
}

// ValidateTimes checks a repeat count.
func ValidateTimes(times int) error {
	if times < 1 {
		return &InvalidArgError{Param: "times", Msg: "must be at least 1"}
	}
	return nil
}

// Scroll builds a vertical one-finger drag from the middle of the screen.
// Up ends at a quarter of the height, down at three quarters.
func Scroll(vp Viewport, d Direction, x int) (Gesture, error) {
	d, err := ValidateScroll(d, x)
	if err != nil {
		return Gesture{}, err
	}
	if x == Center {
		x = vp.Width / 2
	}

	end := vp.Height / 4
	if d == Down {
		end = int(float64(vp.Height) / 4 * 3)
	}

	p := NewPath().
		Press(Point{X: x, Y: vp.Height / 2}).
		Wait(ScrollHold).
		MoveTo(Point{X: x, Y: end}).
		Release()
	return Gesture{Name: "scroll " + string(d), Fingers: []*Path{p}}, nil
}

// Swipe builds a horizontal one-finger drag from the middle of the screen.
// Right ends at a quarter of the width, left at three quarters.
func Swipe(vp Viewport, d Direction, y int) (Gesture, error) {
	d, err := ValidateSwipe(d, y)
	if err != nil {
		return Gesture{}, err
	}
	if y == Center {
		y = vp.Height / 2
	}

	end := vp.Width / 4
	if d == Left {
		end = int(float64(vp.Width) / 4 * 3)
	}

	p := NewPath().
		Press(Point{X: vp.Width / 2, Y: y}).
		Wait(ScrollHold).
		MoveTo(Point{X: end, Y: y}).
		Release()
	return Gesture{Name: "swipe " + string(d), Fingers: []*Path{p}}, nil
}

// PinchIn builds two fingers closing from the outer to the inner radius.
func PinchIn(vp Viewport) Gesture {
	return pinch("pinch-in", vp, PinchOuterRadius, PinchInnerRadius)
}

// PinchOut builds two fingers opening from the inner to the outer radius.
func PinchOut(vp Viewport) Gesture {
	return pinch("pinch-out", vp, PinchInnerRadius, PinchOuterRadius)
}

func pinch(name string, vp Viewport, from, to float64) Gesture {
	c := vp.Center()
	g := Gesture{Name: name}
	for _, angle := range PinchAngles {
		g.Fingers = append(g.Fingers, NewPath().
			Press(c.Polar(from, angle)).
			Wait(PinchHold).
			MoveTo(c.Polar(to, angle)).
			Release())
	}
	return g
}

// Rotate builds a two-finger rotation: an anchor tapped at the centre and a
// second finger sweeping an arc of RotateRadius in RotateStep increments,
// degree/RotateStep+1 points in total.
func Rotate(vp Viewport, degree int, d Direction) (Gesture, error) {
	d, err := ValidateRotate(degree, d)
	if err != nil {
		return Gesture{}, err
	}

	c := vp.Center()
	n := degree/RotateStep + 1
	arc := make([]Point, 0, n)
	for i := 0; i < n; i++ {
		step := float64(RotateStep * i)
		if d == CounterClockwise {
			arc = append(arc, c.Polar(RotateRadius, RotateStart+step))
		} else {
			// Reflection through the centre of the 225° ray, sweeping backwards.
			arc = append(arc, c.Polar(-RotateRadius, 180+RotateStart-step))
		}
	}

	anchor := NewPath().Press(c).Release()
	mover := NewPath().Press(arc[0]).Wait(PinchHold)
	for _, pt := range arc[1:] {
		mover.MoveTo(pt)
	}
	mover.Release()

	return Gesture{
		Name:    fmt.Sprintf("rotate %d degrees (%s)", degree, d),
		Fingers: []*Path{anchor, mover},
	}, nil
}
