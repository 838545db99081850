package selection

import (
	"image"

	"snip-ocr/src/screenshot"
)

// minSelectionSpan rejects stray clicks: a drag must exceed this many pixels
// in both dimensions to count as a selection.
const minSelectionSpan = 10

// State identifies where the machine is in the drag gesture.
type State int

const (
	Idle State = iota
	Selecting
	Captured
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Selecting:
		return "selecting"
	case Captured:
		return "captured"
	default:
		return "unknown"
	}
}

// Event is a pointer or keyboard input driving the machine.
type Event struct {
	Kind EventKind
	X    int
	Y    int
}

type EventKind int

const (
	PointerDown EventKind = iota
	PointerMove
	PointerUp
	Cancel
)

// Machine tracks a single rubber-band drag over a captured raster. It is
// pure state: feed it events, read the resulting region. Rendering and event
// delivery live elsewhere.
type Machine struct {
	bounds image.Rectangle
	state  State
	startX int
	startY int
	curX   int
	curY   int
	region screenshot.Region
}

// NewMachine creates a machine for a capture with the given bounds. Selections
// are clipped to these bounds.
func NewMachine(bounds image.Rectangle) *Machine {
	return &Machine{bounds: bounds, state: Idle}
}

// State reports the current gesture state.
func (m *Machine) State() State { return m.state }

// Region returns the captured selection. Valid only when State() == Captured.
func (m *Machine) Region() screenshot.Region { return m.region }

// Current returns the in-progress rectangle for overlay rendering while
// Selecting.
func (m *Machine) Current() image.Rectangle {
	return normalize(m.startX, m.startY, m.curX, m.curY).Intersect(m.bounds)
}

// Handle feeds one event into the machine. It returns true when the event
// completed a selection (the machine entered Captured); the region is then
// available via Region. A release below the minimum span discards the gesture
// and returns the machine to Idle with no output.
func (m *Machine) Handle(ev Event) bool {
	switch ev.Kind {
	case PointerDown:
		if m.state != Idle {
			return false
		}
		m.state = Selecting
		m.startX, m.startY = ev.X, ev.Y
		m.curX, m.curY = ev.X, ev.Y

	case PointerMove:
		if m.state != Selecting {
			return false
		}
		m.curX, m.curY = ev.X, ev.Y

	case PointerUp:
		if m.state != Selecting {
			return false
		}
		m.curX, m.curY = ev.X, ev.Y
		rect := normalize(m.startX, m.startY, m.curX, m.curY).Intersect(m.bounds)
		if rect.Dx() <= minSelectionSpan || rect.Dy() <= minSelectionSpan {
			// Stray click or sliver; discard silently.
			m.state = Idle
			return false
		}
		m.region = screenshot.Region{X: rect.Min.X, Y: rect.Min.Y, Width: rect.Dx(), Height: rect.Dy()}
		m.state = Captured
		return true

	case Cancel:
		m.state = Idle
	}
	return false
}

// Reset returns the machine to Idle, dropping any captured region.
func (m *Machine) Reset() {
	m.state = Idle
	m.region = screenshot.Region{}
}

func normalize(x0, y0, x1, y1 int) image.Rectangle {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	return image.Rect(x0, y0, x1, y1)
}
