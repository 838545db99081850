package overlay

import (
	"context"
	"fmt"
	"image"
	"log"

	"snip-ocr/src/input"
	"snip-ocr/src/screenshot"
	"snip-ocr/src/selection"
)

// escapeRawcode is VK_ESCAPE; releasing the gesture with Escape cancels it.
const escapeRawcode = 27

// Selector defines a synchronous region-selection API owned by the event loop.
// The call is blocking and MUST be invoked only from the single event-loop goroutine.
// Returns (region, cancelled, error). If cancelled is true, region is undefined and err is nil.
type Selector interface {
	Select(ctx context.Context) (screenshot.Region, bool, error)
}

// NewSelector returns a selector that tracks a rubber-band drag from the
// global input stream.
func NewSelector(hub *input.Hub) Selector {
	return &hookSelector{hub: hub}
}

type hookSelector struct {
	hub *input.Hub
	// bounds overrides the virtual-screen query when non-empty (tests).
	bounds image.Rectangle
}

// Select waits for the user to drag a rectangle anywhere on the virtual
// screen. Releases spanning 10 pixels or less in either dimension are
// discarded and the wait continues; Escape cancels.
func (s *hookSelector) Select(ctx context.Context) (screenshot.Region, bool, error) {
	bounds := s.bounds
	if bounds.Empty() {
		var err error
		bounds, err = screenshot.VirtualBounds()
		if err != nil {
			return screenshot.Region{}, false, fmt.Errorf("cannot determine screen bounds: %w", err)
		}
	}

	machine := selection.NewMachine(bounds)
	id, events := s.hub.Subscribe()
	defer s.hub.Unsubscribe(id)

	log.Printf("overlay: waiting for region drag within %v", bounds)
	for {
		select {
		case <-ctx.Done():
			return screenshot.Region{}, true, nil
		case ev, ok := <-events:
			if !ok {
				return screenshot.Region{}, false, fmt.Errorf("input stream closed during selection")
			}
			if ev.Kind == input.KeyDown && ev.Rawcode == escapeRawcode {
				log.Printf("overlay: selection cancelled")
				return screenshot.Region{}, true, nil
			}
			sev, ok := toSelectionEvent(ev)
			if !ok {
				continue
			}
			if machine.Handle(sev) {
				region := machine.Region()
				log.Printf("overlay: region selected: %+v", region)
				return region, false, nil
			}
		}
	}
}

func toSelectionEvent(ev input.Event) (selection.Event, bool) {
	switch ev.Kind {
	case input.MouseDown:
		return selection.Event{Kind: selection.PointerDown, X: ev.X, Y: ev.Y}, true
	case input.MouseMove, input.MouseDrag:
		return selection.Event{Kind: selection.PointerMove, X: ev.X, Y: ev.Y}, true
	case input.MouseUp:
		return selection.Event{Kind: selection.PointerUp, X: ev.X, Y: ev.Y}, true
	default:
		return selection.Event{}, false
	}
}
