package input

import (
	"fmt"
	"log"
	"sync"

	gohook "github.com/robotn/gohook"
)

// EventKind classifies a global input event.
type EventKind int

const (
	KeyDown EventKind = iota
	KeyUp
	MouseDown
	MouseUp
	MouseMove
	MouseDrag
)

// Event is a normalized global input event. Pointer coordinates are in
// virtual-screen space.
type Event struct {
	Kind    EventKind
	X       int
	Y       int
	Rawcode uint16
	Button  uint16
}

// Hub owns the single gohook capture stream and fans events out to
// subscribers. gohook only supports one Start per process, so everything that
// needs global input (hotkey matching, region selection) subscribes here.
type Hub struct {
	mu      sync.Mutex
	subs    map[int]chan Event
	nextID  int
	started bool
	done    chan struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan Event)}
}

// Start begins capturing global input events. Safe to call once; subsequent
// calls are errors.
func (h *Hub) Start() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.started {
		return fmt.Errorf("input hub already started")
	}

	evChan := gohook.Start()
	if evChan == nil {
		return fmt.Errorf("gohook.Start returned nil channel")
	}
	h.started = true
	h.done = make(chan struct{})

	go func() {
		defer close(h.done)
		for ev := range evChan {
			out, ok := translate(ev)
			if !ok {
				continue
			}
			h.broadcast(out)
		}
		log.Printf("input: gohook event channel closed")
	}()

	return nil
}

// Stop ends global capture and waits for the fan-out goroutine to drain.
func (h *Hub) Stop() {
	h.mu.Lock()
	started := h.started
	h.started = false
	h.mu.Unlock()
	if !started {
		return
	}
	gohook.End()
	<-h.done
}

// Subscribe registers a new event consumer. Events are delivered on a
// buffered channel; a slow consumer loses events rather than stalling the
// capture stream.
func (h *Hub) Subscribe() (int, <-chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	ch := make(chan Event, 256)
	h.subs[id] = ch
	return id, ch
}

// Unsubscribe removes a consumer and closes its channel.
func (h *Hub) Unsubscribe(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(ch)
	}
}

func (h *Hub) broadcast(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			// Drop instead of blocking the capture stream.
		}
	}
}

// Inject delivers a synthetic event to all subscribers. Used by tests to
// drive selection and hotkey flows without a real input device.
func (h *Hub) Inject(ev Event) {
	h.broadcast(ev)
}

func translate(ev gohook.Event) (Event, bool) {
	switch ev.Kind {
	case gohook.KeyDown, gohook.KeyHold:
		return Event{Kind: KeyDown, Rawcode: ev.Rawcode}, true
	case gohook.KeyUp:
		return Event{Kind: KeyUp, Rawcode: ev.Rawcode}, true
	case gohook.MouseDown:
		return Event{Kind: MouseDown, X: int(ev.X), Y: int(ev.Y), Button: ev.Button}, true
	case gohook.MouseUp:
		return Event{Kind: MouseUp, X: int(ev.X), Y: int(ev.Y), Button: ev.Button}, true
	case gohook.MouseMove:
		return Event{Kind: MouseMove, X: int(ev.X), Y: int(ev.Y)}, true
	case gohook.MouseDrag:
		return Event{Kind: MouseDrag, X: int(ev.X), Y: int(ev.Y)}, true
	default:
		return Event{}, false
	}
}

// Default is the process-wide hub used by the resident application.
var Default = NewHub()
