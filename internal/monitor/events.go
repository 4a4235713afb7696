package monitor

import "sync"

// EventKind identifies a notification channel.
type EventKind int

const (
	EventProgress EventKind = iota
	EventCompleted
	EventStopped
)

var eventKindNames = [...]string{"progress", "completed", "stopped"}

func (k EventKind) String() string {
	if k >= 0 && int(k) < len(eventKindNames) {
		return eventKindNames[k]
	}
	return "unknown"
}

// Event is one notification. Similarity is unset for EventStopped.
type Event struct {
	Kind       EventKind
	Similarity float64
}

// Observer receives monitor notifications. Per session the order is zero or
// more OnProgress, then either OnStopped (manual stop) or OnCompleted right
// after the OnProgress that reached the threshold. A completed session gets
// OnCompleted in place of OnStopped, never both.
//
// Callbacks run on a single delivery goroutine, one at a time, and may call
// Start, Stop or Configure. They must not call Close.
type Observer interface {
	OnProgress(similarity float64)
	OnCompleted(similarity float64)
	OnStopped()
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	Progress  func(similarity float64)
	Completed func(similarity float64)
	Stopped   func()
}

func (f ObserverFuncs) OnProgress(s float64) {
	if f.Progress != nil {
		f.Progress(s)
	}
}

func (f ObserverFuncs) OnCompleted(s float64) {
	if f.Completed != nil {
		f.Completed(s)
	}
}

func (f ObserverFuncs) OnStopped() {
	if f.Stopped != nil {
		f.Stopped()
	}
}

// dispatcher delivers events in enqueue order on one goroutine.
type dispatcher struct {
	mu        sync.Mutex
	queue     []Event
	observers []Observer
	closed    bool
	wake      chan struct{}
	done      chan struct{}
}

func newDispatcher() *dispatcher {
	d := &dispatcher{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *dispatcher) subscribe(o Observer) {
	d.mu.Lock()
	d.observers = append(d.observers, o)
	d.mu.Unlock()
}

// enqueue never blocks. Events after close are dropped.
func (d *dispatcher) enqueue(e Event) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.queue = append(d.queue, e)
	d.mu.Unlock()
	d.signal()
}

func (d *dispatcher) signal() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

func (d *dispatcher) run() {
	defer close(d.done)
	for {
		d.mu.Lock()
		for len(d.queue) == 0 {
			if d.closed {
				d.mu.Unlock()
				return
			}
			d.mu.Unlock()
			<-d.wake
			d.mu.Lock()
		}
		batch := d.queue
		d.queue = nil
		observers := append([]Observer(nil), d.observers...)
		d.mu.Unlock()

		for _, e := range batch {
			for _, o := range observers {
				deliver(o, e)
			}
		}
	}
}

// close delivers what is queued, then stops the goroutine and waits for it.
func (d *dispatcher) close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.signal()
	<-d.done
}

func deliver(o Observer, e Event) {
	switch e.Kind {
	case EventProgress:
		o.OnProgress(e.Similarity)
	case EventCompleted:
		o.OnCompleted(e.Similarity)
	case EventStopped:
		o.OnStopped()
	}
}
