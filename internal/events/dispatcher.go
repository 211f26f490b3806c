package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/designsafe-ci/portal-data/internal/logger"
)

// Event types sent by the webhooks.
const (
	TypeJob = "job"
	TypeVNC = "VNC"
)

// Event is one generic event. Users names the portal users the event is
// addressed to; it may be empty for broadcast events.
type Event struct {
	Sender string         `json:"sender,omitempty"`
	Type   string         `json:"event_type"`
	Data   map[string]any `json:"event_data"`
	Users  []string       `json:"event_users,omitempty"`
}

// Receiver handles one event.
type Receiver func(ctx context.Context, ev Event) error

// Result is the outcome of one receiver for one send.
type Result struct {
	Receiver string
	Err      error
}

// Dispatcher fans events out to named receivers.
type Dispatcher struct {
	mu        sync.RWMutex
	names     []string
	receivers map[string]Receiver
	log       *logger.Logger
}

func NewDispatcher(log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		receivers: make(map[string]Receiver),
		log:       log.With("service", "EventDispatcher"),
	}
}

// Connect registers r under name. Connecting the same name again replaces the
// receiver and keeps its position.
func (d *Dispatcher) Connect(name string, r Receiver) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.receivers[name]; !ok {
		d.names = append(d.names, name)
	}
	d.receivers[name] = r
}

// Disconnect removes the receiver registered under name.
func (d *Dispatcher) Disconnect(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.receivers[name]; !ok {
		return
	}
	delete(d.receivers, name)
	for i, n := range d.names {
		if n == name {
			d.names = append(d.names[:i], d.names[i+1:]...)
			break
		}
	}
}

// SendRobust calls every receiver in connection order. A failing or panicking
// receiver does not stop the others; its error is logged and reported.
func (d *Dispatcher) SendRobust(ctx context.Context, ev Event) []Result {
	d.mu.RLock()
	names := append([]string(nil), d.names...)
	receivers := make([]Receiver, len(names))
	for i, n := range names {
		receivers[i] = d.receivers[n]
	}
	d.mu.RUnlock()

	results := make([]Result, len(names))
	for i, r := range receivers {
		err := call(ctx, r, ev)
		if err != nil {
			d.log.Error("event receiver failed", "receiver", names[i], "event_type", ev.Type, "error", err)
		}
		results[i] = Result{Receiver: names[i], Err: err}
	}
	return results
}

func call(ctx context.Context, r Receiver, ev Event) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("receiver panic: %v", p)
		}
	}()
	return r(ctx, ev)
}
