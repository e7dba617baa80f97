// Package notify fans trading events out to external sinks (Telegram,
// the process log) without ever blocking the engine loop.
package notify

import (
	"fmt"
	"log"
	"sync"
	"time"
)

type Kind string

const (
	KindStart         Kind = "start"
	KindStop          Kind = "stop"
	KindEntry         Kind = "entry"
	KindExit          Kind = "exit"
	KindRecalibration Kind = "recalibration"
	KindError         Kind = "error"
)

type Event struct {
	Kind   Kind
	Ticker string
	Time   time.Time
	Text   string
}

// Sink delivers a single formatted message. Implementations may block;
// the Notifier runs them off the hot path.
type Sink interface {
	SendText(text string) error
}

// Notifier buffers events on a bounded channel and delivers them from a
// single worker goroutine. Publish never blocks: when the buffer is full
// the event is dropped and counted.
type Notifier struct {
	sinks   []Sink
	events  chan Event
	done    chan struct{}
	once    sync.Once
	mu      sync.Mutex
	dropped int
}

func New(buffer int, sinks ...Sink) *Notifier {
	if buffer <= 0 {
		buffer = 64
	}
	n := &Notifier{
		sinks:  sinks,
		events: make(chan Event, buffer),
		done:   make(chan struct{}),
	}
	go n.run()
	return n
}

func (n *Notifier) Publish(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	select {
	case n.events <- ev:
	default:
		n.mu.Lock()
		n.dropped++
		n.mu.Unlock()
	}
}

// Dropped reports how many events were discarded because the buffer was full.
func (n *Notifier) Dropped() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.dropped
}

// Close stops the worker after draining buffered events.
func (n *Notifier) Close() {
	n.once.Do(func() {
		close(n.events)
		<-n.done
	})
}

func (n *Notifier) run() {
	defer close(n.done)
	for ev := range n.events {
		text := Format(ev)
		for _, s := range n.sinks {
			if err := s.SendText(text); err != nil {
				log.Printf("notify: send failed: %v", err)
			}
		}
	}
}

// Format renders an event as a Markdown message with the ticker in bold,
// e.g. "*GAZP* entered 476 @ 105.00".
func Format(ev Event) string {
	if ev.Ticker == "" {
		return ev.Text
	}
	return fmt.Sprintf("*%s* %s", ev.Ticker, ev.Text)
}
