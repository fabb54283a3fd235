package broker

import (
	"sync"

	"github.com/classtrade/classtrade/core/events"
	"github.com/classtrade/classtrade/logging"
)

// Subscriber receives events pushed through the broker. Persistence and
// market-data delivery live behind this interface, outside the engine's
// critical section.
type Subscriber interface {
	Push(evts ...events.Event)
	Types() []events.Type
	SetID(id int)
	ID() int
}

type subscription struct {
	Subscriber
}

// Broker fans engine events out to typed subscribers. Sends happen after the
// per-session critical section, so a slow subscriber can delay delivery but
// never the book.
type Broker struct {
	log *logging.Logger

	mu sync.Mutex
	// all subscribers by id, used for unsubscribe bookkeeping
	subs map[int]subscription
	// subscribers by the event type they asked for
	tSubs map[events.Type]map[int]*subscription
	seq   uint64
	// id sequence ensures unique ids regardless of subscribed types
	lastID int
}

// New creates a new base broker.
func New(log *logging.Logger, config Config) *Broker {
	log = log.Named(namedLogger)
	log.SetLevel(config.Level.Get())

	return &Broker{
		log:   log,
		subs:  map[int]subscription{},
		tSubs: map[events.Type]map[int]*subscription{},
	}
}

// Subscribe registers a subscriber for the event types it reports, returning
// its id for Unsubscribe.
func (b *Broker) Subscribe(s Subscriber) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastID++
	s.SetID(b.lastID)
	sub := subscription{Subscriber: s}
	b.subs[b.lastID] = sub

	types := s.Types()
	if len(types) == 0 {
		types = []events.Type{events.All}
	}
	for _, t := range types {
		if _, ok := b.tSubs[t]; !ok {
			b.tSubs[t] = map[int]*subscription{}
		}
		b.tSubs[t][b.lastID] = &sub
	}
	return b.lastID
}

// Unsubscribe removes the subscriber, a no-op for unknown keys.
func (b *Broker) Unsubscribe(k int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[k]; !ok {
		return
	}
	delete(b.subs, k)
	for _, subs := range b.tSubs {
		delete(subs, k)
	}
}

// Send delivers a single event.
func (b *Broker) Send(event events.Event) {
	b.SendBatch([]events.Event{event})
}

// SendBatch delivers a batch of events in order, stamping each with a
// monotonic sequence number.
func (b *Broker) SendBatch(evts []events.Event) {
	if len(evts) == 0 {
		return
	}

	// snapshot the per-event targets so pushes run without the broker lock
	targets := make([][]Subscriber, len(evts))
	b.mu.Lock()
	for i, e := range evts {
		b.seq++
		e.SetSequenceID(b.seq)
		seen := make(map[int]struct{})
		for id, sub := range b.tSubs[e.Type()] {
			targets[i] = append(targets[i], sub.Subscriber)
			seen[id] = struct{}{}
		}
		for id, sub := range b.tSubs[events.All] {
			if _, ok := seen[id]; !ok {
				targets[i] = append(targets[i], sub.Subscriber)
			}
		}
	}
	b.mu.Unlock()

	for i, e := range evts {
		for _, sub := range targets[i] {
			sub.Push(e)
		}
	}
}
