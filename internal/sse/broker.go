// Package sse streams notices and note results to browser clients as
// Server-Sent Events.
package sse

import (
	"bytes"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// Event types sent to clients. Note results go out as note.<status>.
const (
	EventNotice          = "notice"
	EventInboxUpdated    = "inbox.updated"
	EventSettingsChanged = "settings.changed"
	notePrefix           = "note."
)

const (
	defaultInboxThrottle = 2 * time.Second
	clientBuffer         = 64
	heartbeatEvery       = 25 * time.Second
)

// Event is one message for every subscriber.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// frame renders the event in text/event-stream form.
func (e Event) frame() ([]byte, error) {
	data, err := json.Marshal(e.Data)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.Grow(len(e.Type) + len(data) + 16)
	buf.WriteString("event: ")
	buf.WriteString(e.Type)
	buf.WriteString("\ndata: ")
	buf.Write(data)
	buf.WriteString("\n\n")
	return buf.Bytes(), nil
}

// hub is the subscriber set. Only the broker goroutine touches it.
type hub struct {
	subscribers map[chan []byte]struct{}
	inboxEvery  time.Duration
	inboxSentAt time.Time
}

func (h *hub) send(e Event) {
	msg, err := e.frame()
	if err != nil {
		return
	}
	for ch := range h.subscribers {
		select {
		case ch <- msg:
		default:
			// subscriber is behind; it misses this message
		}
	}
}

// note sends note.<kind> and, for notes that changed the inbox, at most one
// inbox.updated per inboxEvery.
func (h *hub) note(kind, path string, at time.Time) {
	h.send(Event{Type: notePrefix + kind, Data: map[string]string{"path": path}})
	if kind == "skipped" || at.Sub(h.inboxSentAt) < h.inboxEvery {
		return
	}
	h.inboxSentAt = at
	h.send(Event{Type: EventInboxUpdated, Data: map[string]string{}})
}

func (h *hub) remove(ch chan []byte) {
	if _, ok := h.subscribers[ch]; !ok {
		return
	}
	delete(h.subscribers, ch)
	close(ch)
}

func (h *hub) closeAll() {
	for ch := range h.subscribers {
		close(ch)
	}
	clear(h.subscribers)
}

// Broker fans events out to subscribers. Every operation runs on one
// goroutine that owns the hub, so the hub needs no locking.
type Broker struct {
	ops      chan func(*hub)
	quit     chan struct{}
	done     chan struct{}
	quitOnce sync.Once
}

// NewBroker starts a broker that emits at most one inbox.updated event per
// inboxThrottle.
func NewBroker(inboxThrottle time.Duration) *Broker {
	if inboxThrottle <= 0 {
		inboxThrottle = defaultInboxThrottle
	}
	b := &Broker{
		ops:  make(chan func(*hub)),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	h := &hub{
		subscribers: make(map[chan []byte]struct{}),
		inboxEvery:  inboxThrottle,
	}
	go b.loop(h)
	return b
}

func (b *Broker) loop(h *hub) {
	defer close(b.done)
	for {
		select {
		case <-b.quit:
			h.closeAll()
			return
		case op := <-b.ops:
			op(h)
		}
	}
}

// do runs op on the broker goroutine and waits for it. It returns false when
// the broker is closed and op did not run.
func (b *Broker) do(op func(*hub)) bool {
	finished := make(chan struct{})
	select {
	case b.ops <- func(h *hub) { op(h); close(finished) }:
	case <-b.done:
		return false
	}
	<-finished
	return true
}

// Close disconnects every subscriber and stops the broker. Later calls are
// no-ops.
func (b *Broker) Close() {
	b.quitOnce.Do(func() { close(b.quit) })
	<-b.done
}

// Subscribe registers a client. The returned channel is closed by
// Unsubscribe or Close; on a closed broker it comes back already closed.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, clientBuffer)
	if !b.do(func(h *hub) { h.subscribers[ch] = struct{}{} }) {
		close(ch)
	}
	return ch
}

// Unsubscribe drops a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	b.do(func(h *hub) { h.remove(ch) })
}

// ClientCount returns the number of subscribers.
func (b *Broker) ClientCount() int {
	var n int
	b.do(func(h *hub) { n = len(h.subscribers) })
	return n
}

// Publish sends event to every subscriber.
func (b *Broker) Publish(event Event) {
	b.do(func(h *hub) { h.send(event) })
}

// Notify sends a user notice. It satisfies noteservice.Notifier.
func (b *Broker) Notify(msg string) {
	b.Publish(Event{Type: EventNotice, Data: map[string]string{"message": msg}})
}

// PublishNote reports a saved note as note.<kind>, followed by a throttled
// inbox.updated unless the note was skipped.
func (b *Broker) PublishNote(kind, path string) {
	at := time.Now()
	b.do(func(h *hub) { h.note(kind, path, at) })
}

// PublishSettings tells clients the default file-exists strategy changed.
func (b *Broker) PublishSettings(strategy string) {
	b.Publish(Event{Type: EventSettingsChanged, Data: map[string]string{"file_exists_strategy": strategy}})
}

// ServeHTTP streams events to one client until it disconnects or the broker
// closes. Idle streams get a comment line every heartbeatEvery.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events := b.Subscribe()
	defer b.Unsubscribe(events)

	heartbeat := time.NewTicker(heartbeatEvery)
	defer heartbeat.Stop()

	for {
		var msg []byte
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			msg = []byte(": ping\n\n")
		case m, open := <-events:
			if !open {
				return
			}
			msg = m
		}
		if _, err := w.Write(msg); err != nil {
			return
		}
		flusher.Flush()
	}
}
