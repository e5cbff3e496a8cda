// Package sse streams order updates to browsers over Server-Sent Events. It
// is the fallback for clients that cannot hold a websocket open.
//
//	broker := sse.NewBroker()
//	router.Get("/orders/stream", "orders.stream", func(w http.ResponseWriter, r *http.Request) {
//	    broker.Serve(w, r, userID)
//	})
//	broker.Publish(userID, update)
package sse

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// ErrNotSupported is returned by Serve when the writer cannot flush.
var ErrNotSupported = errors.New("sse: streaming not supported")

// Stream is one open SSE response.
type Stream struct {
	w  http.ResponseWriter
	rc *http.ResponseController
}

// NewStream sets the event-stream headers and returns the stream. The
// server's write deadline is lifted for the life of the response.
func NewStream(w http.ResponseWriter) (*Stream, error) {
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return nil, err
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // disable nginx buffering
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		return nil, ErrNotSupported
	}
	return &Stream{w: w, rc: rc}, nil
}

// Send writes a named event with a JSON payload.
func (s *Stream) Send(event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("sse: marshal: %w", err)
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return err
	}
	return s.rc.Flush()
}

// Comment writes an SSE comment line, used as a heartbeat.
func (s *Stream) Comment(msg string) error {
	if _, err := fmt.Fprintf(s.w, ": %s\n\n", msg); err != nil {
		return err
	}
	return s.rc.Flush()
}

// Broker fans published values out to every open stream of a user.
type Broker struct {
	mu   sync.Mutex
	subs map[string]map[chan any]struct{}

	// Event names each Send. Heartbeat is the comment interval.
	Event     string
	Heartbeat time.Duration
}

func NewBroker() *Broker {
	return &Broker{
		subs:      make(map[string]map[chan any]struct{}),
		Event:     "order",
		Heartbeat: 25 * time.Second,
	}
}

// Subscribe registers a buffered channel for userID. Call cancel to drop it.
func (b *Broker) Subscribe(userID string) (<-chan any, func()) {
	ch := make(chan any, 16)
	b.mu.Lock()
	if b.subs[userID] == nil {
		b.subs[userID] = make(map[chan any]struct{})
	}
	b.subs[userID][ch] = struct{}{}
	b.mu.Unlock()

	return ch, func() {
		b.mu.Lock()
		delete(b.subs[userID], ch)
		if len(b.subs[userID]) == 0 {
			delete(b.subs, userID)
		}
		b.mu.Unlock()
	}
}

// Publish delivers v to every subscriber of userID. A subscriber whose
// buffer is full misses the value.
func (b *Broker) Publish(userID string, v any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[userID] {
		select {
		case ch <- v:
		default:
		}
	}
	return nil
}

// Subscribers reports how many streams userID has open.
func (b *Broker) Subscribers(userID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[userID])
}

// Serve streams userID's updates until the client goes away.
func (b *Broker) Serve(w http.ResponseWriter, r *http.Request, userID string) error {
	stream, err := NewStream(w)
	if err != nil {
		return err
	}
	ch, cancel := b.Subscribe(userID)
	defer cancel()

	ticker := time.NewTicker(b.Heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return nil
		case <-ticker.C:
			if err := stream.Comment("ping"); err != nil {
				return err
			}
		case v := <-ch:
			if err := stream.Send(b.Event, v); err != nil {
				return err
			}
		}
	}
}
