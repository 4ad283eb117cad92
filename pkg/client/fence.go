package client

import "sync"

// Fence discards stale responses. Each request on a channel takes a ticket;
// only the ticket issued last on that channel is current, so a slow response
// that arrives after a newer request was issued is dropped.
type Fence struct {
	mu     sync.Mutex
	latest map[string]uint64
}

// Ticket identifies one request on a channel.
type Ticket struct {
	Channel string
	ID      uint64
}

// NewFence returns an empty fence.
func NewFence() *Fence {
	return &Fence{latest: make(map[string]uint64)}
}

// Begin issues the next ticket for channel.
func (f *Fence) Begin(channel string) Ticket {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.latest[channel]++
	return Ticket{Channel: channel, ID: f.latest[channel]}
}

// Current reports whether t is the newest ticket on its channel.
func (f *Fence) Current(t Ticket) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.latest[t.Channel] == t.ID
}
