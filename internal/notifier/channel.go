package notifier

import (
	"fmt"
	"sync"
	"time"

	"dexbot/internal/model"
)

// Transport sends one rendered text to a chat destination.
type Transport interface {
	Send(channelID, text string) error
}

// DeliveryErrorKind classifies a failed delivery.
type DeliveryErrorKind string

const (
	// DeliveryTransport is a chat-transport failure. The channel performs
	// no retry; that policy belongs to the dispatcher.
	DeliveryTransport DeliveryErrorKind = "TRANSPORT"
)

// DeliveryError wraps a transport failure for one message.
type DeliveryError struct {
	Kind DeliveryErrorKind
	Err  error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver message (%s): %v", e.Kind, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

type dedupEntry struct {
	key string
	at  time.Time
}

// Channel delivers rendered messages to the chat transport with per-target
// ordering and at-least-once semantics backed by a bounded dedup window.
type Channel struct {
	transport Transport
	maxKeys   int
	window    time.Duration

	mu    sync.Mutex // guards seen and order, shared by every delivery path
	seen  map[string]time.Time
	order []dedupEntry

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex

	now func() time.Time // test hook
}

// NewChannel creates a delivery channel. The dedup window keeps at most
// maxKeys recent keys, each for at most window.
func NewChannel(transport Transport, maxKeys int, window time.Duration) *Channel {
	return &Channel{
		transport: transport,
		maxKeys:   maxKeys,
		window:    window,
		seen:      make(map[string]time.Time),
		locks:     make(map[string]*sync.Mutex),
		now:       time.Now,
	}
}

// Deliver sends one message. A dedup key already seen inside the window is
// treated as delivered and returns success without a transport call.
// Deliveries to the same target channel are serialized in submission order;
// the transport only guarantees ordering within a single call.
func (c *Channel) Deliver(msg *model.RenderedMessage) error {
	lock := c.targetLock(msg.TargetChannelID)
	lock.Lock()
	defer lock.Unlock()

	if c.alreadyDelivered(msg.DedupKey) {
		return nil
	}
	if err := c.transport.Send(msg.TargetChannelID, msg.Text); err != nil {
		return &DeliveryError{Kind: DeliveryTransport, Err: err}
	}
	// Marked only after a successful send, so a dispatcher retry of a
	// failed delivery is not suppressed.
	c.markDelivered(msg.DedupKey)
	return nil
}

func (c *Channel) targetLock(channelID string) *sync.Mutex {
	c.lockMu.Lock()
	defer c.lockMu.Unlock()
	lock, ok := c.locks[channelID]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[channelID] = lock
	}
	return lock
}

func (c *Channel) alreadyDelivered(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evict()
	at, ok := c.seen[key]
	return ok && c.now().Sub(at) < c.window
}

func (c *Channel) markDelivered(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen[key] = c.now()
	c.order = append(c.order, dedupEntry{key: key, at: c.seen[key]})
	c.evict()
}

// evict trims the window to maxKeys entries, dropping expired keys first.
// Callers hold c.mu.
func (c *Channel) evict() {
	cutoff := c.now().Add(-c.window)
	for len(c.order) > 0 && (len(c.order) > c.maxKeys || c.order[0].at.Before(cutoff)) {
		old := c.order[0]
		c.order = c.order[1:]
		// Only delete if the map entry still belongs to this insertion;
		// a re-send after expiry refreshes the timestamp.
		if at, ok := c.seen[old.key]; ok && at.Equal(old.at) {
			delete(c.seen, old.key)
		}
	}
}
