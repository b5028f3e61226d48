// Package live pushes change notifications to a musician's open browser
// tabs over websockets.
//
// The Hub owns all subscriber bookkeeping in one goroutine; Register,
// Unregister and Publish hand work to it over channels. Each subscriber has
// a buffered outbox drained by its own write pump, so a stalled socket never
// holds up the hub or other subscribers.
package live

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Event types published by the services.
const (
	SongCreated    = "song.created"
	SongUpdated    = "song.updated"
	SongDeleted    = "song.deleted"
	SetlistCreated = "setlist.created"
	SetlistUpdated = "setlist.updated"
	SetlistDeleted = "setlist.deleted"
)

// Event is one change notification.
type Event struct {
	Type string    `json:"type"`
	ID   string    `json:"id"`
	At   time.Time `json:"at"`
}

// Subscriber is one open connection. Send may block; the hub calls it only
// from the subscriber's own write pump.
type Subscriber interface {
	ID() string
	Send([]byte) error
	Close()
}

// sendBuffer is how many events a subscriber may fall behind before the hub
// drops it.
const sendBuffer = 16

// outbox queues payloads for one subscriber. Only the hub loop closes quit.
type outbox struct {
	owner string
	sub   Subscriber
	send  chan []byte
	quit  chan struct{}
}

type subscription struct {
	owner  string
	client Subscriber
}

type message struct {
	owner   string
	payload []byte
}

type countReq struct {
	owner string
	reply chan int
}

// Hub routes events to the subscribers of each owner.
type Hub struct {
	logger    *zap.Logger
	clients   map[string]map[Subscriber]*outbox
	register  chan subscription
	unreg     chan subscription
	broadcast chan message
	count     chan countReq
	done      chan struct{}
	stopped   chan struct{}
	pumps     sync.WaitGroup
	closeOnce sync.Once
}

// NewHub creates a Hub and starts its loop. Call Close on shutdown.
func NewHub(logger *zap.Logger) *Hub {
	h := &Hub{
		logger:    logger,
		clients:   make(map[string]map[Subscriber]*outbox),
		register:  make(chan subscription),
		unreg:     make(chan subscription),
		broadcast: make(chan message, 64),
		count:     make(chan countReq),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	defer close(h.stopped)
	for {
		select {
		case <-h.done:
			for _, set := range h.clients {
				for _, ob := range set {
					close(ob.quit)
				}
			}
			h.clients = nil
			return
		case sub := <-h.register:
			set, ok := h.clients[sub.owner]
			if !ok {
				set = make(map[Subscriber]*outbox)
				h.clients[sub.owner] = set
			}
			if _, dup := set[sub.client]; dup {
				continue
			}
			ob := &outbox{
				owner: sub.owner,
				sub:   sub.client,
				send:  make(chan []byte, sendBuffer),
				quit:  make(chan struct{}),
			}
			set[sub.client] = ob
			h.pumps.Add(1)
			go h.pump(ob)
			h.logger.Debug("live subscriber registered",
				zap.String("owner", sub.owner),
				zap.String("conn", sub.client.ID()),
				zap.Int("owner_conns", len(set)))
		case sub := <-h.unreg:
			h.remove(sub.owner, sub.client)
		case msg := <-h.broadcast:
			for c, ob := range h.clients[msg.owner] {
				select {
				case ob.send <- msg.payload:
				default:
					h.logger.Debug("dropping slow live subscriber", zap.String("conn", c.ID()))
					h.remove(msg.owner, c)
				}
			}
		case req := <-h.count:
			req.reply <- len(h.clients[req.owner])
		}
	}
}

// remove forgets c and stops its pump. Runs on the hub loop.
func (h *Hub) remove(owner string, c Subscriber) {
	set, ok := h.clients[owner]
	if !ok {
		return
	}
	if ob, ok := set[c]; ok {
		close(ob.quit)
		delete(set, c)
	}
	if len(set) == 0 {
		delete(h.clients, owner)
	}
}

// pump writes queued payloads to one subscriber and closes it on exit. A
// failed write unregisters the subscriber.
func (h *Hub) pump(ob *outbox) {
	defer h.pumps.Done()
	defer ob.sub.Close()
	for {
		select {
		case <-ob.quit:
			return
		case payload := <-ob.send:
			if err := ob.sub.Send(payload); err != nil {
				h.logger.Debug("dropping live subscriber",
					zap.String("conn", ob.sub.ID()), zap.Error(err))
				ob.sub.Close()
				h.Unregister(ob.owner, ob.sub)
				return
			}
		}
	}
}

// Register adds a subscriber for owner. It is a no-op after Close.
func (h *Hub) Register(owner string, c Subscriber) {
	select {
	case h.register <- subscription{owner: owner, client: c}:
	case <-h.done:
		c.Close()
	}
}

// Unregister removes a subscriber.
func (h *Hub) Unregister(owner string, c Subscriber) {
	select {
	case h.unreg <- subscription{owner: owner, client: c}:
	case <-h.done:
	}
}

// Publish sends ev to every subscriber of owner. A nil Hub drops events.
func (h *Hub) Publish(owner string, ev Event) {
	if h == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		h.logger.Warn("failed to marshal live event", zap.Error(err))
		return
	}
	select {
	case h.broadcast <- message{owner: owner, payload: payload}:
	case <-h.done:
	}
}

// Connections returns the number of open subscribers for owner.
func (h *Hub) Connections(owner string) int {
	reply := make(chan int, 1)
	select {
	case h.count <- countReq{owner: owner, reply: reply}:
		return <-reply
	case <-h.done:
		return 0
	}
}

// Close stops the loop and closes every subscriber. It waits for the loop
// and every write pump to exit and is safe to call more than once.
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
	<-h.stopped
	h.pumps.Wait()
}
