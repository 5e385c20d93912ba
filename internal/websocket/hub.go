package websocket

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/frostdev-ops/home-planner-go/internal/config"
	"github.com/frostdev-ops/home-planner-go/internal/core/metrics"
	"github.com/frostdev-ops/home-planner-go/internal/database/repositories"
	"github.com/frostdev-ops/home-planner-go/internal/publisher"
	"github.com/sirupsen/logrus"
)

var (
	errTooManySubscriptions = errors.New("too many subscriptions")
	errMissingID            = errors.New("subscription_id is required")
)

// Source provides the records and derived views behind subscriptions
type Source interface {
	List(ctx context.Context, collection string, q repositories.Query) (interface{}, error)
	View(ctx context.Context, name string) (interface{}, bool, error)
}

// Options tunes connection handling
type Options struct {
	PingInterval     time.Duration
	PongTimeout      time.Duration
	WriteTimeout     time.Duration
	MaxSubscriptions int
	SendBufferSize   int
	AllowedOrigins   []string
	Metrics          metrics.Collector
}

// OptionsFromConfig converts the websocket configuration section
func OptionsFromConfig(cfg config.WebSocketConfig, allowedOrigins []string, collector metrics.Collector) Options {
	return Options{
		PingInterval:     time.Duration(cfg.PingInterval) * time.Second,
		PongTimeout:      time.Duration(cfg.PongTimeout) * time.Second,
		WriteTimeout:     time.Duration(cfg.WriteTimeout) * time.Second,
		MaxSubscriptions: cfg.MaxSubscriptions,
		SendBufferSize:   cfg.SendBufferSize,
		AllowedOrigins:   allowedOrigins,
		Metrics:          collector,
	}
}

func (o Options) withDefaults() Options {
	if o.PongTimeout <= 0 {
		o.PongTimeout = 60 * time.Second
	}
	if o.PingInterval <= 0 || o.PingInterval >= o.PongTimeout {
		o.PingInterval = (o.PongTimeout * 9) / 10
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 10 * time.Second
	}
	if o.MaxSubscriptions <= 0 {
		o.MaxSubscriptions = 32
	}
	if o.SendBufferSize <= 0 {
		o.SendBufferSize = 256
	}
	if o.Metrics == nil {
		o.Metrics = metrics.NoopCollector{}
	}
	return o
}

type subscription struct {
	id         string
	collection string
	view       string
	query      repositories.Query
}

// affectedBy reports whether a change to collection invalidates the snapshot.
// Views depend on every collection.
func (s subscription) affectedBy(collection string) bool {
	return s.view != "" || s.collection == collection
}

func (s subscription) key() string {
	if s.view != "" {
		return ViewPrefix + s.view
	}
	key := fmt.Sprintf("%s|%s|%s", s.collection, s.query.OrderBy, s.query.Direction)
	if s.query.Where != nil {
		key += fmt.Sprintf("|%s=%v", s.query.Where.Field, s.query.Where.Equals)
	}
	return key
}

type clientRequest struct {
	client *Client
	req    Request
}

type snapshot struct {
	data interface{}
	err  error
}

// Hub keeps the subscriptions of every connected client and pushes a full
// snapshot whenever a change affects one of them. Snapshots are computed on the
// hub goroutine only, so each client sees them in commit order.
type Hub struct {
	source Source
	opts   Options
	logger *logrus.Logger

	// Registered clients, owned by the Run goroutine
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client
	requests   chan clientRequest
	changes    chan publisher.ChangeEvent
	done       chan struct{}

	// overflow is set when a change could not be queued; the next refresh
	// then recomputes every subscription
	overflow atomic.Bool

	mu    sync.RWMutex
	stats HubStats
}

// HubStats contains hub statistics
type HubStats struct {
	ConnectedClients int       `json:"connected_clients"`
	Subscriptions    int       `json:"subscriptions"`
	TotalConnections int64     `json:"total_connections"`
	MessagesSent     int64     `json:"messages_sent"`
	MessagesReceived int64     `json:"messages_received"`
	LastActivity     time.Time `json:"last_activity"`
}

// NewHub creates a new WebSocket hub
func NewHub(source Source, opts Options, logger *logrus.Logger) *Hub {
	return &Hub{
		source:     source,
		opts:       opts.withDefaults(),
		logger:     logger,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		requests:   make(chan clientRequest, 64),
		changes:    make(chan publisher.ChangeEvent, 256),
		done:       make(chan struct{}),
		stats:      HubStats{LastActivity: time.Now()},
	}
}

// Publish queues a committed change. It never blocks the writer.
func (h *Hub) Publish(_ context.Context, event publisher.ChangeEvent) error {
	select {
	case h.changes <- event:
	default:
		h.overflow.Store(true)
		h.logger.WithField("collection", event.Collection).Warn("WebSocket change queue is full, scheduling full refresh")
	}
	return nil
}

// Run serves registrations, requests and changes until ctx is done
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("WebSocket hub started")
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.removeClient(client)
			}
			h.logger.Info("WebSocket hub stopped")
			return

		case client := <-h.register:
			h.addClient(client)

		case client := <-h.unregister:
			h.removeClient(client)

		case r := <-h.requests:
			h.handleRequest(ctx, r)

		case event := <-h.changes:
			changed, all := h.drain(event)
			h.refresh(ctx, changed, all)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.clients[client] = true
	h.updateStats(func(s *HubStats) {
		s.TotalConnections++
		s.ConnectedClients = len(h.clients)
	})
	h.opts.Metrics.RecordWebSocketConnection("connect")

	h.logger.WithFields(logrus.Fields{
		"client_id":         client.ID,
		"remote_addr":       client.RemoteAddr,
		"connected_clients": len(h.clients),
	}).Info("WebSocket client connected")

	h.send(client, Message{
		Type: MessageTypeConnection,
		Data: map[string]interface{}{
			"status":    "connected",
			"client_id": client.ID,
		},
	})
}

func (h *Hub) removeClient(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)
	h.updateStats(func(s *HubStats) {
		s.ConnectedClients = len(h.clients)
		s.Subscriptions -= len(client.subs)
	})
	h.opts.Metrics.RecordWebSocketConnection("disconnect")

	h.logger.WithFields(logrus.Fields{
		"client_id":         client.ID,
		"subscriptions":     len(client.subs),
		"connected_clients": len(h.clients),
	}).Info("WebSocket client disconnected")
}

func (h *Hub) handleRequest(ctx context.Context, r clientRequest) {
	if !h.clients[r.client] {
		return
	}
	switch r.req.Type {
	case MessageTypeSubscribe:
		h.subscribe(ctx, r.client, r.req)
	case MessageTypeUnsubscribe:
		if _, ok := r.client.subs[r.req.SubscriptionID]; ok {
			delete(r.client.subs, r.req.SubscriptionID)
			h.updateStats(func(s *HubStats) { s.Subscriptions-- })
		}
		h.send(r.client, Message{Type: MessageTypeUnsubscribed, SubscriptionID: r.req.SubscriptionID})
	case MessageTypePing:
		h.send(r.client, Message{Type: MessageTypePong})
	default:
		h.send(r.client, errorMessage(r.req.SubscriptionID, fmt.Errorf("unknown message type %q", r.req.Type)))
	}
}

// subscribe registers a subscription and sends its first snapshot. A request
// whose first snapshot fails is answered with an error and not kept.
func (h *Hub) subscribe(ctx context.Context, client *Client, req Request) {
	if req.SubscriptionID == "" {
		h.send(client, errorMessage("", errMissingID))
		return
	}
	_, replacing := client.subs[req.SubscriptionID]
	if !replacing && len(client.subs) >= h.opts.MaxSubscriptions {
		h.send(client, errorMessage(req.SubscriptionID, errTooManySubscriptions))
		return
	}

	sub := subscription{id: req.SubscriptionID, collection: req.Collection, query: req.Query()}
	if view, ok := req.View(); ok {
		sub.view = view
		sub.query = repositories.Query{}
	}

	snap := h.compute(ctx, sub)
	if snap.err != nil {
		h.send(client, errorMessage(sub.id, snap.err))
		return
	}

	client.subs[sub.id] = sub
	if !replacing {
		h.updateStats(func(s *HubStats) { s.Subscriptions++ })
	}
	h.logger.WithFields(logrus.Fields{
		"client_id":       client.ID,
		"subscription_id": sub.id,
		"collection":      sub.collection,
	}).Debug("Client subscribed")

	h.send(client, snapshotMessage(sub, snap.data))
}

// drain collects every change already queued so a burst of writes yields one refresh
func (h *Hub) drain(first publisher.ChangeEvent) (map[string]bool, bool) {
	changed := map[string]bool{first.Collection: true}
	for {
		select {
		case event := <-h.changes:
			changed[event.Collection] = true
		default:
			return changed, h.overflow.Swap(false)
		}
	}
}

// refresh pushes a new snapshot to every subscription affected by changed
func (h *Hub) refresh(ctx context.Context, changed map[string]bool, all bool) {
	cache := make(map[string]snapshot)

	for client := range h.clients {
		for _, id := range client.subscriptionIDs() {
			sub := client.subs[id]
			if !all && !affected(sub, changed) {
				continue
			}
			snap, ok := cache[sub.key()]
			if !ok {
				snap = h.compute(ctx, sub)
				cache[sub.key()] = snap
			}
			msg := snapshotMessage(sub, snap.data)
			if snap.err != nil {
				msg = errorMessage(sub.id, snap.err)
			}
			if !h.send(client, msg) {
				break
			}
		}
	}

	h.logger.WithFields(logrus.Fields{
		"collections": len(changed),
		"snapshots":   len(cache),
	}).Debug("Subscriptions refreshed")
}

func affected(sub subscription, changed map[string]bool) bool {
	for collection := range changed {
		if sub.affectedBy(collection) {
			return true
		}
	}
	return false
}

func (h *Hub) compute(ctx context.Context, sub subscription) snapshot {
	if sub.view != "" {
		data, ok, err := h.source.View(ctx, sub.view)
		if err == nil && !ok {
			err = fmt.Errorf("unknown view %q", sub.view)
		}
		return snapshot{data: data, err: err}
	}
	data, err := h.source.List(ctx, sub.collection, sub.query)
	return snapshot{data: data, err: err}
}

func snapshotMessage(sub subscription, data interface{}) Message {
	collection := sub.collection
	if sub.view != "" {
		collection = ViewPrefix + sub.view
	}
	return Message{Type: MessageTypeSnapshot, SubscriptionID: sub.id, Collection: collection, Data: data}
}

// send queues msg for the client. A client whose buffer is full is dropped
// and false is returned.
func (h *Hub) send(client *Client, msg Message) bool {
	if !h.clients[client] {
		return false
	}
	select {
	case client.send <- msg.ToJSON():
		h.updateStats(func(s *HubStats) { s.MessagesSent++ })
		h.opts.Metrics.RecordWebSocketMessage(msg.Type, "out")
		return true
	default:
		h.logger.WithField("client_id", client.ID).Warn("WebSocket client too slow, disconnecting")
		h.removeClient(client)
		return false
	}
}

func (h *Hub) updateStats(fn func(s *HubStats)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fn(&h.stats)
	h.stats.LastActivity = time.Now()
}

// GetStats returns current hub statistics
func (h *Hub) GetStats() HubStats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.stats
}

// GetClientCount returns the current number of connected clients
func (h *Hub) GetClientCount() int {
	return h.GetStats().ConnectedClients
}

func (c *Client) subscriptionIDs() []string {
	ids := make([]string, 0, len(c.subs))
	for id := range c.subs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
