// Package hub fans every player.Event and TopologyEvent out to whichever
// consumers are registered: webhook POSTs, SSE streams, and WebSocket
// connections. Delivery is process-wide, best-effort, and lossy under
// backpressure — a slow or gone consumer never blocks the producer or
// other consumers.
package hub

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"
)

// WebhookTarget is one event-hub webhook destination: a URL, optional
// custom headers sent with every POST, and an optional event-kind filter
// restricting delivery to a single category ("volume", "transport",
// "topology"; empty means every event).
type WebhookTarget struct {
	URL     string
	Headers map[string]string
	Type    string
}

// Hub owns the registered consumer sets and publishes events to all of
// them. Ordering is preserved per-producer: Publish is expected to be
// called from a single goroutine per player (the player.Manager's own
// event callback), so events for a given player are never reordered here.
type Hub struct {
	httpClient *http.Client

	mu       sync.Mutex
	webhooks []WebhookTarget
	sse      map[*SSEClient]struct{}
	ws       map[*WSClient]struct{}

	drain chan struct{}
	wg    sync.WaitGroup
}

// New builds a Hub. webhookTargets are POSTed to for every event whose
// category matches their Type filter (or every event, if Type is empty);
// SSE and WebSocket clients register themselves via
// AddSSEClient/AddWSClient.
func New(webhookTargets []WebhookTarget) *Hub {
	return &Hub{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		webhooks:   webhookTargets,
		sse:        make(map[*SSEClient]struct{}),
		ws:         make(map[*WSClient]struct{}),
		drain:      make(chan struct{}),
	}
}

// Publish fans an event out to every registered consumer. Webhook delivery
// happens on its own goroutine per target so one slow endpoint can't delay
// another, or delay SSE/WS delivery.
func (h *Hub) Publish(event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("hub: marshal event: %v", err)
		return
	}
	category := webhookCategory(event)

	h.mu.Lock()
	targets := append([]WebhookTarget(nil), h.webhooks...)
	sseClients := make([]*SSEClient, 0, len(h.sse))
	for c := range h.sse {
		sseClients = append(sseClients, c)
	}
	wsClients := make([]*WSClient, 0, len(h.ws))
	for c := range h.ws {
		wsClients = append(wsClients, c)
	}
	h.mu.Unlock()

	for _, target := range targets {
		if target.Type != "" && target.Type != category {
			continue
		}
		h.wg.Add(1)
		go func(target WebhookTarget) {
			defer h.wg.Done()
			h.postWebhook(target, payload)
		}(target)
	}

	for _, c := range sseClients {
		if !c.send(payload) {
			h.removeSSEClient(c)
		}
	}
	for _, c := range wsClients {
		if !c.send(payload) {
			h.removeWSClient(c)
		}
	}
}

func (h *Hub) postWebhook(target WebhookTarget, payload []byte) {
	req, err := http.NewRequest(http.MethodPost, target.URL, bytes.NewReader(payload))
	if err != nil {
		// Invalid URL: drop silently, matching spec's webhook contract.
		return
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range target.Headers {
		req.Header.Set(k, v)
	}
	resp, err := h.httpClient.Do(req)
	if err != nil {
		log.Printf("hub: webhook post to %s failed: %v", target.URL, err)
		return
	}
	resp.Body.Close()
}

// AddSSEClient registers a new SSE consumer.
func (h *Hub) AddSSEClient(c *SSEClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sse[c] = struct{}{}
}

func (h *Hub) removeSSEClient(c *SSEClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sse, c)
}

// AddWSClient registers a new WebSocket consumer.
func (h *Hub) AddWSClient(c *WSClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ws[c] = struct{}{}
}

func (h *Hub) removeWSClient(c *WSClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.ws, c)
}

// Drain waits, for at most timeout, for any in-flight webhook deliveries to
// finish, part of the bounded shutdown sequence.
func (h *Hub) Drain(timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		log.Printf("hub: drain timed out after %v", timeout)
	}
}
