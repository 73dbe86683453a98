// Package subscriber owns the single HTTP listener this process binds for
// inbound UPnP GENA NOTIFY requests, plus the SUBSCRIBE/RENEW/UNSUBSCRIBE
// client used to acquire those event streams from players.
package subscriber

import (
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sonoshub/control-plane/internal/soap"
)

// RenewalBuffer is how far ahead of expiry a subscription is renewed.
const RenewalBuffer = 30 * time.Second

// EventHandler is invoked for every NOTIFY body, keyed by the identity the
// caller gave subscribe (typically a player id) and the service it came
// from.
type EventHandler func(playerID string, service soap.Service, body []byte)

// Subscription is one active GENA subscription.
type Subscription struct {
	ID           string // deterministic "{playerBaseURL}/{serviceName}"
	PlayerID     string
	EventURL     string
	Service      soap.Service
	SID          string
	Timeout      time.Duration
	SubscribedAt time.Time
	renewTimer   *time.Timer
}

// IsExpiringSoon reports whether the subscription's granted timeout is due
// within RenewalBuffer of now.
func (s *Subscription) IsExpiringSoon(now time.Time) bool {
	return now.After(s.SubscribedAt.Add(s.Timeout - RenewalBuffer))
}

// Subscriber binds the NOTIFY listener and manages subscriptions.
type Subscriber struct {
	httpClient   *http.Client
	eventHandler EventHandler

	mu            sync.Mutex
	subscriptions map[string]*Subscription // by subscription id
	bySID         map[string]*Subscription // by remote SID; NOTIFY dispatch looks up by subscription id only

	localIP      string
	callbackPort int
	router       chi.Router
	listener     net.Listener
	server       *http.Server

	stopped chan struct{}
}

// New builds a Subscriber. Call Start to bind the listener.
func New(eventHandler EventHandler) *Subscriber {
	return &Subscriber{
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		eventHandler:  eventHandler,
		subscriptions: make(map[string]*Subscription),
		bySID:         make(map[string]*Subscription),
		stopped:       make(chan struct{}),
	}
}

// Start binds the NOTIFY listener to the given port (0 chooses any free
// port) and discovers the host's non-loopback IPv4 for callback URLs.
func (s *Subscriber) Start(port int) error {
	ip, err := detectLocalIP()
	if err != nil {
		return fmt.Errorf("detect local ip: %w", err)
	}
	s.localIP = ip

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("bind notify listener: %w", err)
	}
	s.listener = ln
	s.callbackPort = ln.Addr().(*net.TCPAddr).Port

	r := chi.NewRouter()
	r.MethodFunc("NOTIFY", "/notify/{subscriptionId}", s.handleNotify)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	s.router = r

	s.server = &http.Server{Handler: r}
	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Printf("subscriber: listener stopped: %v", err)
		}
	}()

	return nil
}

// CallbackPort returns the port the NOTIFY listener actually bound to.
func (s *Subscriber) CallbackPort() int {
	return s.callbackPort
}

func (s *Subscriber) callbackURL(subscriptionID string) string {
	return fmt.Sprintf("http://%s:%d/notify/%s", s.localIP, s.callbackPort, url.PathEscape(subscriptionID))
}

// Subscribe acquires (or returns the existing) subscription to a service
// on a player. The subscription id is deterministic on
// (playerBaseURL, serviceName), so a repeat call is idempotent and never
// issues a second SUBSCRIBE. eventURL is the resolved GENA event
// subscription endpoint (registry.ServiceDescriptor.EventURL), which may
// differ from playerBaseURL+the built-in path when the device description
// advertised its own.
func (s *Subscriber) Subscribe(ctx context.Context, playerBaseURL, eventURL, playerID string, service soap.Service, timeoutSec int) (string, error) {
	id := subscriptionID(playerBaseURL, service)

	s.mu.Lock()
	if existing, ok := s.subscriptions[id]; ok {
		s.mu.Unlock()
		return existing.ID, nil
	}
	s.mu.Unlock()

	sid, timeout, err := s.sendSubscribe(ctx, eventURL, s.callbackURL(id), timeoutSec)
	if err != nil {
		return "", fmt.Errorf("subscribe %s: %w", id, err)
	}

	sub := &Subscription{
		ID:           id,
		PlayerID:     playerID,
		EventURL:     eventURL,
		Service:      service,
		SID:          sid,
		Timeout:      timeout,
		SubscribedAt: time.Now(),
	}

	s.mu.Lock()
	s.subscriptions[id] = sub
	s.bySID[sid] = sub
	s.mu.Unlock()

	s.scheduleRenewal(sub)

	return id, nil
}

func (s *Subscriber) scheduleRenewal(sub *Subscription) {
	delay := sub.Timeout - RenewalBuffer
	if delay < 0 {
		delay = 0
	}
	sub.renewTimer = time.AfterFunc(delay, func() {
		s.renew(sub)
	})
}

// renew re-issues SUBSCRIBE without a SID, per spec: simpler and tolerant
// of a lost SID than a RENEW-style request. On failure the subscription is
// dropped; the next external trigger (re-discovery, topology event) is
// responsible for noticing and resubscribing.
func (s *Subscriber) renew(sub *Subscription) {
	select {
	case <-s.stopped:
		return
	default:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sid, timeout, err := s.sendSubscribe(ctx, sub.EventURL, s.callbackURL(sub.ID), int(sub.Timeout.Seconds()))
	if err != nil {
		log.Printf("subscriber: renewal failed for %s: %v", sub.ID, err)
		s.mu.Lock()
		delete(s.subscriptions, sub.ID)
		delete(s.bySID, sub.SID)
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	delete(s.bySID, sub.SID)
	sub.SID = sid
	sub.Timeout = timeout
	sub.SubscribedAt = time.Now()
	s.bySID[sid] = sub
	s.mu.Unlock()

	s.scheduleRenewal(sub)
}

// Unsubscribe is best-effort: any 2xx or network error is treated as
// success, and local state is always cleared.
func (s *Subscriber) Unsubscribe(ctx context.Context, subscriptionID string) {
	s.mu.Lock()
	sub, ok := s.subscriptions[subscriptionID]
	if ok {
		delete(s.subscriptions, subscriptionID)
		delete(s.bySID, sub.SID)
		if sub.renewTimer != nil {
			sub.renewTimer.Stop()
		}
	}
	s.mu.Unlock()
	if !ok {
		return
	}

	req, err := http.NewRequestWithContext(ctx, "UNSUBSCRIBE", sub.EventURL, nil)
	if err != nil {
		return
	}
	req.Header.Set("SID", sub.SID)
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return
	}
	resp.Body.Close()
}

// Stop unsubscribes everything and closes the listener, bounded by ctx.
func (s *Subscriber) Stop(ctx context.Context) error {
	close(s.stopped)

	s.mu.Lock()
	ids := make([]string, 0, len(s.subscriptions))
	for id := range s.subscriptions {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	for _, id := range ids {
		s.Unsubscribe(ctx, id)
	}

	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Subscriber) handleNotify(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)

	raw := chi.URLParam(r, "subscriptionId")
	id, err := url.PathUnescape(raw)
	if err != nil || id == "" {
		return
	}

	s.mu.Lock()
	sub, ok := s.subscriptions[id]
	s.mu.Unlock()
	if !ok {
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return
	}

	if s.eventHandler != nil {
		s.eventHandler(sub.PlayerID, sub.Service, body)
	}
}

func (s *Subscriber) sendSubscribe(ctx context.Context, eventURL, callbackURL string, timeoutSec int) (string, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, "SUBSCRIBE", eventURL, nil)
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("CALLBACK", "<"+callbackURL+">")
	req.Header.Set("NT", "upnp:event")
	req.Header.Set("TIMEOUT", fmt.Sprintf("Second-%d", timeoutSec))

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", 0, fmt.Errorf("subscribe http %d", resp.StatusCode)
	}

	sid := resp.Header.Get("SID")
	timeout := parseTimeoutHeader(resp.Header.Get("TIMEOUT"))
	if sid == "" {
		return "", 0, fmt.Errorf("subscribe response missing SID")
	}
	return sid, timeout, nil
}

func parseTimeoutHeader(value string) time.Duration {
	value = strings.TrimPrefix(value, "Second-")
	if strings.EqualFold(value, "infinite") {
		return 24 * time.Hour
	}
	secs, err := strconv.Atoi(value)
	if err != nil || secs <= 0 {
		return 300 * time.Second
	}
	return time.Duration(secs) * time.Second
}

func subscriptionID(playerBaseURL string, service soap.Service) string {
	return fmt.Sprintf("%s/%s", playerBaseURL, service)
}

func detectLocalIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "", err
	}
	defer conn.Close()
	addr := conn.LocalAddr().(*net.UDPAddr)
	return addr.IP.String(), nil
}
