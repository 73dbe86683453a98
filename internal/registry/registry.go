// Package registry implements discovery and the live map of known
// players: SSDP multicast, device-description fetch, and insert-only
// registration. Per spec, the registry is monotonic during a run — a
// player is only ever removed by explicit Remove, never by a missed scan.
package registry

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/sonoshub/control-plane/internal/store"
)

// Player is a discovered endpoint. Identity is the device description's
// root UDN (stable across restarts); everything else is fixed at creation
// except the set of service descriptors, which never changes after probe.
type Player struct {
	ID              string // normalized UDN, doubles as the stable identity
	UDN             string
	IP              string
	Location        string
	ModelName       string
	ModelNumber     string
	RoomName        string
	SerialNumber    string
	SoftwareVersion string
	HardwareVersion string
	Services        []ServiceDescriptor
	DiscoveredAt    time.Time
}

// Registry holds the live set of known players. Discovery is the only
// writer; registration is insert-only.
type Registry struct {
	cfg   Config
	store *store.DB

	mu      sync.RWMutex
	players map[string]*Player

	discoveryMu       sync.Mutex
	discoveryInFlight bool
	discoveryWaiters  []chan discoveryResult

	onDiscovered func(*Player)
}

// Config holds the discovery parameters the registry runs with.
type Config struct {
	Passes          int
	PassInterval    time.Duration
	Timeout         time.Duration
	StaticDeviceIPs []string
}

type discoveryResult struct {
	added []*Player
	err   error
}

// New builds a registry. db may be nil, in which case known-IP persistence
// across restarts is disabled.
func New(cfg Config, db *store.DB) *Registry {
	return &Registry{
		cfg:     cfg,
		store:   db,
		players: make(map[string]*Player),
	}
}

// OnDiscovered registers a callback invoked once per newly-registered
// player, after it's visible via AllPlayers/ByID. Used by the entrypoint
// to auto-subscribe new players.
func (r *Registry) OnDiscovered(fn func(*Player)) {
	r.onDiscovered = fn
}

// AllPlayers returns a snapshot of every known player.
func (r *Registry) AllPlayers() []*Player {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Player, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, p)
	}
	return out
}

// ByID looks up a player by its stable identity (normalized UDN).
func (r *Registry) ByID(id string) (*Player, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.players[id]
	return p, ok
}

// ResolveUUID looks up a player by its UDN, satisfying topology.Resolver.
// Player identity is the normalized UDN, which is exactly what
// ZoneGroupState reports as each member's UUID attribute.
func (r *Registry) ResolveUUID(uuid string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.players[uuid]
	if !ok {
		return "", false
	}
	return p.ID, true
}

// ByRoom returns the first player whose room name matches, case-sensitive,
// matching how the teacher's device lookup resolves a room argument.
func (r *Registry) ByRoom(room string) (*Player, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.players {
		if p.RoomName == room {
			return p, true
		}
	}
	return nil, false
}

// Remove deletes a player from the registry and the durable store. It is
// the only way a player leaves the registry — discovery never removes a
// player on its own, per the registry's monotonicity invariant.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	p, ok := r.players[id]
	if ok {
		delete(r.players, id)
	}
	r.mu.Unlock()

	if ok && r.store != nil {
		if err := r.store.Remove(p.UDN); err != nil {
			log.Printf("registry: remove known player %s: %v", p.UDN, err)
		}
	}
}

// Discover runs (or joins an in-flight) SSDP discovery pass and registers
// any newly-found players. This is the suspension point named in spec.md
// §5: concurrent callers collapse onto a single discovery run instead of
// hammering the network with parallel M-SEARCH bursts.
func (r *Registry) Discover(ctx context.Context) ([]*Player, error) {
	r.discoveryMu.Lock()
	if r.discoveryInFlight {
		wait := make(chan discoveryResult, 1)
		r.discoveryWaiters = append(r.discoveryWaiters, wait)
		r.discoveryMu.Unlock()

		select {
		case res := <-wait:
			return res.added, res.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	r.discoveryInFlight = true
	r.discoveryMu.Unlock()

	added, err := r.runDiscovery(ctx)

	r.discoveryMu.Lock()
	waiters := r.discoveryWaiters
	r.discoveryWaiters = nil
	r.discoveryInFlight = false
	r.discoveryMu.Unlock()

	for _, w := range waiters {
		w <- discoveryResult{added: added, err: err}
	}

	return added, err
}

func (r *Registry) runDiscovery(ctx context.Context) ([]*Player, error) {
	knownIPs := r.loadKnownIPs()

	responses, err := ssdpDiscover(ctx, r.cfg.Passes, r.cfg.PassInterval, r.cfg.Timeout)
	if err != nil {
		log.Printf("registry: ssdp discovery error: %v", err)
	}

	seenIPs := make(map[string]struct{}, len(responses))
	var added []*Player

	for _, resp := range responses {
		ip := extractHost(resp.Location)
		if ip == "" {
			continue
		}
		seenIPs[ip] = struct{}{}

		probeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		result, perr := probeDevice(probeCtx, ip)
		cancel()
		if perr != nil || result == nil {
			continue
		}

		if p := r.register(result); p != nil {
			added = append(added, p)
		}
	}

	for _, ip := range append(r.cfg.StaticDeviceIPs, knownIPs...) {
		if _, ok := seenIPs[ip]; ok {
			continue
		}
		seenIPs[ip] = struct{}{}

		probeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		result, perr := probeDevice(probeCtx, ip)
		cancel()
		if perr != nil || result == nil {
			continue
		}

		if p := r.register(result); p != nil {
			added = append(added, p)
		}
	}

	return added, nil
}

// register inserts a newly-probed device into the registry if it isn't
// already known, and refreshes the durable known-IP cache either way.
func (r *Registry) register(result *probeResult) *Player {
	id := result.UDN

	r.mu.Lock()
	_, exists := r.players[id]
	var player *Player
	if !exists {
		player = &Player{
			ID:              id,
			UDN:             result.UDN,
			IP:              extractHost(result.Location),
			Location:        result.Location,
			ModelName:       result.ModelName,
			ModelNumber:     result.ModelNumber,
			RoomName:        result.RoomName,
			SerialNumber:    result.SerialNumber,
			SoftwareVersion: result.SoftwareVersion,
			HardwareVersion: result.HardwareVersion,
			Services:        result.Services,
			DiscoveredAt:    time.Now(),
		}
		r.players[id] = player
	}
	r.mu.Unlock()

	if r.store != nil {
		ip := extractHost(result.Location)
		if err := r.store.Upsert(store.KnownPlayer{
			UDN:      result.UDN,
			IP:       ip,
			RoomName: result.RoomName,
			LastSeen: time.Now(),
		}); err != nil {
			log.Printf("registry: persist known player %s: %v", result.UDN, err)
		}
	}

	if player != nil && r.onDiscovered != nil {
		r.onDiscovered(player)
	}
	return player
}

func (r *Registry) loadKnownIPs() []string {
	if r.store == nil {
		return nil
	}
	rows, err := r.store.All()
	if err != nil {
		log.Printf("registry: load known players: %v", err)
		return nil
	}
	ips := make([]string, 0, len(rows))
	for _, row := range rows {
		ips = append(ips, row.IP)
	}
	return ips
}
