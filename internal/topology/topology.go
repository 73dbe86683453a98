// Package topology reconciles ZoneGroupState payloads into the zones
// list: which players are grouped together, who coordinates each group,
// and which members are actually stereo-pair secondaries that must never
// be addressed directly.
package topology

import (
	"crypto/sha256"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sonoshub/control-plane/internal/soap"
)

// zoneIDNamespace scopes the deterministic zone identifiers derived below
// from their member sets, keeping them distinct from any other UUIDv5-ish
// identifier space this process might mint.
var zoneIDNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("sonos-control-plane.zone"))

// Member is one zone member's detail record.
type Member struct {
	PlayerID      string
	UUID          string
	RoomName      string
	ChannelMapSet string
	IsCoordinator bool
}

// Zone is an active group, rebuilt wholesale from each ZoneGroupState
// event — never patched field-by-field. ID is a UUIDv5 derived from the
// sorted member set rather than Sonos's own group id string, so a
// consumer's notion of "the same zone" survives a coordinator handoff
// that leaves membership unchanged but mints a new RawGroupID.
type Zone struct {
	ID            string
	RawGroupID    string
	CoordinatorID string
	Members       []Member
}

// zoneID derives a stable identifier from a group's member UUID set.
func zoneID(memberUUIDs []string) string {
	sorted := append([]string(nil), memberUUIDs...)
	sort.Strings(sorted)
	return uuid.NewSHA1(zoneIDNamespace, []byte(strings.Join(sorted, ","))).String()
}

// Resolver maps a ZoneGroupState UUID to the registry's player identity.
// Kept as a narrow interface instead of importing internal/registry
// directly, so the topology manager has no back-edge onto discovery.
type Resolver interface {
	ResolveUUID(uuid string) (playerID string, ok bool)
}

// Manager owns the zones list. Readers get a consistent snapshot; the
// only writer is ApplyZoneGroupState, which replaces the list atomically.
type Manager struct {
	resolver Resolver

	mu         sync.RWMutex
	zones      []Zone
	lastHash   [32]byte
	lastUpdate time.Time

	onChange func(zones []Zone, at time.Time)
}

// New builds a topology manager against the given UUID resolver.
func New(resolver Resolver) *Manager {
	return &Manager{resolver: resolver}
}

// OnChange registers a callback fired once per distinct ZoneGroupState
// payload that is successfully applied.
func (m *Manager) OnChange(fn func(zones []Zone, at time.Time)) {
	m.onChange = fn
}

// ApplyZoneGroupState parses a (pre-decoded, already-unescaped) ZoneGroupState
// XML fragment and replaces the zones list if it differs from the last
// applied payload. Identical payloads are idempotent: at most one
// topologyChange emission per distinct payload.
func (m *Manager) ApplyZoneGroupState(xmlPayload []byte) {
	hash := sha256.Sum256(xmlPayload)

	m.mu.Lock()
	if m.lastUpdate != (time.Time{}) && hash == m.lastHash {
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	parsed := parseZoneGroupStateFragment(xmlPayload)

	zones := make([]Zone, 0, len(parsed.Groups))
	for _, g := range parsed.Groups {
		coordinatorID, ok := m.resolver.ResolveUUID(g.Coordinator)
		if !ok {
			// Unknown coordinator: skip the zone per §4.E step 1.
			continue
		}

		members := make([]Member, 0, len(g.Members))
		haveCoordinator := false
		for _, mem := range g.Members {
			playerID, ok := m.resolver.ResolveUUID(mem.UUID)
			if !ok {
				continue
			}
			isCoord := mem.UUID == g.Coordinator
			if isCoord {
				haveCoordinator = true
			}
			members = append(members, Member{
				PlayerID:      playerID,
				UUID:          mem.UUID,
				RoomName:      mem.ZoneName,
				ChannelMapSet: mem.ChannelMapSet,
				IsCoordinator: isCoord,
			})
		}

		// Preserve the coordinator in the members list even if the raw
		// payload omitted it there.
		if !haveCoordinator {
			members = append(members, Member{
				PlayerID:      coordinatorID,
				UUID:          g.Coordinator,
				IsCoordinator: true,
			})
		}

		memberUUIDs := make([]string, 0, len(members))
		for _, mem := range members {
			memberUUIDs = append(memberUUIDs, mem.UUID)
		}

		zones = append(zones, Zone{
			ID:            zoneID(memberUUIDs),
			RawGroupID:    g.ID,
			CoordinatorID: coordinatorID,
			Members:       members,
		})
	}

	now := time.Now()
	m.mu.Lock()
	m.zones = zones
	m.lastHash = hash
	m.lastUpdate = now
	m.mu.Unlock()

	if m.onChange != nil {
		m.onChange(zones, now)
	}
}

// Zones returns a snapshot of the current zones list.
func (m *Manager) Zones() []Zone {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Zone, len(m.zones))
	copy(out, m.zones)
	return out
}

// ZoneForDevice returns the zone containing playerID, if any.
func (m *Manager) ZoneForDevice(playerID string) (Zone, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, z := range m.zones {
		for _, mem := range z.Members {
			if mem.PlayerID == playerID {
				return z, true
			}
		}
	}
	return Zone{}, false
}

// IsCoordinator reports whether playerID coordinates its zone.
func (m *Manager) IsCoordinator(playerID string) bool {
	zone, ok := m.ZoneForDevice(playerID)
	return ok && zone.CoordinatorID == playerID
}

// CoordinatorFor returns the coordinator player id for playerID's zone.
func (m *Manager) CoordinatorFor(playerID string) (string, bool) {
	zone, ok := m.ZoneForDevice(playerID)
	if !ok {
		return "", false
	}
	return zone.CoordinatorID, true
}

// GroupMembersOf returns every member player id sharing playerID's zone.
func (m *Manager) GroupMembersOf(playerID string) []string {
	zone, ok := m.ZoneForDevice(playerID)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(zone.Members))
	for _, mem := range zone.Members {
		out = append(out, mem.PlayerID)
	}
	return out
}

// StereoPairPrimary returns the primary member's player id for a room with
// two same-named members, identified as the UUID appearing before the
// ":LF" designation in a member's channel-map string. Returns ok=false if
// roomName doesn't correspond to a stereo-paired room.
func (m *Manager) StereoPairPrimary(roomName string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, z := range m.zones {
		var sameRoom []Member
		for _, mem := range z.Members {
			if mem.RoomName == roomName {
				sameRoom = append(sameRoom, mem)
			}
		}
		if len(sameRoom) < 2 {
			continue
		}
		for _, mem := range sameRoom {
			if primaryUUID, ok := leftChannelUUID(mem.ChannelMapSet); ok {
				for _, candidate := range sameRoom {
					if candidate.UUID == primaryUUID {
						return candidate.PlayerID, true
					}
				}
			}
		}
	}
	return "", false
}

// IsStereoPairSecondary reports whether playerID is the non-primary half of
// a stereo pair — a member sharing a room with exactly one other member,
// where the other member's UUID is the one ":LF" designates as primary.
// Secondary members neither accept transport/volume subscriptions reliably
// nor serve GENA events; all control and all subscriptions must route
// through the primary instead.
func (m *Manager) IsStereoPairSecondary(playerID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, z := range m.zones {
		var self *Member
		var sameRoom []Member
		for i := range z.Members {
			if z.Members[i].PlayerID == playerID {
				self = &z.Members[i]
				break
			}
		}
		if self == nil {
			continue
		}
		for _, mem := range z.Members {
			if mem.RoomName == self.RoomName {
				sameRoom = append(sameRoom, mem)
			}
		}
		if len(sameRoom) < 2 {
			return false
		}
		for _, mem := range sameRoom {
			if primaryUUID, ok := leftChannelUUID(mem.ChannelMapSet); ok {
				return primaryUUID != self.UUID
			}
		}
		return false
	}
	return false
}

// leftChannelUUID extracts the UUID appearing immediately before an ":LF"
// designation in a channel-map string like
// "RINCON_A:LF,LF;RINCON_B:RF,RF".
func leftChannelUUID(channelMapSet string) (string, bool) {
	for _, segment := range strings.Split(channelMapSet, ";") {
		parts := strings.SplitN(segment, ":", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.Contains(parts[1], "LF") {
			return strings.TrimPrefix(parts[0], "uuid:"), true
		}
	}
	return "", false
}

// parseZoneGroupStateFragment reuses the soap package's ZoneGroupState
// parsing since the NOTIFY payload and the GetZoneGroupState SOAP
// response share the same inner ZoneGroupState schema.
func parseZoneGroupStateFragment(payload []byte) soap.ZoneGroupState {
	return soap.ParseZoneGroupStateFragment(payload)
}
