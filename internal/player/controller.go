package player

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sonoshub/control-plane/internal/apperrors"
	"github.com/sonoshub/control-plane/internal/didl"
	"github.com/sonoshub/control-plane/internal/registry"
	"github.com/sonoshub/control-plane/internal/soap"
	"github.com/sonoshub/control-plane/internal/topology"
)

// faultRetryDelay is how long Play waits before retrying once after a
// UPnP 701 (transition not available) fault, giving a just-issued
// SetAVTransportURI time to take effect on the device.
const faultRetryDelay = 1 * time.Second

// settleDelay is how long PlayURI waits after SetAVTransportURI for a
// direct http(s) stream before issuing Play, since some players reject an
// immediate Play against a URI they haven't finished resolving.
const settleDelay = 500 * time.Millisecond

// coordinatorPollInterval/coordinatorPollBudget bound EnsureCoordinator's
// wait for a just-applied topology change to become visible before it
// falls back to calling BecomeCoordinatorOfStandaloneGroup anyway.
const (
	coordinatorPollInterval = 100 * time.Millisecond
	coordinatorPollBudget   = 300 * time.Millisecond
)

// Locator resolves player identity. Implemented by *registry.Registry.
type Locator interface {
	ByID(id string) (*registry.Player, bool)
	ByRoom(room string) (*registry.Player, bool)
}

// Topology answers grouping questions. Implemented by *topology.Manager.
type Topology interface {
	IsCoordinator(playerID string) bool
	CoordinatorFor(playerID string) (string, bool)
	GroupMembersOf(playerID string) []string
	ZoneForDevice(playerID string) (topology.Zone, bool)
	StereoPairPrimary(roomName string) (string, bool)
}

// Manager is the device-controller façade: every playback, rendering, and
// grouping operation against a known player goes through it, and it owns
// the per-player state cache that UPnP events and SOAP polls both feed.
type Manager struct {
	soapClient *soap.Client
	locator    Locator
	topo       Topology

	states *stateStore

	mu      sync.Mutex
	onEvent func(Event)
}

// New builds a Manager. topo may be nil for standalone-only setups (no
// grouping support); locator must not be nil.
func New(soapClient *soap.Client, locator Locator, topo Topology) *Manager {
	return &Manager{
		soapClient: soapClient,
		locator:    locator,
		topo:       topo,
		states:     newStateStore(),
	}
}

// OnEvent registers the callback invoked for every state-change event. Only
// one callback is supported; the caller (main) is expected to fan it out to
// internal/hub.
func (m *Manager) OnEvent(fn func(Event)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onEvent = fn
}

func (m *Manager) emit(events []Event) {
	m.mu.Lock()
	cb := m.onEvent
	m.mu.Unlock()
	if cb == nil {
		return
	}
	for _, e := range events {
		cb(e)
	}
}

// State returns a player's last-known cached state.
func (m *Manager) State(playerID string) (State, bool) {
	return m.states.get(playerID)
}

// PruneStale drops cached state entries older than maxAge. Called
// periodically by internal/scheduler.
func (m *Manager) PruneStale(maxAge time.Duration) int {
	return m.states.pruneOlderThan(maxAge)
}

// ResolveRoom maps a room name to the player id every operation on that
// room should actually target. For a stereo-paired room this is always the
// primary half — the UUID appearing before ":LF" in the pair's channel-map
// string — never whichever half ByRoom happened to return first.
func (m *Manager) ResolveRoom(roomName string) (string, error) {
	if m.topo != nil {
		if primary, ok := m.topo.StereoPairPrimary(roomName); ok {
			return primary, nil
		}
	}
	p, ok := m.locator.ByRoom(roomName)
	if !ok {
		return "", apperrors.NewDeviceNotFoundError(roomName)
	}
	return p.ID, nil
}

func (m *Manager) ip(playerID string) (string, error) {
	p, ok := m.locator.ByID(playerID)
	if !ok {
		return "", apperrors.NewDeviceNotFoundError(playerID)
	}
	return p.IP, nil
}

// --- Transport ---

// Play resumes playback, retrying once after faultRetryDelay on a UPnP 701
// fault (commonly seen immediately after SetAVTransportURI).
func (m *Manager) Play(ctx context.Context, playerID string) error {
	ip, err := m.ip(playerID)
	if err != nil {
		return err
	}
	err = m.soapClient.Play(ctx, ip)
	if isFaultCode(err, "701") {
		select {
		case <-time.After(faultRetryDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
		err = m.soapClient.Play(ctx, ip)
	}
	if err != nil {
		return apperrors.FromSonosError(err)
	}
	return nil
}

func (m *Manager) Pause(ctx context.Context, playerID string) error {
	ip, err := m.ip(playerID)
	if err != nil {
		return err
	}
	if err := m.soapClient.Pause(ctx, ip); err != nil {
		return apperrors.FromSonosError(err)
	}
	return nil
}

// Stop tolerates failure: some transport states reject Stop, and callers
// that only want it as a pre-step to SetAVTransportURI shouldn't fail the
// whole operation over it.
func (m *Manager) Stop(ctx context.Context, playerID string) error {
	ip, err := m.ip(playerID)
	if err != nil {
		return err
	}
	_ = m.soapClient.Stop(ctx, ip)
	return nil
}

func (m *Manager) Next(ctx context.Context, playerID string) error {
	ip, err := m.ip(playerID)
	if err != nil {
		return err
	}
	if err := m.soapClient.Next(ctx, ip); err != nil {
		return apperrors.FromSonosError(err)
	}
	return nil
}

func (m *Manager) Previous(ctx context.Context, playerID string) error {
	ip, err := m.ip(playerID)
	if err != nil {
		return err
	}
	if err := m.soapClient.Previous(ctx, ip); err != nil {
		return apperrors.FromSonosError(err)
	}
	return nil
}

// Seek validates the unit, but leaves target-format validation to the
// device: a malformed target surfaces as a ProtocolFault from the device
// rather than being pre-validated here.
func (m *Manager) Seek(ctx context.Context, playerID, unit, target string) error {
	if unit != "REL_TIME" && unit != "TRACK_NR" {
		return apperrors.NewValidationError("unit must be REL_TIME or TRACK_NR", map[string]any{"unit": unit})
	}
	ip, err := m.ip(playerID)
	if err != nil {
		return err
	}
	if err := m.soapClient.Seek(ctx, ip, unit, target); err != nil {
		return apperrors.FromSonosError(err)
	}
	return nil
}

// --- Rendering ---

// SetVolume clamps the requested level into [0,100] rather than rejecting
// an out-of-range request.
func (m *Manager) SetVolume(ctx context.Context, playerID string, level int) error {
	ip, err := m.ip(playerID)
	if err != nil {
		return err
	}
	if err := m.soapClient.SetVolume(ctx, ip, clampVolume(level)); err != nil {
		return apperrors.FromSonosError(err)
	}
	return nil
}

// GroupSetVolume redirects a non-coordinator target to its group's
// coordinator and issues a plain RenderingControl SetVolume there. Only
// that one player's volume changes; the other members' volumes are not
// touched, and the group-rendering service is not used.
func (m *Manager) GroupSetVolume(ctx context.Context, playerID string, level int) error {
	target := playerID
	if m.topo != nil && !m.topo.IsCoordinator(playerID) {
		if coordID, ok := m.topo.CoordinatorFor(playerID); ok {
			target = coordID
		}
	}
	return m.SetVolume(ctx, target, level)
}

func (m *Manager) SetMute(ctx context.Context, playerID string, mute bool) error {
	ip, err := m.ip(playerID)
	if err != nil {
		return err
	}
	if err := m.soapClient.SetMute(ctx, ip, mute); err != nil {
		return apperrors.FromSonosError(err)
	}
	return nil
}

// SetPlaybackMode encodes (shuffle, repeat) into the UPnP PlayMode value.
func (m *Manager) SetPlaybackMode(ctx context.Context, playerID string, shuffle bool, repeat RepeatMode) error {
	ip, err := m.ip(playerID)
	if err != nil {
		return err
	}
	mode := EncodePlayMode(shuffle, repeat)
	if err := m.soapClient.SetPlayMode(ctx, ip, mode); err != nil {
		return apperrors.FromSonosError(err)
	}
	return nil
}

// SetCrossfade enables or disables crossfade between consecutive tracks.
func (m *Manager) SetCrossfade(ctx context.Context, playerID string, enabled bool) error {
	ip, err := m.ip(playerID)
	if err != nil {
		return err
	}
	if err := m.soapClient.SetCrossfadeMode(ctx, ip, enabled); err != nil {
		return apperrors.FromSonosError(err)
	}
	return nil
}

// SetSleepTimer schedules playback to stop after seconds; 0 cancels any
// running timer.
func (m *Manager) SetSleepTimer(ctx context.Context, playerID string, seconds int) error {
	ip, err := m.ip(playerID)
	if err != nil {
		return err
	}
	if err := m.soapClient.ConfigureSleepTimer(ctx, ip, encodeSleepDuration(seconds)); err != nil {
		return apperrors.FromSonosError(err)
	}
	return nil
}

// encodeSleepDuration renders seconds as ConfigureSleepTimer's "H:MM:SS"
// argument; 0 or negative yields "" (cancel).
func encodeSleepDuration(seconds int) string {
	if seconds <= 0 {
		return ""
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}

// --- Grouping ---

// EnsureCoordinator makes playerID a standalone group coordinator if it
// isn't already one. Since a just-applied topology change may not be
// visible yet, it polls briefly before falling back to issuing
// BecomeCoordinatorOfStandaloneGroup unconditionally; a 1023 fault from
// that call means the device was already a coordinator and is treated as
// success.
func (m *Manager) EnsureCoordinator(ctx context.Context, playerID string) error {
	if m.topo != nil {
		deadline := time.Now().Add(coordinatorPollBudget)
		for {
			if m.topo.IsCoordinator(playerID) {
				return nil
			}
			if time.Now().After(deadline) {
				break
			}
			select {
			case <-time.After(coordinatorPollInterval):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	ip, err := m.ip(playerID)
	if err != nil {
		return err
	}
	err = m.soapClient.BecomeCoordinatorOfStandaloneGroup(ctx, ip)
	if err != nil && !isFaultCode(err, "1023") {
		return apperrors.FromSonosError(err)
	}
	return nil
}

// --- Polling ---

// UpdateState fetches transport, volume, mute, and position info in
// parallel, merges them into a State, and replaces the cache entry. It
// returns the events the replacement produced so the caller can publish
// them without a second lookup.
func (m *Manager) UpdateState(ctx context.Context, playerID string) (State, []Event, error) {
	ip, err := m.ip(playerID)
	if err != nil {
		return State{}, nil, err
	}

	var (
		wg       sync.WaitGroup
		transport soap.TransportInfo
		position  soap.PositionInfo
		volume    soap.VolumeInfo
		mute      soap.MuteInfo
		firstErr  error
		mu        sync.Mutex
	)
	recordErr := func(err error) {
		if err == nil {
			return
		}
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	wg.Add(4)
	go func() {
		defer wg.Done()
		v, err := m.soapClient.GetTransportInfo(ctx, ip)
		if err == nil {
			transport = v
		}
		recordErr(err)
	}()
	go func() {
		defer wg.Done()
		v, err := m.soapClient.GetPositionInfo(ctx, ip)
		if err == nil {
			position = v
		}
		recordErr(err)
	}()
	go func() {
		defer wg.Done()
		v, err := m.soapClient.GetVolume(ctx, ip)
		if err == nil {
			volume = v
		}
		recordErr(err)
	}()
	go func() {
		defer wg.Done()
		v, err := m.soapClient.GetMute(ctx, ip)
		if err == nil {
			mute = v
		}
		recordErr(err)
	}()
	wg.Wait()

	if firstErr != nil {
		return State{}, nil, apperrors.FromSonosError(firstErr)
	}

	next := State{
		TransportState: transport.CurrentTransportState,
		Track:          didl.ParseTrack(position.TrackMetaData, position.TrackURI, position.TrackDuration),
		Volume:         volume.CurrentVolume,
		Muted:          mute.CurrentMute,
		UpdatedAt:      time.Now(),
	}

	events := m.states.replace(playerID, next)
	m.emit(events)
	return next, events, nil
}

// --- Event-driven updates (fed by GENA NOTIFY bodies via internal/subscriber) ---

// ApplyTransportChange merges an AVTransport LastChange delta into the
// cached state.
func (m *Manager) ApplyTransportChange(playerID, transportState, trackURI, trackMetaData, duration string) {
	prev, _ := m.states.get(playerID)
	next := prev
	next.TransportState = transportState
	next.Track = didl.ParseTrack(trackMetaData, trackURI, duration)
	next.UpdatedAt = time.Now()
	m.emit(m.states.replace(playerID, next))
}

// ApplyVolumeChange merges a RenderingControl volume delta.
func (m *Manager) ApplyVolumeChange(playerID string, volume int) {
	prev, _ := m.states.get(playerID)
	next := prev
	next.Volume = clampVolume(volume)
	next.UpdatedAt = time.Now()
	m.emit(m.states.replace(playerID, next))
}

// ApplyMuteChange merges a RenderingControl mute delta.
func (m *Manager) ApplyMuteChange(playerID string, muted bool) {
	prev, _ := m.states.get(playerID)
	next := prev
	next.Muted = muted
	next.UpdatedAt = time.Now()
	m.emit(m.states.replace(playerID, next))
}

func clampVolume(level int) int {
	if level < 0 {
		return 0
	}
	if level > 100 {
		return 100
	}
	return level
}

func isFaultCode(err error, code string) bool {
	rejected, ok := err.(*soap.SonosRejectedError)
	return ok && rejected.Code == code
}
