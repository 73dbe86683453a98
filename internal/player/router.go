package player

import (
	"context"
	"strings"
	"time"

	"github.com/sonoshub/control-plane/internal/apperrors"
)

// ContentURIKind classifies a content URI for PlayURI's dispatch.
type ContentURIKind string

const (
	// KindLibraryPlaylist is "x-rincon-playlist:<deviceId>#<id>": a local
	// music-library playlist that must be expanded via Browse and enqueued
	// track by track.
	KindLibraryPlaylist ContentURIKind = "libraryPlaylist"
	// KindQueueContainer is "x-rincon-cpcontainer:<id>": a streaming-service
	// container the device can queue directly without client-side expansion.
	KindQueueContainer ContentURIKind = "queueContainer"
	// KindGroupMember is "x-rincon:<uuid>": a request to join another
	// player's group rather than play independent content.
	KindGroupMember ContentURIKind = "groupMember"
	// KindDirect is anything else: a directly playable URI (http(s) stream,
	// station URI, line-in, etc).
	KindDirect ContentURIKind = "direct"
)

// ClassifyContentURI determines how PlayURI should route a content URI.
// Unknown schemes fall back to KindDirect rather than erroring, matching
// the invalid-argument policy of treating an unrecognized URI scheme as
// playable as-is.
func ClassifyContentURI(uri string) ContentURIKind {
	switch {
	case strings.HasPrefix(uri, "x-rincon-playlist:"):
		return KindLibraryPlaylist
	case strings.HasPrefix(uri, "x-rincon-cpcontainer:"):
		return KindQueueContainer
	case strings.HasPrefix(uri, "x-rincon:"):
		return KindGroupMember
	default:
		return KindDirect
	}
}

// browseExpandLimit bounds how many items a library-playlist expansion
// enqueues in one PlayURI call.
const browseExpandLimit = 1000

// PlayURI routes a content URI to the right sequence of transport calls per
// its kind. Every kind except KindGroupMember first ensures playerID is a
// coordinator.
func (m *Manager) PlayURI(ctx context.Context, playerID, uri, metadata string) error {
	switch ClassifyContentURI(uri) {
	case KindLibraryPlaylist:
		return m.playLibraryPlaylist(ctx, playerID, uri)
	case KindQueueContainer:
		return m.playQueueContainer(ctx, playerID, uri, metadata)
	case KindGroupMember:
		return m.joinGroupMember(ctx, playerID, uri)
	default:
		return m.playDirect(ctx, playerID, uri, metadata)
	}
}

func (m *Manager) playLibraryPlaylist(ctx context.Context, playerID, uri string) error {
	id, ok := playlistObjectID(uri)
	if !ok {
		return apperrors.NewValidationError("malformed library playlist uri", map[string]any{"uri": uri})
	}

	if err := m.EnsureCoordinator(ctx, playerID); err != nil {
		return err
	}
	ip, err := m.ip(playerID)
	if err != nil {
		return err
	}

	if err := m.ClearQueue(ctx, playerID); err != nil {
		return err
	}

	items, _, err := m.Browse(ctx, playerID, id, 0, browseExpandLimit)
	if err != nil {
		return err
	}
	for _, item := range items {
		if _, err := m.AddURIToQueue(ctx, playerID, item.URI, item.Metadata, false, 0); err != nil {
			return err
		}
	}

	queueURI := "x-rincon-queue:" + playerID + "#0"
	if err := m.soapClient.SetAVTransportURI(ctx, ip, queueURI, ""); err != nil {
		return apperrors.FromSonosError(err)
	}
	return m.Play(ctx, playerID)
}

func (m *Manager) playQueueContainer(ctx context.Context, playerID, uri, metadata string) error {
	if err := m.EnsureCoordinator(ctx, playerID); err != nil {
		return err
	}
	ip, err := m.ip(playerID)
	if err != nil {
		return err
	}

	if err := m.ClearQueue(ctx, playerID); err != nil {
		return err
	}
	if _, err := m.AddURIToQueue(ctx, playerID, uri, metadata, false, 0); err != nil {
		return err
	}

	queueURI := "x-rincon-queue:" + playerID + "#0"
	if err := m.soapClient.SetAVTransportURI(ctx, ip, queueURI, ""); err != nil {
		return apperrors.FromSonosError(err)
	}
	return m.Play(ctx, playerID)
}

func (m *Manager) playDirect(ctx context.Context, playerID, uri, metadata string) error {
	if err := m.EnsureCoordinator(ctx, playerID); err != nil {
		return err
	}
	ip, err := m.ip(playerID)
	if err != nil {
		return err
	}

	_ = m.soapClient.Stop(ctx, ip)

	if err := m.soapClient.SetAVTransportURI(ctx, ip, uri, metadata); err != nil {
		return apperrors.FromSonosError(err)
	}

	if strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://") {
		select {
		case <-time.After(settleDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return m.Play(ctx, playerID)
}

// joinGroupMember makes playerID follow the group of the player named in
// "x-rincon:<uuid>", per the grouping collaborator interface: this control
// plane doesn't expose a separate "join group" verb, so the content router
// doubles as the grouping entry point.
func (m *Manager) joinGroupMember(ctx context.Context, playerID, uri string) error {
	targetUUID := strings.TrimPrefix(uri, "x-rincon:")
	if targetUUID == "" {
		return apperrors.NewValidationError("malformed group member uri", map[string]any{"uri": uri})
	}
	ip, err := m.ip(playerID)
	if err != nil {
		return err
	}
	if err := m.soapClient.SetAVTransportURI(ctx, ip, uri, ""); err != nil {
		return apperrors.FromSonosError(err)
	}
	return nil
}

// playlistObjectID extracts the object id from
// "x-rincon-playlist:<deviceId>#<id>".
func playlistObjectID(uri string) (string, bool) {
	rest := strings.TrimPrefix(uri, "x-rincon-playlist:")
	idx := strings.LastIndex(rest, "#")
	if idx < 0 || idx == len(rest)-1 {
		return "", false
	}
	return rest[idx+1:], true
}
