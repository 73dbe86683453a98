package player

import (
	"context"

	"github.com/sonoshub/control-plane/internal/apperrors"
	"github.com/sonoshub/control-plane/internal/didl"
)

// queueBrowseObjectID is the ContentDirectory object id for a player's own
// play queue, per UPnP's well-known "Q:0" queue container.
const queueBrowseObjectID = "Q:0"

// QueueItem is one browsed or queued DIDL-Lite entry. Metadata is the
// item's didl.Item.ResourceMetaData (the text of its <resMD> or <desc>
// child), passed back to AddURIToQueue when queueing a browsed item; it is
// empty for items that carry neither, not the item's own DIDL-Lite XML.
type QueueItem struct {
	ID       string
	ParentID string
	Title    string
	URI      string
	Metadata string
}

// AddURIToQueue appends a single URI to playerID's queue, returning the
// track number the device assigned it. desiredPosition is the 1-based
// queue position to insert before (0 appends at the end); enqueueAsNext
// inserts immediately after the current track instead.
func (m *Manager) AddURIToQueue(ctx context.Context, playerID, uri, metadata string, enqueueAsNext bool, desiredPosition int) (int, error) {
	ip, err := m.ip(playerID)
	if err != nil {
		return 0, err
	}
	trackNum, err := m.soapClient.AddURIToQueue(ctx, ip, uri, metadata, desiredPosition, enqueueAsNext)
	if err != nil {
		return 0, apperrors.FromSonosError(err)
	}
	return trackNum, nil
}

// ClearQueue removes every track from playerID's queue.
func (m *Manager) ClearQueue(ctx context.Context, playerID string) error {
	ip, err := m.ip(playerID)
	if err != nil {
		return err
	}
	if err := m.soapClient.RemoveAllTracksFromQueue(ctx, ip); err != nil {
		return apperrors.FromSonosError(err)
	}
	return nil
}

// Browse lists objectID's children, paged by start/count.
func (m *Manager) Browse(ctx context.Context, playerID, objectID string, start, count int) ([]QueueItem, int, error) {
	ip, err := m.ip(playerID)
	if err != nil {
		return nil, 0, err
	}
	result, err := m.soapClient.Browse(ctx, ip, objectID, "BrowseDirectChildren", "*", start, count)
	if err != nil {
		return nil, 0, apperrors.FromSonosError(err)
	}
	return toQueueItems(result.Items), result.TotalMatches, nil
}

// GetQueue pages playerID's current play queue.
func (m *Manager) GetQueue(ctx context.Context, playerID string, limit, offset int) ([]QueueItem, int, error) {
	return m.Browse(ctx, playerID, queueBrowseObjectID, offset, limit)
}

func toQueueItems(items []didl.Item) []QueueItem {
	out := make([]QueueItem, 0, len(items))
	for _, it := range items {
		out = append(out, QueueItem{
			ID:       it.ID,
			ParentID: it.ParentID,
			Title:    it.Title,
			URI:      it.Resource,
			Metadata: it.ResourceMetaData,
		})
	}
	return out
}
