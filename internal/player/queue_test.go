package player

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sonoshub/control-plane/internal/apperrors"
	"github.com/sonoshub/control-plane/internal/didl"
)

func TestAddURIToQueue_UnknownPlayer(t *testing.T) {
	m := New(nil, &fakeLocator{}, &fakeTopology{})
	_, err := m.AddURIToQueue(context.Background(), "missing", "uri", "", false, 0)
	require.Error(t, err)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrorCodeDeviceNotFound, appErr.Code)
}

func TestClearQueue_UnknownPlayer(t *testing.T) {
	m := New(nil, &fakeLocator{}, &fakeTopology{})
	err := m.ClearQueue(context.Background(), "missing")
	require.Error(t, err)
}

func TestBrowse_UnknownPlayer(t *testing.T) {
	m := New(nil, &fakeLocator{}, &fakeTopology{})
	_, _, err := m.Browse(context.Background(), "missing", "A:ARTISTS", 0, 10)
	require.Error(t, err)
}

func TestGetQueue_UnknownPlayer(t *testing.T) {
	m := New(nil, &fakeLocator{}, &fakeTopology{})
	_, _, err := m.GetQueue(context.Background(), "missing", 10, 0)
	require.Error(t, err)
}

func TestToQueueItems(t *testing.T) {
	items := toQueueItems([]didl.Item{
		{ID: "1", ParentID: "0", Title: "Track", Resource: "http://x/1.mp3", ResourceMetaData: "<DIDL/>"},
	})
	require.Len(t, items, 1)
	assert.Equal(t, "1", items[0].ID)
	assert.Equal(t, "Track", items[0].Title)
	assert.Equal(t, "http://x/1.mp3", items[0].URI)
	assert.Equal(t, "<DIDL/>", items[0].Metadata)
}
