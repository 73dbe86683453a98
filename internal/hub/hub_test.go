package hub

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sonoshub/control-plane/internal/player"
)

func TestSSEClient_SendsInitialPingOnConnect(t *testing.T) {
	rec := httptest.NewRecorder()
	_, ok := NewSSEClient(rec)
	require.True(t, ok)

	assert.Equal(t, ":ping\n\n", rec.Body.String())
}

func TestHub_PublishDeliversToSSEClient(t *testing.T) {
	rec := httptest.NewRecorder()
	client, ok := NewSSEClient(rec)
	require.True(t, ok)

	h := New(nil)
	h.AddSSEClient(client)
	h.Publish(map[string]string{"kind": "deviceStateChange"})

	assert.Contains(t, rec.Body.String(), "data: ")
	assert.Contains(t, rec.Body.String(), "deviceStateChange")
}

func TestHub_WebhookDropsInvalidURLSilently(t *testing.T) {
	h := New([]WebhookTarget{{URL: "://not-a-valid-url"}})
	assert.NotPanics(t, func() {
		h.Publish(map[string]string{"kind": "test"})
		h.Drain(time.Second)
	})
}

func TestHub_WebhookPOSTsJSONWithCustomHeaders(t *testing.T) {
	received := make(chan *http.Request, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		received <- r
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	h := New([]WebhookTarget{{URL: srv.URL, Headers: map[string]string{"X-Api-Key": "secret"}}})
	h.Publish(map[string]string{"kind": "test"})
	h.Drain(2 * time.Second)

	select {
	case req := <-received:
		assert.Equal(t, http.MethodPost, req.Method)
		assert.Equal(t, "secret", req.Header.Get("X-Api-Key"))
	case <-time.After(2 * time.Second):
		t.Fatal("webhook was not delivered")
	}
}

func TestHub_WebhookTypeFilterSkipsNonMatchingEvents(t *testing.T) {
	received := make(chan string, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received <- "hit"
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	h := New([]WebhookTarget{{URL: srv.URL, Type: "volume"}})

	h.Publish(player.Event{Kind: player.EventTrackChange})
	h.Drain(time.Second)
	select {
	case <-received:
		t.Fatal("transport-category event should not have matched a volume-only filter")
	case <-time.After(200 * time.Millisecond):
	}

	h.Publish(player.Event{Kind: player.EventVolumeChange})
	h.Drain(2 * time.Second)
	select {
	case <-received:
	case <-time.After(2 * time.Second):
		t.Fatal("volume event should have matched a volume-only filter")
	}
}

func TestWebhookCategory(t *testing.T) {
	assert.Equal(t, "volume", webhookCategory(player.Event{Kind: player.EventVolumeChange}))
	assert.Equal(t, "transport", webhookCategory(player.Event{Kind: player.EventDeviceStateChange}))
	assert.Equal(t, "topology", webhookCategory(TopologyEvent{Kind: TopologyEventKind}))
	assert.Equal(t, "", webhookCategory(map[string]string{"kind": "unknown"}))
}

func TestSSEClient_SendAfterCloseReportsDetach(t *testing.T) {
	rec := httptest.NewRecorder()
	client, ok := NewSSEClient(rec)
	require.True(t, ok)
	client.Close()

	assert.False(t, client.send([]byte(`{}`)))
}
