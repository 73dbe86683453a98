package hub

import (
	"time"

	"github.com/sonoshub/control-plane/internal/player"
	"github.com/sonoshub/control-plane/internal/topology"
)

// TopologyEventKind names the topologyChange variant of the event stream.
const TopologyEventKind = "topologyChange"

// TopologyEvent is published whenever the topology manager replaces its
// zones list, the topology counterpart to player.Event.
type TopologyEvent struct {
	Kind  string
	Zones []topology.Zone
	At    time.Time
}

// webhookCategory classifies an event against the webhook filter
// vocabulary spec.md names: "volume", "transport", "topology". player
// events that aren't a volume change are reported as "transport" — this
// control plane has no separate rendering-only filter bucket, so mute and
// device-state/track changes both fall under "transport" alongside the
// literal AVTransport-sourced ones.
func webhookCategory(event any) string {
	switch e := event.(type) {
	case player.Event:
		if e.Kind == player.EventVolumeChange {
			return "volume"
		}
		return "transport"
	case TopologyEvent:
		return "topology"
	default:
		return ""
	}
}
