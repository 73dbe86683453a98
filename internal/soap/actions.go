package soap

import (
	"context"
	"strconv"
)

// AVTransport actions.

func (c *Client) GetTransportInfo(ctx context.Context, ip string) (TransportInfo, error) {
	payload, err := c.ExecuteAction(ctx, ip, ServiceAVTransport, "GetTransportInfo", []Arg{
		{"InstanceID", "0"},
	})
	if err != nil {
		return TransportInfo{}, err
	}
	return parseTransportInfo(payload), nil
}

func (c *Client) GetPositionInfo(ctx context.Context, ip string) (PositionInfo, error) {
	payload, err := c.ExecuteAction(ctx, ip, ServiceAVTransport, "GetPositionInfo", []Arg{
		{"InstanceID", "0"},
	})
	if err != nil {
		return PositionInfo{}, err
	}
	return parsePositionInfo(payload), nil
}

func (c *Client) GetMediaInfo(ctx context.Context, ip string) (MediaInfo, error) {
	payload, err := c.ExecuteAction(ctx, ip, ServiceAVTransport, "GetMediaInfo", []Arg{
		{"InstanceID", "0"},
	})
	if err != nil {
		return MediaInfo{}, err
	}
	return parseMediaInfo(payload), nil
}

func (c *Client) Play(ctx context.Context, ip string) error {
	_, err := c.ExecuteAction(ctx, ip, ServiceAVTransport, "Play", []Arg{
		{"InstanceID", "0"},
		{"Speed", "1"},
	})
	return err
}

func (c *Client) Pause(ctx context.Context, ip string) error {
	_, err := c.ExecuteAction(ctx, ip, ServiceAVTransport, "Pause", []Arg{
		{"InstanceID", "0"},
	})
	return err
}

func (c *Client) Stop(ctx context.Context, ip string) error {
	_, err := c.ExecuteAction(ctx, ip, ServiceAVTransport, "Stop", []Arg{
		{"InstanceID", "0"},
	})
	return err
}

func (c *Client) Next(ctx context.Context, ip string) error {
	_, err := c.ExecuteAction(ctx, ip, ServiceAVTransport, "Next", []Arg{
		{"InstanceID", "0"},
	})
	return err
}

func (c *Client) Previous(ctx context.Context, ip string) error {
	_, err := c.ExecuteAction(ctx, ip, ServiceAVTransport, "Previous", []Arg{
		{"InstanceID", "0"},
	})
	return err
}

func (c *Client) SetAVTransportURI(ctx context.Context, ip, uri, metadata string) error {
	_, err := c.ExecuteAction(ctx, ip, ServiceAVTransport, "SetAVTransportURI", []Arg{
		{"InstanceID", "0"},
		{"CurrentURI", uri},
		{"CurrentURIMetaData", metadata},
	})
	return err
}

func (c *Client) AddURIToQueue(ctx context.Context, ip, uri, metadata string, position int, enqueueNext bool) (int, error) {
	asNext := "0"
	if enqueueNext {
		asNext = "1"
	}
	payload, err := c.ExecuteAction(ctx, ip, ServiceAVTransport, "AddURIToQueue", []Arg{
		{"InstanceID", "0"},
		{"EnqueuedURI", uri},
		{"EnqueuedURIMetaData", metadata},
		{"DesiredFirstTrackNumberEnqueued", strconv.Itoa(position)},
		{"EnqueueAsNext", asNext},
	})
	if err != nil {
		return 0, err
	}
	trackNum, _ := strconv.Atoi(parseTextValue(payload, "FirstTrackNumberEnqueued"))
	return trackNum, nil
}

func (c *Client) RemoveAllTracksFromQueue(ctx context.Context, ip string) error {
	_, err := c.ExecuteAction(ctx, ip, ServiceAVTransport, "RemoveAllTracksFromQueue", []Arg{
		{"InstanceID", "0"},
	})
	return err
}

func (c *Client) SetPlayMode(ctx context.Context, ip, mode string) error {
	_, err := c.ExecuteAction(ctx, ip, ServiceAVTransport, "SetPlayMode", []Arg{
		{"InstanceID", "0"},
		{"NewPlayMode", mode},
	})
	return err
}

func (c *Client) Seek(ctx context.Context, ip, unit, target string) error {
	_, err := c.ExecuteAction(ctx, ip, ServiceAVTransport, "Seek", []Arg{
		{"InstanceID", "0"},
		{"Unit", unit},
		{"Target", target},
	})
	return err
}

func (c *Client) BecomeCoordinatorOfStandaloneGroup(ctx context.Context, ip string) error {
	_, err := c.ExecuteAction(ctx, ip, ServiceAVTransport, "BecomeCoordinatorOfStandaloneGroup", []Arg{
		{"InstanceID", "0"},
	})
	return err
}

// SetCrossfadeMode enables or disables crossfade between tracks.
func (c *Client) SetCrossfadeMode(ctx context.Context, ip string, enabled bool) error {
	value := "0"
	if enabled {
		value = "1"
	}
	_, err := c.ExecuteAction(ctx, ip, ServiceAVTransport, "SetCrossfadeMode", []Arg{
		{"InstanceID", "0"},
		{"CrossfadeMode", value},
	})
	return err
}

// ConfigureSleepTimer schedules playback to stop after duration, given as
// "H:MM:SS". An empty duration cancels any running timer.
func (c *Client) ConfigureSleepTimer(ctx context.Context, ip, duration string) error {
	_, err := c.ExecuteAction(ctx, ip, ServiceAVTransport, "ConfigureSleepTimer", []Arg{
		{"InstanceID", "0"},
		{"NewSleepTimerDuration", duration},
	})
	return err
}

// RenderingControl actions.

func (c *Client) GetVolume(ctx context.Context, ip string) (VolumeInfo, error) {
	payload, err := c.ExecuteAction(ctx, ip, ServiceRenderingControl, "GetVolume", []Arg{
		{"InstanceID", "0"},
		{"Channel", "Master"},
	})
	if err != nil {
		return VolumeInfo{}, err
	}
	return parseVolume(payload), nil
}

func (c *Client) SetVolume(ctx context.Context, ip string, level int) error {
	_, err := c.ExecuteAction(ctx, ip, ServiceRenderingControl, "SetVolume", []Arg{
		{"InstanceID", "0"},
		{"Channel", "Master"},
		{"DesiredVolume", strconv.Itoa(level)},
	})
	return err
}

func (c *Client) GetMute(ctx context.Context, ip string) (MuteInfo, error) {
	payload, err := c.ExecuteAction(ctx, ip, ServiceRenderingControl, "GetMute", []Arg{
		{"InstanceID", "0"},
		{"Channel", "Master"},
	})
	if err != nil {
		return MuteInfo{}, err
	}
	return parseMute(payload), nil
}

func (c *Client) SetMute(ctx context.Context, ip string, mute bool) error {
	desired := "0"
	if mute {
		desired = "1"
	}
	_, err := c.ExecuteAction(ctx, ip, ServiceRenderingControl, "SetMute", []Arg{
		{"InstanceID", "0"},
		{"Channel", "Master"},
		{"DesiredMute", desired},
	})
	return err
}

// ZoneGroupTopology actions.

func (c *Client) GetZoneGroupState(ctx context.Context, ip string) (ZoneGroupState, error) {
	payload, err := c.ExecuteAction(ctx, ip, ServiceZoneGroupTopology, "GetZoneGroupState", nil)
	if err != nil {
		return ZoneGroupState{}, err
	}
	return parseZoneGroupState(payload), nil
}

// DeviceProperties actions.

func (c *Client) GetZoneAttributes(ctx context.Context, ip string) (ZoneAttributes, error) {
	payload, err := c.ExecuteAction(ctx, ip, ServiceDeviceProperties, "GetZoneAttributes", nil)
	if err != nil {
		return ZoneAttributes{}, err
	}
	return parseZoneAttributes(payload), nil
}

// ContentDirectory actions.

func (c *Client) Browse(ctx context.Context, ip, objectID, browseFlag, filter string, startIndex, requestedCount int) (BrowseResult, error) {
	payload, err := c.ExecuteAction(ctx, ip, ServiceContentDirectory, "Browse", []Arg{
		{"ObjectID", objectID},
		{"BrowseFlag", browseFlag},
		{"Filter", filter},
		{"StartingIndex", strconv.Itoa(startIndex)},
		{"RequestedCount", strconv.Itoa(requestedCount)},
		{"SortCriteria", ""},
	})
	if err != nil {
		return BrowseResult{}, err
	}
	return parseBrowseResult(payload), nil
}
