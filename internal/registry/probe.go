package registry

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sonoshub/control-plane/internal/didl"
	"github.com/sonoshub/control-plane/internal/soap"
)

var probeHTTPClient = &http.Client{
	Timeout: 5 * time.Second,
	Transport: &http.Transport{
		DialContext:         (&net.Dialer{Timeout: 3 * time.Second}).DialContext,
		TLSHandshakeTimeout: 3 * time.Second,
		IdleConnTimeout:     30 * time.Second,
	},
}

// ServiceDescriptor records where a player's SOAP control and GENA event
// subscription endpoints actually live. Discovered URLs (parsed out of the
// device description) are preferred; the built-in soap.DefaultControlURL
// table is the fallback for any service the description didn't list.
type ServiceDescriptor struct {
	Service    soap.Service
	ControlURL string
	EventURL   string
}

// probeResult is what a successful device-description fetch yields.
type probeResult struct {
	UDN             string
	ModelName       string
	ModelNumber     string
	RoomName        string
	SerialNumber    string
	SoftwareVersion string
	HardwareVersion string
	Location        string
	Services        []ServiceDescriptor
}

// probeDevice fetches and parses a device's description document plus its
// service list, building the full set of service descriptors for the
// device at ip.
func probeDevice(ctx context.Context, ip string) (*probeResult, error) {
	location := "http://" + ip + ":1400/xml/device_description.xml"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, err
	}

	resp, err := probeHTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	desc, err := didl.ParseDeviceDescription(body)
	if err != nil || desc == nil || desc.UDN == "" {
		return nil, nil
	}

	base, err := url.Parse(location)
	if err != nil {
		return nil, err
	}

	var services []ServiceDescriptor
	for _, entry := range didl.ParseServiceList(body) {
		svc, ok := soap.LookupServiceByType(entry.ServiceType)
		if !ok {
			continue
		}
		services = append(services, ServiceDescriptor{
			Service:    svc,
			ControlURL: resolveURL(base, entry.ControlURL, soap.DefaultControlURL(ip, svc)),
			EventURL:   resolveURL(base, entry.EventSubURL, "http://"+ip+":1400"+soap.EventPath(svc)),
		})
	}

	return &probeResult{
		UDN:             desc.UDN,
		ModelName:       desc.ModelName,
		ModelNumber:     desc.ModelNumber,
		RoomName:        desc.RoomName,
		SerialNumber:    desc.SerialNumber,
		SoftwareVersion: desc.SoftwareVersion,
		HardwareVersion: desc.HardwareVersion,
		Location:        location,
		Services:        services,
	}, nil
}

func resolveURL(base *url.URL, discovered, fallback string) string {
	if strings.TrimSpace(discovered) == "" {
		return fallback
	}
	ref, err := url.Parse(discovered)
	if err != nil {
		return fallback
	}
	return base.ResolveReference(ref).String()
}

func extractHost(location string) string {
	if location == "" {
		return ""
	}
	parsed, err := url.Parse(location)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(parsed.Hostname())
}
