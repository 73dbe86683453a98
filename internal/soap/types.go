package soap

// Service identifies a Sonos UPnP service.
type Service string

const (
	ServiceAVTransport       Service = "AVTransport"
	ServiceRenderingControl  Service = "RenderingControl"
	ServiceContentDirectory  Service = "ContentDirectory"
	ServiceZoneGroupTopology Service = "ZoneGroupTopology"
	ServiceDeviceProperties  Service = "DeviceProperties"
	ServiceAlarmClock        Service = "AlarmClock"
)

var serviceTypes = map[Service]string{
	ServiceAVTransport:       "urn:schemas-upnp-org:service:AVTransport:1",
	ServiceRenderingControl:  "urn:schemas-upnp-org:service:RenderingControl:1",
	ServiceContentDirectory:  "urn:schemas-upnp-org:service:ContentDirectory:1",
	ServiceZoneGroupTopology: "urn:schemas-upnp-org:service:ZoneGroupTopology:1",
	ServiceDeviceProperties:  "urn:schemas-upnp-org:service:DeviceProperties:1",
	ServiceAlarmClock:        "urn:schemas-upnp-org:service:AlarmClock:1",
}

var controlPaths = map[Service]string{
	ServiceAVTransport:       "/MediaRenderer/AVTransport/Control",
	ServiceRenderingControl:  "/MediaRenderer/RenderingControl/Control",
	ServiceContentDirectory:  "/MediaServer/ContentDirectory/Control",
	ServiceZoneGroupTopology: "/ZoneGroupTopology/Control",
	ServiceDeviceProperties:  "/DeviceProperties/Control",
	ServiceAlarmClock:        "/AlarmClock/Control",
}

// eventPaths maps each service to its built-in GENA subscription path.
var eventPaths = map[Service]string{
	ServiceAVTransport:       "/MediaRenderer/AVTransport/Event",
	ServiceRenderingControl:  "/MediaRenderer/RenderingControl/Event",
	ServiceZoneGroupTopology: "/ZoneGroupTopology/Event",
	ServiceContentDirectory:  "/MediaServer/ContentDirectory/Event",
	ServiceDeviceProperties:  "/DeviceProperties/Event",
	ServiceAlarmClock:        "/AlarmClock/Event",
}

// EventPath returns the GENA subscription path for the given service.
func EventPath(s Service) string {
	return eventPaths[s]
}

// ControlPath returns the fallback SOAP control path for the given service.
func ControlPath(s Service) string {
	return controlPaths[s]
}

// ServiceTypeURN returns the UPnP service type URN for the given service.
func ServiceTypeURN(s Service) string {
	return serviceTypes[s]
}

// LookupServiceByType reverse-maps a UPnP serviceType URN (as found in a
// device description's <serviceList>) back to a Service constant. Used to
// prefer discovered control/event URLs over the built-in table.
func LookupServiceByType(serviceType string) (Service, bool) {
	for svc, urn := range serviceTypes {
		if urn == serviceType {
			return svc, true
		}
	}
	return "", false
}

// DefaultControlURL builds the fallback control URL for a service on a
// device at the given IP, used when a device description doesn't carry a
// usable discovered control URL.
func DefaultControlURL(ip string, s Service) string {
	return "http://" + ip + ":1400" + controlPaths[s]
}
