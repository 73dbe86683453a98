package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sonoshub/control-plane/internal/hub"
)

// Config holds the control plane's own configuration. It deliberately
// excludes everything the outer router owns: preset loading, persisted
// config, and third-party music service credentials.
type Config struct {
	Host string
	Port string

	SQLiteDBPath string

	JWTSecret string

	SSDPDiscoveryTimeoutMs int
	SSDPDiscoveryPasses    int
	SSDPPassIntervalMs     int
	SSDPRescanIntervalMs   int
	StaticDeviceIPs        []string

	NotifyCallbackPort int

	SonosTimeoutMs int

	ZoneCacheTTLSeconds int

	UPnPEventsEnabled          bool
	UPnPSubscriptionTimeoutSec int
	UPnPStateCacheTTLSeconds   int

	WebhookTargets []hub.WebhookTarget
}

// OverlayWebhookTarget is a webhook target as written in the YAML overlay:
// url is required; headers and type are optional, per spec.md's webhook
// contract (type filters delivery to one of "volume", "transport",
// "topology"; omitted means every event).
type OverlayWebhookTarget struct {
	URL     string            `yaml:"url"`
	Headers map[string]string `yaml:"headers"`
	Type    string            `yaml:"type"`
}

// Overlay is an optional YAML file of list-shaped settings that don't fit
// comfortably into a single environment variable: static device IPs to
// probe alongside SSDP discovery, and webhook targets the event hub fans
// NOTIFY-derived events out to.
type Overlay struct {
	StaticDeviceIPs []string               `yaml:"staticDeviceIPs"`
	WebhookTargets  []OverlayWebhookTarget `yaml:"webhookTargets"`
}

// Load reads configuration from environment variables with defaults, then
// applies an optional YAML overlay named by CONFIG_OVERLAY_PATH.
func Load() (Config, error) {
	jwtSecret := envString("JWT_SECRET", "")
	if len(strings.TrimSpace(jwtSecret)) < 32 {
		return Config{}, fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}

	cfg := Config{
		Host:                       envString("HOST", "0.0.0.0"),
		Port:                       envString("PORT", "9010"),
		SQLiteDBPath:               envString("SQLITE_DB_PATH", "./data/control-plane.db"),
		JWTSecret:                  jwtSecret,
		SSDPDiscoveryTimeoutMs:     envInt("SSDP_DISCOVERY_TIMEOUT_MS", 5000),
		SSDPDiscoveryPasses:        envInt("SSDP_DISCOVERY_PASSES", 3),
		SSDPPassIntervalMs:         envInt("SSDP_PASS_INTERVAL_MS", 2000),
		SSDPRescanIntervalMs:       envInt("SSDP_RESCAN_INTERVAL_MS", 60000),
		StaticDeviceIPs:            envCSV("STATIC_DEVICE_IPS"),
		NotifyCallbackPort:         envInt("NOTIFY_CALLBACK_PORT", 9011),
		SonosTimeoutMs:             envInt("SONOS_TIMEOUT_MS", 5000),
		ZoneCacheTTLSeconds:        envInt("ZONE_CACHE_TTL_SECONDS", 30),
		UPnPEventsEnabled:          envBool("UPNP_EVENTS_ENABLED", true),
		UPnPSubscriptionTimeoutSec: envInt("UPNP_SUBSCRIPTION_TIMEOUT", 3600),
		UPnPStateCacheTTLSeconds:   envInt("UPNP_STATE_CACHE_TTL_SECONDS", 30),
		WebhookTargets:             envWebhookTargets("WEBHOOK_TARGETS"),
	}

	overlayPath := envString("CONFIG_OVERLAY_PATH", "")
	if overlayPath != "" {
		if err := applyOverlay(&cfg, overlayPath); err != nil {
			return Config{}, fmt.Errorf("config overlay %s: %w", overlayPath, err)
		}
	}

	return cfg, nil
}

func applyOverlay(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var overlay Overlay
	if err := yaml.Unmarshal(raw, &overlay); err != nil {
		return err
	}

	if len(overlay.StaticDeviceIPs) > 0 {
		cfg.StaticDeviceIPs = append(cfg.StaticDeviceIPs, overlay.StaticDeviceIPs...)
	}
	for _, t := range overlay.WebhookTargets {
		cfg.WebhookTargets = append(cfg.WebhookTargets, hub.WebhookTarget{
			URL:     t.URL,
			Headers: t.Headers,
			Type:    t.Type,
		})
	}
	return nil
}

func envString(key, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func envInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func envBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return strings.EqualFold(val, "true")
}

// envWebhookTargets reads a CSV of plain webhook URLs from the environment.
// The environment can't express per-webhook headers or a type filter —
// those are only configurable through the YAML overlay's richer
// OverlayWebhookTarget shape — so env-configured targets always receive
// every event.
func envWebhookTargets(key string) []hub.WebhookTarget {
	urls := envCSV(key)
	targets := make([]hub.WebhookTarget, 0, len(urls))
	for _, u := range urls {
		targets = append(targets, hub.WebhookTarget{URL: u})
	}
	return targets
}

func envCSV(key string) []string {
	val := os.Getenv(key)
	if val == "" {
		return []string{}
	}
	parts := strings.Split(val, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		result = append(result, trimmed)
	}
	return result
}
