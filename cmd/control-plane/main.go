package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/mattn/go-sqlite3"

	"github.com/sonoshub/control-plane/internal/apperrors"
	"github.com/sonoshub/control-plane/internal/auth"
	"github.com/sonoshub/control-plane/internal/config"
	"github.com/sonoshub/control-plane/internal/hub"
	"github.com/sonoshub/control-plane/internal/player"
	"github.com/sonoshub/control-plane/internal/registry"
	"github.com/sonoshub/control-plane/internal/scheduler"
	"github.com/sonoshub/control-plane/internal/soap"
	"github.com/sonoshub/control-plane/internal/store"
	"github.com/sonoshub/control-plane/internal/subscriber"
	"github.com/sonoshub/control-plane/internal/topology"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	db, err := store.Open(cfg.SQLiteDBPath)
	if err != nil {
		log.Fatalf("store open error: %v", err)
	}
	defer db.Close()

	soapClient := soap.NewClient(time.Duration(cfg.SonosTimeoutMs) * time.Millisecond)

	reg := registry.New(registry.Config{
		Passes:          cfg.SSDPDiscoveryPasses,
		PassInterval:    time.Duration(cfg.SSDPPassIntervalMs) * time.Millisecond,
		Timeout:         time.Duration(cfg.SSDPDiscoveryTimeoutMs) * time.Millisecond,
		StaticDeviceIPs: cfg.StaticDeviceIPs,
	}, db)

	topo := topology.New(reg)

	eventHub := hub.New(cfg.WebhookTargets)

	players := player.New(soapClient, reg, topo)
	players.OnEvent(func(e player.Event) {
		eventHub.Publish(e)
	})
	topo.OnChange(func(zones []topology.Zone, at time.Time) {
		eventHub.Publish(hub.TopologyEvent{Kind: hub.TopologyEventKind, Zones: zones, At: at})
	})

	var sub *subscriber.Subscriber
	if cfg.UPnPEventsEnabled {
		sub = subscriber.New(func(playerID string, service soap.Service, body []byte) {
			handleNotify(players, topo, playerID, service, body)
		})
		if err := sub.Start(cfg.NotifyCallbackPort); err != nil {
			log.Fatalf("subscriber start error: %v", err)
		}

		reg.OnDiscovered(func(p *registry.Player) {
			subscribeAll(sub, topo, p, cfg.UPnPSubscriptionTimeoutSec)
		})
	}

	sched := scheduler.New(log.Default())
	if err := sched.ScheduleRescan(time.Duration(cfg.SSDPRescanIntervalMs)*time.Millisecond, func(ctx context.Context) {
		if _, err := reg.Discover(ctx); err != nil {
			log.Printf("periodic rescan error: %v", err)
		}
	}); err != nil {
		log.Fatalf("scheduler rescan error: %v", err)
	}
	if err := sched.SchedulePrune(time.Minute, time.Duration(cfg.UPnPStateCacheTTLSeconds)*time.Second*4, func(maxAge time.Duration) {
		players.PruneStale(maxAge)
	}); err != nil {
		log.Fatalf("scheduler prune error: %v", err)
	}
	sched.Start()

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 15*time.Second)
	if _, err := reg.Discover(startupCtx); err != nil {
		log.Printf("startup discovery error: %v", err)
	}
	startupCancel()

	router := buildRouter(cfg, reg, players, eventHub)
	srv := &http.Server{
		Addr:              cfg.Host + ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-shutdownCh
		log.Print("shutting down")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		sched.Stop(ctx)
		if sub != nil {
			if err := sub.Stop(ctx); err != nil {
				log.Printf("subscriber stop error: %v", err)
			}
		}
		eventHub.Drain(3 * time.Second)
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("http shutdown error: %v", err)
		}
	}()

	log.Printf("control plane listening on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}

// subscribeAll acquires GENA subscriptions for every service a newly
// discovered player advertises that this control plane tracks state for.
// Stereo-pair secondaries are skipped entirely: they neither accept
// transport/volume subscriptions reliably nor serve events, so all control
// and all subscriptions route through the primary instead. If topology
// hasn't yet classified this player (e.g. discovered before its first
// ZoneGroupState), it is treated as a primary and subscribed normally; a
// later ZoneGroupTopology event that reveals it as a secondary does not
// retroactively tear down the subscription, but a secondary never drives
// reliable events regardless of subscription state.
func subscribeAll(sub *subscriber.Subscriber, topo *topology.Manager, p *registry.Player, timeoutSec int) {
	if topo.IsStereoPairSecondary(p.ID) {
		return
	}

	tracked := map[soap.Service]bool{
		soap.ServiceAVTransport:       true,
		soap.ServiceRenderingControl:  true,
		soap.ServiceZoneGroupTopology: true,
	}
	for _, svc := range p.Services {
		if !tracked[svc.Service] {
			continue
		}
		playerBaseURL := "http://" + p.IP + ":1400"
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if _, err := sub.Subscribe(ctx, playerBaseURL, svc.EventURL, p.ID, svc.Service, timeoutSec); err != nil {
			log.Printf("subscribe %s/%s error: %v", p.ID, svc.Service, err)
		}
		cancel()
	}
}

func handleNotify(players *player.Manager, topo *topology.Manager, playerID string, service soap.Service, body []byte) {
	switch service {
	case soap.ServiceAVTransport:
		change, err := subscriber.ParseAVTransportNotify(body)
		if err != nil || change == nil {
			return
		}
		players.ApplyTransportChange(playerID, change.TransportState, change.CurrentTrackURI, change.CurrentTrackMetaData, change.CurrentTrackDuration)
	case soap.ServiceRenderingControl:
		change, err := subscriber.ParseRenderingControlNotify(body)
		if err != nil || change == nil {
			return
		}
		if change.HasVolume {
			players.ApplyVolumeChange(playerID, change.Volume)
		}
		if change.HasMute {
			players.ApplyMuteChange(playerID, change.Muted)
		}
	case soap.ServiceZoneGroupTopology:
		fragment, err := subscriber.ParseZoneGroupTopologyNotify(body)
		if err != nil || fragment == "" {
			return
		}
		topo.ApplyZoneGroupState([]byte(fragment))
	}
}

func buildRouter(cfg config.Config, reg *registry.Registry, players *player.Manager, eventHub *hub.Hub) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.BearerMiddleware(cfg.JWTSecret))

		r.Get("/players", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, reg.AllPlayers())
		})

		r.Get("/players/{id}/state", func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, "id")
			state, ok := players.State(id)
			if !ok {
				writeAppError(w, apperrors.NewNotFoundError("no cached state for player", map[string]any{"player": id}))
				return
			}
			writeJSON(w, http.StatusOK, state)
		})

		r.Get("/events", func(w http.ResponseWriter, r *http.Request) {
			client, ok := hub.NewSSEClient(w)
			if !ok {
				http.Error(w, "streaming unsupported", http.StatusInternalServerError)
				return
			}
			eventHub.AddSSEClient(client)
			<-r.Context().Done()
			client.Close()
		})

		r.Get("/events/ws", func(w http.ResponseWriter, r *http.Request) {
			client, err := hub.NewWSClient(w, r)
			if err != nil {
				return
			}
			eventHub.AddWSClient(client)
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeAppError(w http.ResponseWriter, appErr *apperrors.AppError) {
	writeJSON(w, appErr.StatusCode, appErr.StripeErrorBody())
}
