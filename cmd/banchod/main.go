// Command banchod is the bancho server entrypoint: it wires storage,
// pub/sub, geolocation, and password-verification adapters into the
// session/channel/match registries and the login/packet-dispatch layers,
// then serves the bancho poll surface and the cho_api introspection
// surface. Grounded on the teacher's main.go wiring style (flag parsing,
// collaborator wiring, ticker goroutines, signal-driven graceful
// shutdown).
package main

import (
	"context"
	"crypto/tls"
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"time"

	"bancho/internal/channel"
	"bancho/internal/config"
	"bancho/internal/geoip"
	"bancho/internal/httpserver"
	"bancho/internal/login"
	"bancho/internal/match"
	"bancho/internal/metrics"
	"bancho/internal/packets"
	"bancho/internal/passwd"
	"bancho/internal/pubsub"
	"bancho/internal/session"
	"bancho/internal/store"
)

const (
	botID   int32 = 1
	botName       = "BanchoBot"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("[banchod] config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		<-sigCh
		log.Println("[banchod] shutting down...")
		cancel()
	}()

	mongoStore, err := store.Connect(ctx, cfg.MongoDSN, "bancho")
	if err != nil {
		log.Fatalf("[banchod] mongo connect: %v", err)
	}

	bus, err := pubsub.NewRedisBus(cfg.RedisDSN)
	if err != nil {
		log.Fatalf("[banchod] redis connect: %v", err)
	}
	defer bus.Close()

	var geo geoip.Reader
	if mmdb, err := geoip.Open(cfg.GeoIPPath); err != nil {
		log.Printf("[banchod] geoip disabled: %v", err)
	} else {
		defer mmdb.Close()
		geo = mmdb
	}

	verifier := passwd.NewBcryptVerifier(4096)

	users := session.NewRegistry()
	channels := channel.NewRegistry()
	matches := match.NewRegistry()
	seedDefaultChannels(channels)

	m := metrics.New()
	go metrics.RunSnapshot(ctx, m, users, matches, 5*time.Second)

	loginDeps := login.NewDeps(users, channels, matches, mongoStore, verifier, geo, botID, botName, cfg.MainMenuIcon, cfg.MainMenuClick, m)

	router := packets.NewRouter()
	pdeps := &packets.Deps{Users: users, Channels: channels, Matches: matches, Store: mongoStore, BotID: botID, BotName: botName, Metrics: m}

	consumer := pubsub.NewConsumer(bus)
	adapter := &pubsub.Adapter{Users: users, Channels: channels, Matches: matches, Store: mongoStore, BotID: botID, BotName: botName}
	if err := adapter.Register(ctx, consumer); err != nil {
		log.Fatalf("[banchod] pubsub subscribe: %v", err)
	}
	go consumer.Run(ctx)

	var tlsConfig *tls.Config
	if cfg.TLS {
		conf, fingerprint, err := httpserver.GenerateDevTLSConfig(cfg.CertValidity, cfg.ServerDomain)
		if err != nil {
			log.Fatalf("[banchod] tls: %v", err)
		}
		log.Printf("[banchod] TLS certificate fingerprint: %s", fingerprint)
		tlsConfig = conf
	}

	bancho := httpserver.NewBanchoServer(
		net.JoinHostPort("", strconv.Itoa(cfg.ServerPort)),
		loginDeps, router, pdeps, users, cfg.IdleTimeout, tlsConfig,
	)

	api := httpserver.NewAPIServer(mongoStore, verifier, users, cfg.APISecret)
	go api.Run(ctx, net.JoinHostPort("", strconv.Itoa(cfg.APIPort)))
	log.Printf("[banchod] cho_api listening on port %d", cfg.APIPort)

	if err := bancho.Run(ctx); err != nil {
		log.Fatalf("[banchod] %v", err)
	}
}

// seedDefaultChannels populates the registry with the standard public
// channels every client expects on login (spec §4.4).
func seedDefaultChannels(channels *channel.Registry) {
	defaults := []struct {
		name, topic string
	}{
		{"#osu", "General discussion"},
		{"#announce", "Server announcements"},
		{"#lobby", "Multiplayer lobby chat"},
	}
	for _, d := range defaults {
		channels.Insert(channel.New(d.name, d.name, d.topic, 0, d.name != "#lobby", false))
	}
}

