// Package config loads server configuration from environment variables
// and flags, grounded on the teacher pack's Seednode-partybox convention
// of layering spf13/viper over spf13/pflag.
package config

import (
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds every externally-tunable setting the server needs at
// startup (spec §6's external interfaces plus ambient serving knobs).
type Config struct {
	ServerDomain    string
	ServerPort      int
	APIPort         int
	Debug           bool
	MongoDSN        string
	RedisDSN        string
	GeoIPPath       string
	APISecret       string
	OsuAPIKey       string
	MainMenuIcon    string
	MainMenuClick   string
	IdleTimeout     time.Duration
	SilenceDefault  time.Duration
	TLS             bool
	CertValidity    time.Duration
}

// Load parses args with pflag, binds matching environment variables via
// viper (BANCHO_-prefixed, underscores for dashes), and returns the
// resolved Config.
func Load(args []string) (Config, error) {
	fs := pflag.NewFlagSet("banchod", pflag.ContinueOnError)
	fs.String("server-domain", "localhost", "domain clients connect to (c.<domain>, cho_api.<domain>)")
	fs.Int("server-port", 443, "bancho poll-surface listen port")
	fs.Int("api-port", 8080, "cho_api introspection listen port")
	fs.Bool("debug", false, "enable verbose logging")
	fs.String("mongodb-dsn", "mongodb://localhost:27017", "MongoDB connection string")
	fs.String("redis-dsn", "redis://localhost:6379/0", "Redis connection string")
	fs.String("geoip-path", "GeoLite2-City.mmdb", "path to a MaxMind city database")
	fs.String("api-secret", "", "shared secret for the cho_api introspection surface")
	fs.String("osu-api-key", "", "osu! API key used for beatmap lookups")
	fs.String("main-menu-icon-url", "", "main menu icon image URL sent to clients")
	fs.String("main-menu-click-url", "", "main menu icon click-through URL sent to clients")
	fs.Duration("idle-timeout", 30*time.Second, "HTTP idle timeout")
	fs.Duration("silence-default", 5*time.Minute, "default silence duration applied by moderation commands")
	fs.Bool("tls", false, "terminate TLS at the bancho poll surface using a self-signed dev certificate")
	fs.Duration("cert-validity", 24*time.Hour, "self-signed TLS certificate validity, when -tls is set")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetEnvPrefix("BANCHO")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return Config{}, err
	}

	return Config{
		ServerDomain:   v.GetString("server-domain"),
		ServerPort:     v.GetInt("server-port"),
		APIPort:        v.GetInt("api-port"),
		Debug:          v.GetBool("debug"),
		MongoDSN:       v.GetString("mongodb-dsn"),
		RedisDSN:       v.GetString("redis-dsn"),
		GeoIPPath:      v.GetString("geoip-path"),
		APISecret:      v.GetString("api-secret"),
		OsuAPIKey:      v.GetString("osu-api-key"),
		MainMenuIcon:   v.GetString("main-menu-icon-url"),
		MainMenuClick:  v.GetString("main-menu-click-url"),
		IdleTimeout:    v.GetDuration("idle-timeout"),
		SilenceDefault: v.GetDuration("silence-default"),
		TLS:            v.GetBool("tls"),
		CertValidity:   v.GetDuration("cert-validity"),
	}, nil
}
