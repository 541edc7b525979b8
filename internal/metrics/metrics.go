// Package metrics exposes Prometheus counters/gauges for the bancho
// server and a periodic log line in the teacher's own style (metrics.go's
// RunMetrics), grounded on psubacz-dungeongate/pkg/metrics's promauto
// registration pattern.
package metrics

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every counter/gauge the server updates. A single instance
// is constructed at startup and threaded through the collaborators that
// need it (packet router, login flow); RunSnapshot refreshes its gauges
// from the session and match registries.
type Metrics struct {
	OnlineUsers      prometheus.Gauge
	ActiveMatches    prometheus.Gauge
	LoginAttempts    *prometheus.CounterVec
	PacketsDispatch  *prometheus.CounterVec
	PacketsDropped   prometheus.Counter
	ChatMessages     *prometheus.CounterVec
	QueueOverflows   prometheus.Counter
}

// New registers every metric under the "bancho" namespace.
func New() *Metrics {
	return &Metrics{
		OnlineUsers: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "bancho", Name: "online_users", Help: "Number of sessions currently registered.",
		}),
		ActiveMatches: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "bancho", Name: "active_matches", Help: "Number of multiplayer lobbies currently allocated.",
		}),
		LoginAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bancho", Subsystem: "login", Name: "attempts_total", Help: "Login attempts by outcome.",
		}, []string{"outcome"}),
		PacketsDispatch: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bancho", Subsystem: "packets", Name: "dispatched_total", Help: "Frames dispatched by packet id.",
		}, []string{"id"}),
		PacketsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "bancho", Subsystem: "packets", Name: "dropped_total", Help: "Frames with no registered handler, or disallowed while restricted.",
		}),
		ChatMessages: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bancho", Subsystem: "chat", Name: "messages_total", Help: "Chat messages relayed, by kind.",
		}, []string{"kind"}),
		QueueOverflows: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "bancho", Subsystem: "session", Name: "queue_overflows_total", Help: "Times a session's outbound queue exceeded its byte cap and was dropped.",
		}),
	}
}

// Handler returns the /metrics HTTP handler for wiring into the api
// server's mux (spec's ambient observability surface).
func (m *Metrics) Handler() http.Handler { return promhttp.Handler() }

// Sampler is the subset of collaborators RunSnapshot needs to produce a
// periodic summary; session.Registry and match.Registry both satisfy it.
type Sampler interface {
	Count() int
}

// RunSnapshot periodically sets the online-users/active-matches gauges and
// logs a one-line summary, mirroring the teacher's own RunMetrics ticker
// loop (metrics.go) rather than a bare stdlib replacement.
func RunSnapshot(ctx context.Context, m *Metrics, users Sampler, matches Sampler, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			u, n := users.Count(), matches.Count()
			m.OnlineUsers.Set(float64(u))
			m.ActiveMatches.Set(float64(n))
			if u > 0 || n > 0 {
				log.Printf("[metrics] users=%d matches=%d", u, n)
			}
		}
	}
}
