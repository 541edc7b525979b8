// Package httpserver exposes the two HTTP surfaces spec §5 describes: the
// bancho POST/GET endpoint that every osu! client polls, and a small JSON
// introspection API on a second port. Grounded on the teacher's server.go
// (stdlib net/http, ListenAndServeTLS, ctx-driven graceful shutdown).
package httpserver

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"bancho/internal/login"
	"bancho/internal/opcode"
	"bancho/internal/packets"
	"bancho/internal/session"
	"bancho/internal/wire"
)

// BanchoServer answers the osu! client's polling POST requests on
// c*.<domain> (spec §5).
type BanchoServer struct {
	addr      string
	login     *login.Deps
	router    *packets.Router
	pdeps     *packets.Deps
	users     *session.Registry
	idleTime  time.Duration
	tlsConfig *tls.Config
}

// NewBanchoServer wires the login flow and packet dispatcher behind one
// HTTP handler. tlsConfig may be nil for plain HTTP (the common case
// behind a TLS-terminating reverse proxy).
func NewBanchoServer(addr string, loginDeps *login.Deps, router *packets.Router, pdeps *packets.Deps, users *session.Registry, idleTimeout time.Duration, tlsConfig *tls.Config) *BanchoServer {
	return &BanchoServer{addr: addr, login: loginDeps, router: router, pdeps: pdeps, users: users, idleTime: idleTimeout, tlsConfig: tlsConfig}
}

// restartPacket is sent alone when a client presents a token the registry
// no longer recognizes (spec §5: "When the session token is stale, respond
// with a single restart_server(0) packet").
func restartPacket() []byte {
	w := wire.NewWriter(4)
	w.I32(0)
	return wire.BuildPacket(opcode.ChoRestart, w.Bytes())
}

func (s *BanchoServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<html><body>bancho</body></html>"))
		return
	}
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if r.Header.Get("User-Agent") != "osu!" {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<22))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	token := r.Header.Get("osu-token")
	if token == "" {
		result := s.login.Login(r.Context(), body, clientIP(r))
		if result.OK {
			w.Header().Set("cho-token", result.Token)
		} else {
			// The client expects the literal "no" on any rejected login.
			w.Header().Set("cho-token", "no")
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(result.Body)
		return
	}

	u, ok := s.users.ByToken(token)
	if !ok {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(restartPacket())
		return
	}

	frames, err := wire.ReadFrames(body)
	if err != nil {
		log.Printf("[httpserver] %s: malformed frame stream: %v", u.Name, err)
	}
	packets.Dispatch(r.Context(), s.router, s.pdeps, u, frames)

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(u.Drain())
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		return strings.TrimSpace(fwd)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// Run starts the bancho HTTP server and blocks until ctx is canceled.
func (s *BanchoServer) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)

	httpSrv := &http.Server{
		Addr:              s.addr,
		Handler:           mux,
		TLSConfig:         s.tlsConfig,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       s.idleTime,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[httpserver] shutdown: %v", err)
		}
	}()

	log.Printf("[httpserver] bancho listening on %s", s.addr)

	var err error
	if s.tlsConfig != nil {
		err = httpSrv.ListenAndServeTLS("", "")
	} else {
		err = httpSrv.ListenAndServe()
	}
	if err == nil || errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
