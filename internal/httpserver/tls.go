package httpserver

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"
)

// serveNames lists the DNS names the server's two surfaces answer on: the
// osu! client connects to c*.<domain> subdomains and third parties to
// cho_api.<domain>, so a wildcard plus the apex covers both.
func serveNames(domain string) []string {
	if domain == "" || domain == "localhost" {
		return []string{"localhost"}
	}
	return []string{domain, "*." + domain, "localhost"}
}

// GenerateDevTLSConfig builds a throwaway self-signed server certificate
// covering every bancho host under domain, valid for validity from now.
// It exists so the -tls flag works without provisioning real certificates
// (a production deployment terminates TLS at a proxy instead). The second
// return value is the certificate's SHA-256 fingerprint, logged at startup
// so an operator can pin it in test clients.
func GenerateDevTLSConfig(validity time.Duration, domain string) (*tls.Config, string, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, "", fmt.Errorf("dev tls: generate key: %w", err)
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 62))
	if err != nil {
		return nil, "", fmt.Errorf("dev tls: generate serial: %w", err)
	}

	names := serveNames(domain)
	now := time.Now()
	tmpl := &x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: names[0], Organization: []string{"bancho dev"}},
		DNSNames:     names,
		NotBefore:    now,
		NotAfter:     now.Add(validity),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		return nil, "", fmt.Errorf("dev tls: create certificate: %w", err)
	}

	sum := sha256.Sum256(der)
	cfg := &tls.Config{
		Certificates: []tls.Certificate{{Certificate: [][]byte{der}, PrivateKey: key}},
		MinVersion:   tls.VersionTLS12,
	}
	return cfg, hex.EncodeToString(sum[:]), nil
}
