// Package passwd verifies login credentials. Clients hash their password
// with MD5 before sending it (spec §4.5); the server's stored hash is a
// bcrypt hash of that MD5 hex string, so verification is one bcrypt
// comparison per login, memoized so a warm account doesn't pay bcrypt's
// cost on every poll-cycle reconnect.
package passwd

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// Verifier checks a client-supplied password_md5 against a stored bcrypt
// hash.
type Verifier interface {
	Verify(bcryptHash, passwordMD5 string) bool
	Hash(passwordMD5 string) (string, error)
}

// BcryptVerifier is grounded on golang.org/x/crypto/bcrypt, already a
// teacher dependency.
//
// memo caches bcryptHash -> passwordMD5 for hashes that have already
// verified once, avoiding repeat bcrypt.CompareHashAndPassword calls
// (~100ms each) for the same account across repeated logins. Sized by
// expected concurrent user count per design note §9; entries are never
// invalidated individually since a changed password simply produces a new
// bcryptHash key.
type BcryptVerifier struct {
	mu    sync.RWMutex
	memo  map[string]string
	limit int
}

// NewBcryptVerifier returns a Verifier with a memo capped at limit entries.
func NewBcryptVerifier(limit int) *BcryptVerifier {
	return &BcryptVerifier{memo: make(map[string]string), limit: limit}
}

// Verify reports whether passwordMD5 hashes (via bcrypt) to bcryptHash.
func (b *BcryptVerifier) Verify(bcryptHash, passwordMD5 string) bool {
	b.mu.RLock()
	if cached, ok := b.memo[bcryptHash]; ok {
		b.mu.RUnlock()
		return cached == passwordMD5
	}
	b.mu.RUnlock()

	if err := bcrypt.CompareHashAndPassword([]byte(bcryptHash), []byte(passwordMD5)); err != nil {
		return false
	}

	b.mu.Lock()
	if len(b.memo) < b.limit {
		b.memo[bcryptHash] = passwordMD5
	}
	b.mu.Unlock()
	return true
}

// Hash produces a new bcrypt hash of passwordMD5, for account creation or
// password changes.
func (b *BcryptVerifier) Hash(passwordMD5 string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(passwordMD5), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
