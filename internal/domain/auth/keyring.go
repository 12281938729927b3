package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/alexedwards/argon2id"
)

// ErrUnknownHashType is returned when a stored hash has an unrecognized format.
var ErrUnknownHashType = errors.New("unknown hash type")

// StaticKey is one config-seeded API key entry. The raw key is never stored;
// only its hash (SHA-256 hex, "sha256:" prefixed hex, or Argon2id PHC format).
type StaticKey struct {
	// Subject is the subject id attached to requests authenticating
	// with this key.
	Subject string
	// Hash is the stored key hash.
	Hash string
}

// KeyRing verifies bearer tokens against a fixed set of hashed API keys.
// It implements Verifier for deployments without an external identity
// provider. The ring is immutable after construction, so lookups are
// safe for concurrent use.
type KeyRing struct {
	// bySHA256 indexes sha256-hashed keys by hex digest for direct lookup.
	bySHA256 map[string]StaticKey
	// argonKeys holds Argon2id entries, verified by iteration.
	argonKeys []StaticKey
}

// NewKeyRing builds a KeyRing from config-seeded entries.
func NewKeyRing(keys []StaticKey) *KeyRing {
	r := &KeyRing{bySHA256: make(map[string]StaticKey, len(keys))}
	for _, k := range keys {
		switch DetectHashType(k.Hash) {
		case "argon2id":
			r.argonKeys = append(r.argonKeys, k)
		case "sha256":
			r.bySHA256[strings.TrimPrefix(k.Hash, "sha256:")] = k
		}
	}
	return r
}

// Len returns the number of usable entries in the ring.
func (r *KeyRing) Len() int {
	return len(r.bySHA256) + len(r.argonKeys)
}

// Verify checks the raw token against the ring. It returns the matching
// entry's subject, or ErrUnauthenticated for any miss.
func (r *KeyRing) Verify(ctx context.Context, token string) (string, error) {
	// Fast path: direct SHA-256 lookup.
	if k, ok := r.bySHA256[HashKey(token)]; ok {
		return k.Subject, nil
	}

	// Slow path: iterate Argon2id entries.
	for _, k := range r.argonKeys {
		match, err := safeArgon2idCompare(token, k.Hash)
		if err != nil {
			continue
		}
		if match {
			return k.Subject, nil
		}
	}

	return "", ErrUnauthenticated
}

// HashKey returns the SHA-256 hex hash of the raw key.
func HashKey(rawKey string) string {
	hash := sha256.Sum256([]byte(rawKey))
	return hex.EncodeToString(hash[:])
}

// argon2idParams defines OWASP minimum parameters for Argon2id.
var argon2idParams = &argon2id.Params{
	Memory:      47 * 1024, // 47 MiB (OWASP minimum: 46 MiB)
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// HashKeyArgon2id returns an Argon2id hash of the raw key in PHC format,
// with a random salt. Used by the hash-key CLI command to seed config.
func HashKeyArgon2id(rawKey string) (string, error) {
	return argon2id.CreateHash(rawKey, argon2idParams)
}

// DetectHashType identifies the hash algorithm of a stored hash.
// Returns "argon2id" for PHC format, "sha256" for prefixed or bare hex,
// "unknown" otherwise.
func DetectHashType(storedHash string) string {
	if strings.HasPrefix(storedHash, "$argon2id$") {
		return "argon2id"
	}
	if strings.HasPrefix(storedHash, "sha256:") {
		return "sha256"
	}
	if len(storedHash) == 64 && isHexString(storedHash) {
		return "sha256"
	}
	return "unknown"
}

// isHexString checks if a string contains only hexadecimal characters.
func isHexString(s string) bool {
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return true
}

// VerifyKey verifies a raw key against a stored hash of any supported format.
// Returns (false, ErrUnknownHashType) for unrecognized formats.
func VerifyKey(rawKey, storedHash string) (bool, error) {
	switch DetectHashType(storedHash) {
	case "argon2id":
		return safeArgon2idCompare(rawKey, storedHash)

	case "sha256":
		expected := strings.TrimPrefix(storedHash, "sha256:")
		computed := HashKey(rawKey)
		// Constant-time comparison to prevent timing attacks.
		return subtle.ConstantTimeCompare([]byte(computed), []byte(expected)) == 1, nil

	default:
		return false, ErrUnknownHashType
	}
}

// safeArgon2idCompare wraps argon2id.ComparePasswordAndHash with panic
// recovery. The underlying argon2 library panics on malformed hashes with
// invalid parameters (t=0, p=0); those become errors here.
func safeArgon2idCompare(rawKey, storedHash string) (match bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			match = false
			err = fmt.Errorf("invalid argon2id hash parameters: %v", r)
		}
	}()
	return argon2id.ComparePasswordAndHash(rawKey, storedHash)
}

// Compile-time interface verification.
var _ Verifier = (*KeyRing)(nil)
