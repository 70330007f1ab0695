package bridge

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/zeebo/blake3"
)

// DigestKeySize is the key length BLAKE3 keyed hashing requires.
const DigestKeySize = 32

// defaultDigestKey separates parameter digests from any other BLAKE3 use.
var defaultDigestKey = [DigestKeySize]byte{
	'b', 'i', 'm', 'b', 'r', 'i', 'd', 'g', 'e', '.', 'p', 'a', 'r', 'a', 'm', 's',
	'.', 'd', 'i', 'g', 'e', 's', 't', '.', 'v', '1', 0, 0, 0, 0, 0, 0,
}

// Digester fingerprints request payloads for the audit log so records can be
// correlated without storing the parameters themselves.
type Digester struct {
	key [DigestKeySize]byte
}

// NewDigester returns a digester keyed with key, or with the built-in key
// when key is empty.
func NewDigester(key []byte) (*Digester, error) {
	d := &Digester{key: defaultDigestKey}
	if len(key) == 0 {
		return d, nil
	}
	if len(key) != DigestKeySize {
		return nil, fmt.Errorf("digest key is %d bytes, want %d", len(key), DigestKeySize)
	}
	copy(d.key[:], key)
	return d, nil
}

// Sum returns the hex digest of payload. JSON payloads are compacted first
// so whitespace does not change the digest.
func (d *Digester) Sum(payload []byte) string {
	var compact bytes.Buffer
	if err := json.Compact(&compact, payload); err == nil {
		payload = compact.Bytes()
	}
	// NewKeyed only fails on a wrong key length, which the array type rules out.
	hasher, err := blake3.NewKeyed(d.key[:])
	if err != nil {
		panic("bridge: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	_, _ = hasher.Write(payload)
	return hex.EncodeToString(hasher.Sum(nil))
}
