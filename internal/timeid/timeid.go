// Package timeid provides the monotonic clock and deterministic ID/hash
// helpers shared across the truth pipeline. Expectation and finding ids
// must be stable hashes of their defining fields; run ids are the
// one place true randomness is allowed, modeled on the project's
// github.com/google/uuid usage in internal/browser/session_manager.go.
package timeid

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Clock abstracts wall-clock time so tests can inject a fixed instant and
// so timestamps stay out of the deterministic-hash path entirely.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock is a Clock that always returns the same instant, for tests
// and for reproducing a prior run's timestamps.
type FixedClock struct{ At time.Time }

func (f FixedClock) Now() time.Time { return f.At }

// StableID returns a deterministic, content-addressed identifier by
// hashing the ordered parts with SHA-256 and taking a readable hex prefix.
// Identical parts always yield an identical id, across processes and runs.
func StableID(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0}) // separator; avoids "ab"+"c" == "a"+"bc" collisions
	}
	return hex.EncodeToString(h.Sum(nil))[:24]
}

// ExpectationID derives the stable expectation id a hash of
// (type, source file, source line, selector hint, promise payload).
func ExpectationID(typ, file string, line int, selectorHint, promise string) string {
	return StableID(typ, file, itoa(line), selectorHint, promise)
}

// FindingID derives a finding id from the expectation it judges.
func FindingID(expectationID string) string {
	return StableID("finding", expectationID)
}

// NewRunID generates a fresh, non-deterministic run identifier: a
// monotonic timestamp prefix plus a random UUID suffix, so runs sort
// lexicographically by creation time while remaining globally unique.
func NewRunID(clock Clock) string {
	ts := clock.Now().Format("20060102T150405.000000000Z")
	ts = strings.ReplaceAll(ts, ".", "")
	return ts + "-" + uuid.NewString()
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
