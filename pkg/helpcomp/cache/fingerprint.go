package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Fingerprint is the hex SHA-256 key of a cached entry.
type Fingerprint string

// Key lists everything that determines the assembled Command for an input.
type Key struct {
	Path    []string // command name followed by the subcommand path
	Depth   int
	SkipMan bool
	Text    string // raw documentation of the root command
}

// NewFingerprint derives the fingerprint of k. Only the root text is
// hashed; subcommand documentation is bounded by the entry TTL.
func NewFingerprint(k Key) Fingerprint {
	text := sha256.Sum256([]byte(k.Text))
	h := sha256.New()
	fmt.Fprintf(h, "helpcomp/1\x00%s\x00%d\x00%t\x00%x",
		strings.Join(k.Path, "\x1f"), k.Depth, k.SkipMan, text)
	return Fingerprint(hex.EncodeToString(h.Sum(nil)))
}

// Variant derives a fingerprint for an output of f, such as the script
// rendered in one format.
func (f Fingerprint) Variant(parts ...string) Fingerprint {
	h := sha256.New()
	h.Write([]byte(f))
	for _, p := range parts {
		h.Write([]byte{0})
		h.Write([]byte(p))
	}
	return Fingerprint(hex.EncodeToString(h.Sum(nil)))
}

// Short returns an abbreviated form for logs and listings.
func (f Fingerprint) Short() string {
	if len(f) > 12 {
		return string(f[:12])
	}
	return string(f)
}

// Kind distinguishes what an entry's payload holds.
type Kind string

const (
	KindIR       Kind = "ir"       // JSON-encoded Command
	KindRendered Kind = "rendered" // completion script
)

// Entry is a cached payload. Entries are immutable; storing the same
// fingerprint again replaces the record.
type Entry struct {
	Fingerprint Fingerprint
	Kind        Kind
	Payload     []byte
	CreatedAt   time.Time
	TTL         time.Duration
	Size        int64 // stored (compressed) size, set by listings
}

// Expired reports whether the entry is stale at now.
func (e Entry) Expired(now time.Time) bool {
	return now.After(e.CreatedAt.Add(e.TTL))
}

func storeKey(fp Fingerprint, kind Kind) string {
	return string(fp) + "." + string(kind)
}

func splitStoreKey(key string) (Fingerprint, Kind) {
	fp, kind, _ := strings.Cut(key, ".")
	return Fingerprint(fp), Kind(kind)
}
