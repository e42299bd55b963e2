package cache

import (
	"encoding/hex"

	"lukechampine.com/blake3"
)

// Key identifies a cached page. The same URL fetched under two locales is two
// entries.
type Key struct {
	Locale string
	URL    string
}

func (k Key) String() string {
	return k.Locale + "\x00" + k.URL
}

// Digest is the hex BLAKE3 hash of the key, used for remote store names.
func (k Key) Digest() string {
	sum := blake3.Sum256([]byte(k.String()))
	return hex.EncodeToString(sum[:])
}
