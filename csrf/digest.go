package csrf

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"sort"
	"strings"

	"golang.org/x/crypto/sha3"
)

// DefaultDigest is used when Config.Digest is empty.
const DefaultDigest = "SHA1"

var digests = map[string]func() hash.Hash{
	"MD5":        md5.New,
	"SHA1":       sha1.New,
	"SHA224":     sha256.New224,
	"SHA256":     sha256.New,
	"SHA384":     sha512.New384,
	"SHA512":     sha512.New,
	"SHA512/224": sha512.New512_224,
	"SHA512/256": sha512.New512_256,
	"SHA3-224":   sha3.New224,
	"SHA3-256":   sha3.New256,
	"SHA3-384":   sha3.New384,
	"SHA3-512":   sha3.New512,
}

// normalizeDigest maps user spellings like "sha-256" or "Sha3_512" onto the
// registry keys above.
func normalizeDigest(name string) string {
	n := strings.ToUpper(strings.TrimSpace(name))
	n = strings.ReplaceAll(n, "_", "-")
	if strings.HasPrefix(n, "SHA3") {
		if !strings.HasPrefix(n, "SHA3-") {
			n = "SHA3-" + strings.TrimPrefix(n, "SHA3")
		}
		return n
	}
	return strings.ReplaceAll(n, "-", "")
}

// lookupDigest returns the hash constructor registered under name.
func lookupDigest(name string) (func() hash.Hash, error) {
	if fn, ok := digests[normalizeDigest(name)]; ok {
		return fn, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDigest, name)
}

// Digests lists the supported digest names in sorted order.
func Digests() []string {
	names := make([]string, 0, len(digests))
	for name := range digests {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HMACToken computes the hex encoded HMAC of sessionID keyed with key.
// It is the token derivation used when a Secret is configured, exposed so
// tools can reproduce a token offline.
func HMACToken(digest, key, sessionID string) (string, error) {
	fn, err := lookupDigest(digest)
	if err != nil {
		return "", err
	}
	return hmacHex(fn, key, sessionID), nil
}

func hmacHex(fn func() hash.Hash, key, msg string) string {
	mac := hmac.New(fn, []byte(key))
	mac.Write([]byte(msg))
	return hex.EncodeToString(mac.Sum(nil))
}
