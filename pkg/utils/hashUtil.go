package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"strings"
)

// ShortIDLen is the length of IDs returned by ShortHash.
const ShortIDLen = 8

// HashFile returns the hex sha256 of a file's contents.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func HashString(data string) string {
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}

// ShortHash is a stable 8-hex ID for a piece of text (tips, checklist items).
// Surrounding whitespace does not change the ID.
func ShortHash(data string) string {
	return HashString(strings.TrimSpace(data))[:ShortIDLen]
}

// Fingerprint hashes an ordered list of parts into one short ID.
func Fingerprint(parts ...string) string {
	return ShortHash(strings.Join(parts, "\x1f"))
}
