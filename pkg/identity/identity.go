// Package identity parses the keys reputation scores are cached under.
package identity

import (
	"encoding/base32"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"strings"
)

const (
	// Anonymous is the sentinel identity used when no valid identity is known.
	Anonymous Identity = "2vxsx-fae"

	ethPrefix      = "0x"
	ethHexLen      = 40
	checksumLen    = 4
	maxPrincipal   = 29
	principalGroup = 5
)

var (
	// ErrInvalid is returned for strings that are neither an address nor a principal.
	ErrInvalid = errors.New("invalid identity")

	principalEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)
)

// Identity is a normalized, comparable account key.
type Identity string

func (i Identity) String() string {
	return string(i)
}

// Parse normalizes s into an Identity. It accepts hex account addresses
// (0x followed by 40 hex digits, any case) and textual principals
// (dash-separated base32 groups carrying a CRC32 checksum).
func Parse(s string) (Identity, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalid)
	}

	if id, ok := parseAddress(s); ok {
		return id, nil
	}

	id, err := parsePrincipal(s)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", ErrInvalid, s, err)
	}
	return id, nil
}

func parseAddress(s string) (Identity, bool) {
	if len(s) != len(ethPrefix)+ethHexLen || !strings.EqualFold(s[:len(ethPrefix)], ethPrefix) {
		return "", false
	}
	for _, c := range s[len(ethPrefix):] {
		if !isHex(c) {
			return "", false
		}
	}
	return Identity(strings.ToLower(s)), true
}

func isHex(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func parsePrincipal(s string) (Identity, error) {
	raw := strings.ToUpper(strings.ReplaceAll(s, "-", ""))
	b, err := principalEncoding.DecodeString(raw)
	if err != nil {
		return "", fmt.Errorf("decoding base32: %w", err)
	}
	if len(b) < checksumLen {
		return "", errors.New("too short")
	}

	body := b[checksumLen:]
	if len(body) > maxPrincipal {
		return "", fmt.Errorf("%d bytes exceeds %d", len(body), maxPrincipal)
	}
	if binary.BigEndian.Uint32(b) != crc32.ChecksumIEEE(body) {
		return "", errors.New("checksum mismatch")
	}

	canonical := FromPrincipalBytes(body)
	if string(canonical) != strings.ToLower(s) {
		return "", errors.New("not in canonical form")
	}
	return canonical, nil
}

// FromPrincipalBytes returns the textual form of a raw principal.
func FromPrincipalBytes(body []byte) Identity {
	b := make([]byte, checksumLen, checksumLen+len(body))
	binary.BigEndian.PutUint32(b, crc32.ChecksumIEEE(body))
	b = append(b, body...)

	enc := strings.ToLower(principalEncoding.EncodeToString(b))

	var sb strings.Builder
	for i := 0; i < len(enc); i += principalGroup {
		if i > 0 {
			sb.WriteByte('-')
		}
		sb.WriteString(enc[i:min(i+principalGroup, len(enc))])
	}
	return Identity(sb.String())
}
