package cluster

import (
	"crypto/md5"
	"encoding/binary"
	"fmt"
	"strings"

	"conhash/pkg/ringerrors"

	"github.com/spaolacci/murmur3"
)

// PositionsPerDigest is the number of ring positions carved out of one 16-byte digest.
const PositionsPerDigest = 4

// DigestFunc maps arbitrary bytes to a 128-bit digest.
// The digest is used only for distribution, never for security.
type DigestFunc func(data []byte) [16]byte

// MD5 is the default digest.
func MD5(data []byte) [16]byte {
	return md5.Sum(data)
}

// Murmur3 is a faster 128-bit alternative to MD5. Rings built with it are
// not interchangeable with MD5 rings.
func Murmur3(data []byte) [16]byte {
	var out [16]byte
	h1, h2 := murmur3.Sum128(data)
	binary.LittleEndian.PutUint64(out[0:8], h1)
	binary.LittleEndian.PutUint64(out[8:16], h2)
	return out
}

// DigestByName resolves a digest by its config name.
func DigestByName(name string) (DigestFunc, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "md5":
		return MD5, nil
	case "murmur3":
		return Murmur3, nil
	default:
		return nil, fmt.Errorf("unknown digest %q: %w", name, ringerrors.ErrInvalidArgument)
	}
}

// DerivePositions splits a digest into four little-endian uint32 ring positions:
// bytes 0..3 give value 0, bytes 4..7 value 1 and so on.
func DerivePositions(d [16]byte) [PositionsPerDigest]uint32 {
	var out [PositionsPerDigest]uint32
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(d[i*4 : i*4+4])
	}
	return out
}

// LookupKey returns the ring position of a single key: the first of the four
// derived values.
func LookupKey(digest DigestFunc, key string) uint32 {
	return DerivePositions(digest([]byte(key)))[0]
}
