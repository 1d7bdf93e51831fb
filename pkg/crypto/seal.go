package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"fmt"
	"hash"

	"golang.org/x/crypto/blake2b"
)

var (
	ErrUnknownDigest  = errors.New("unknown digest algorithm")
	ErrInvalidTagSize = errors.New("invalid tag size")
	ErrSealMismatch   = errors.New("seal mismatch")
)

// DigestAlgorithm identifies the keyed digest used for frame seals.
type DigestAlgorithm uint8

const (
	SHA256 DigestAlgorithm = iota + 1
	SHA512
	BLAKE2b256
)

// String returns the canonical algorithm name.
func (a DigestAlgorithm) String() string {
	switch a {
	case SHA256:
		return "sha-256"
	case SHA512:
		return "sha-512"
	case BLAKE2b256:
		return "blake2b-256"
	default:
		return fmt.Sprintf("digest(%d)", uint8(a))
	}
}

// ParseDigestAlgorithm resolves a canonical algorithm name.
func ParseDigestAlgorithm(name string) (DigestAlgorithm, error) {
	switch name {
	case "sha-256":
		return SHA256, nil
	case "sha-512":
		return SHA512, nil
	case "blake2b-256":
		return BLAKE2b256, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownDigest, name)
	}
}

// Size returns the full digest size in bytes.
func (a DigestAlgorithm) Size() int {
	switch a {
	case SHA256, BLAKE2b256:
		return 32
	case SHA512:
		return 64
	default:
		return 0
	}
}

func (a DigestAlgorithm) hashFunc() func() hash.Hash {
	switch a {
	case SHA256:
		return sha256.New
	case SHA512:
		return sha512.New
	case BLAKE2b256:
		return func() hash.Hash {
			h, _ := blake2b.New256(nil)
			return h
		}
	default:
		return nil
	}
}

// Seal computes a keyed authentication tag (HMAC) over data, truncated to
// tagSize bytes. tagSize must be between 1 and the digest size.
func Seal(a DigestAlgorithm, key, data []byte, tagSize int) ([]byte, error) {
	h := a.hashFunc()
	if h == nil {
		return nil, ErrUnknownDigest
	}
	if tagSize < 1 || tagSize > a.Size() {
		return nil, fmt.Errorf("%w: %d for %s", ErrInvalidTagSize, tagSize, a)
	}
	mac := hmac.New(h, key)
	mac.Write(data)
	return mac.Sum(nil)[:tagSize], nil
}

// VerifySeal recomputes the tag over data and compares it against tag in
// constant time. It returns ErrSealMismatch if they differ.
func VerifySeal(a DigestAlgorithm, key, data, tag []byte, tagSize int) error {
	expected, err := Seal(a, key, data, tagSize)
	if err != nil {
		return err
	}
	if len(tag) != tagSize || !hmac.Equal(expected, tag) {
		return ErrSealMismatch
	}
	return nil
}
