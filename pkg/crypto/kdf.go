package crypto

import (
	"golang.org/x/crypto/pbkdf2"
)

// DeriveKey derives keyLen bytes of key material from a password and salt
// using PBKDF2 with the given digest algorithm. Session setup uses this to
// turn a shared secret into seal and encryption keys; the codec itself never
// calls it.
//
// The function is slow by design; iterations controls the cost.
func DeriveKey(password, salt []byte, iterations int, a DigestAlgorithm, keyLen int) ([]byte, error) {
	h := a.hashFunc()
	if h == nil {
		return nil, ErrUnknownDigest
	}
	return pbkdf2.Key(password, salt, iterations, keyLen, h), nil
}
