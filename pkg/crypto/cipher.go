package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
)

var (
	ErrUnknownCipher    = errors.New("unknown cipher algorithm")
	ErrInvalidKeySize   = errors.New("invalid key size")
	ErrInvalidIVSize    = errors.New("invalid iv size")
	ErrDecryptionFailed = errors.New("decryption failed")
)

// CipherAlgorithm identifies a symmetric cipher used to protect frame payloads.
type CipherAlgorithm uint8

const (
	AES128CBC CipherAlgorithm = iota + 1
	AES256CBC
	AES128GCM
	AES256GCM
)

const gcmNonceSize = 12

// String returns the canonical algorithm name.
func (a CipherAlgorithm) String() string {
	switch a {
	case AES128CBC:
		return "aes-128-cbc"
	case AES256CBC:
		return "aes-256-cbc"
	case AES128GCM:
		return "aes-128-gcm"
	case AES256GCM:
		return "aes-256-gcm"
	default:
		return fmt.Sprintf("cipher(%d)", uint8(a))
	}
}

// ParseCipherAlgorithm resolves a canonical algorithm name.
func ParseCipherAlgorithm(name string) (CipherAlgorithm, error) {
	switch name {
	case "aes-128-cbc":
		return AES128CBC, nil
	case "aes-256-cbc":
		return AES256CBC, nil
	case "aes-128-gcm":
		return AES128GCM, nil
	case "aes-256-gcm":
		return AES256GCM, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownCipher, name)
	}
}

// KeySize returns the key length in bytes the algorithm requires.
func (a CipherAlgorithm) KeySize() int {
	switch a {
	case AES128CBC, AES128GCM:
		return 16
	case AES256CBC, AES256GCM:
		return 32
	default:
		return 0
	}
}

// IVSize returns the IV (or nonce) length in bytes the algorithm expects.
// A result of 0 means the algorithm needs no IV.
func (a CipherAlgorithm) IVSize() int {
	switch a {
	case AES128CBC, AES256CBC:
		return aes.BlockSize
	case AES128GCM, AES256GCM:
		return gcmNonceSize
	default:
		return 0
	}
}

// CiphertextSize returns the exact ciphertext length produced for a
// cleartext of the given length.
func (a CipherAlgorithm) CiphertextSize(cleartextLen int) (int, error) {
	switch a {
	case AES128CBC, AES256CBC:
		// PKCS#7 always adds at least one padding byte.
		return (cleartextLen/aes.BlockSize + 1) * aes.BlockSize, nil
	case AES128GCM, AES256GCM:
		return cleartextLen + 16, nil
	default:
		return 0, ErrUnknownCipher
	}
}

// CleartextSize returns the buffer capacity needed to hold the decryption of
// a ciphertext of the given length. For block ciphers this is an upper bound
// (padding is only known after decryption); for AEAD ciphers it is exact.
func (a CipherAlgorithm) CleartextSize(ciphertextLen int) int {
	switch a {
	case AES128GCM, AES256GCM:
		if ciphertextLen < 16 {
			return 0
		}
		return ciphertextLen - 16
	default:
		return ciphertextLen
	}
}

// GenerateIV returns a fresh random IV sized for the algorithm.
func GenerateIV(a CipherAlgorithm) ([]byte, error) {
	size := a.IVSize()
	if size == 0 {
		return nil, nil
	}
	iv := make([]byte, size)
	if _, err := rand.Read(iv); err != nil {
		return nil, err
	}
	return iv, nil
}

// Encrypt encrypts cleartext under the given algorithm, key and IV.
func Encrypt(a CipherAlgorithm, key, iv, cleartext []byte) ([]byte, error) {
	if len(key) != a.KeySize() {
		return nil, ErrInvalidKeySize
	}
	if len(iv) != a.IVSize() {
		return nil, ErrInvalidIVSize
	}

	switch a {
	case AES128CBC, AES256CBC:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, err
		}
		padded := pkcs7Pad(cleartext, block.BlockSize())
		ciphertext := make([]byte, len(padded))
		cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)
		return ciphertext, nil

	case AES128GCM, AES256GCM:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, err
		}
		gcm, err := cipher.NewGCM(block)
		if err != nil {
			return nil, err
		}
		return gcm.Seal(nil, iv, cleartext, nil), nil

	default:
		return nil, ErrUnknownCipher
	}
}

// Decrypt decrypts ciphertext under the given algorithm, key and IV. On any
// failure (authentication tag mismatch, invalid padding, malformed input) no
// partially decrypted bytes are returned.
func Decrypt(a CipherAlgorithm, key, iv, ciphertext []byte) ([]byte, error) {
	if len(key) != a.KeySize() {
		return nil, ErrInvalidKeySize
	}
	if len(iv) != a.IVSize() {
		return nil, ErrInvalidIVSize
	}

	switch a {
	case AES128CBC, AES256CBC:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, err
		}
		if len(ciphertext) == 0 || len(ciphertext)%block.BlockSize() != 0 {
			return nil, fmt.Errorf("%w: ciphertext length %d not a block multiple", ErrDecryptionFailed, len(ciphertext))
		}
		cleartext := make([]byte, len(ciphertext))
		cipher.NewCBCDecrypter(block, iv).CryptBlocks(cleartext, ciphertext)
		cleartext, err = pkcs7Unpad(cleartext, block.BlockSize())
		if err != nil {
			return nil, err
		}
		return cleartext, nil

	case AES128GCM, AES256GCM:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, err
		}
		gcm, err := cipher.NewGCM(block)
		if err != nil {
			return nil, err
		}
		cleartext, err := gcm.Open(nil, iv, ciphertext, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
		}
		return cleartext, nil

	default:
		return nil, ErrUnknownCipher
	}
}

// pkcs7Pad pads data to a multiple of blockSize, always adding at least one byte.
func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(append([]byte{}, data...), bytes.Repeat([]byte{byte(n)}, n)...)
}

// pkcs7Unpad strips and validates PKCS#7 padding.
func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty plaintext", ErrDecryptionFailed)
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, fmt.Errorf("%w: invalid padding", ErrDecryptionFailed)
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, fmt.Errorf("%w: invalid padding", ErrDecryptionFailed)
		}
	}
	return data[:len(data)-n], nil
}
