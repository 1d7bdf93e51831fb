package crypto

import (
	"bytes"
	"errors"
	"testing"
)

// RFC 4231 test case 1.
var (
	rfc4231Key  = bytes.Repeat([]byte{0x0B}, 20)
	rfc4231Data = []byte("Hi There")
)

func TestSealKnownAnswers(t *testing.T) {
	tests := []struct {
		name     string
		alg      DigestAlgorithm
		expected string
	}{
		{
			name:     "hmac-sha-256",
			alg:      SHA256,
			expected: "b0344c61d8db38535ca8afceaf0bf12b881dc200c9833da726e9376c2e32cff7",
		},
		{
			name:     "hmac-sha-512",
			alg:      SHA512,
			expected: "87aa7cdea5ef619d4ff0b4241a1d6cb02379f4e2ce4ec2787ad0b30545e17cdedaa833b7d6b8a702038b274eaea3f4e4be9d914eeb61f1702e696c203a126854",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := mustHex(t, tt.expected)

			tag, err := Seal(tt.alg, rfc4231Key, rfc4231Data, tt.alg.Size())
			if err != nil {
				t.Fatalf("Seal() error = %v", err)
			}
			if !bytes.Equal(tag, want) {
				t.Errorf("Seal() = %x, want %x", tag, want)
			}

			// Truncated tag is a prefix of the full tag.
			short, err := Seal(tt.alg, rfc4231Key, rfc4231Data, 16)
			if err != nil {
				t.Fatalf("Seal() truncated error = %v", err)
			}
			if !bytes.Equal(short, want[:16]) {
				t.Errorf("truncated Seal() = %x, want %x", short, want[:16])
			}
		})
	}
}

func TestVerifySeal(t *testing.T) {
	key := []byte("seal key")
	data := []byte("sequence number, iv and ciphertext")

	for _, alg := range []DigestAlgorithm{SHA256, SHA512, BLAKE2b256} {
		t.Run(alg.String(), func(t *testing.T) {
			tag, err := Seal(alg, key, data, 32)
			if err != nil {
				t.Fatalf("Seal() error = %v", err)
			}

			if err := VerifySeal(alg, key, data, tag, 32); err != nil {
				t.Errorf("VerifySeal() error = %v", err)
			}

			tampered := append([]byte{}, tag...)
			tampered[0] ^= 0x01
			if err := VerifySeal(alg, key, data, tampered, 32); !errors.Is(err, ErrSealMismatch) {
				t.Errorf("VerifySeal() on tampered tag error = %v, want ErrSealMismatch", err)
			}

			if err := VerifySeal(alg, key, data, tag[:16], 32); !errors.Is(err, ErrSealMismatch) {
				t.Errorf("VerifySeal() on short tag error = %v, want ErrSealMismatch", err)
			}

			if err := VerifySeal(alg, []byte("other key"), data, tag, 32); !errors.Is(err, ErrSealMismatch) {
				t.Errorf("VerifySeal() with wrong key error = %v, want ErrSealMismatch", err)
			}
		})
	}
}

func TestSealTagSizeValidation(t *testing.T) {
	for _, size := range []int{0, -1, SHA256.Size() + 1} {
		if _, err := Seal(SHA256, nil, nil, size); !errors.Is(err, ErrInvalidTagSize) {
			t.Errorf("Seal(tagSize=%d) error = %v, want ErrInvalidTagSize", size, err)
		}
	}

	if _, err := Seal(DigestAlgorithm(0xEE), nil, nil, 32); !errors.Is(err, ErrUnknownDigest) {
		t.Errorf("Seal() with unknown digest error = %v, want ErrUnknownDigest", err)
	}
}

func TestParseDigestAlgorithm(t *testing.T) {
	for _, alg := range []DigestAlgorithm{SHA256, SHA512, BLAKE2b256} {
		got, err := ParseDigestAlgorithm(alg.String())
		if err != nil || got != alg {
			t.Errorf("ParseDigestAlgorithm(%q) = %v, %v", alg.String(), got, err)
		}
	}

	if _, err := ParseDigestAlgorithm("md5"); !errors.Is(err, ErrUnknownDigest) {
		t.Errorf("ParseDigestAlgorithm(md5) error = %v, want ErrUnknownDigest", err)
	}
}
