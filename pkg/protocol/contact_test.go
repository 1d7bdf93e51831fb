package protocol

import (
	"bytes"
	"errors"
	"net/netip"
	"testing"

	"github.com/peerlan/fscp/pkg/crypto"
)

// decodeContactPayload writes a frame with fn, then maps, verifies and
// decrypts it back to the cleartext payload.
func decodeContactPayload(t *testing.T, frame []byte, wantType uint8, seal *SealSpec) []byte {
	t.Helper()

	var header Header
	if err := header.Decode(frame); err != nil {
		t.Fatalf("Header.Decode() error = %v", err)
	}
	if header.Type != wantType {
		t.Fatalf("Header.Type = 0x%02x, want 0x%02x", header.Type, wantType)
	}

	df, err := MapData(frame[HeaderSize:])
	if err != nil {
		t.Fatalf("MapData() error = %v", err)
	}
	verified, err := df.CheckSeal(seal, testSealKey)
	if err != nil {
		t.Fatalf("CheckSeal() error = %v", err)
	}
	payload, err := verified.Cleartext(crypto.AES256CBC, testEncKey256)
	if err != nil {
		t.Fatalf("Cleartext() error = %v", err)
	}
	return payload
}

func TestContactRequestRoundTrip(t *testing.T) {
	seal := &SealSpec{Digest: crypto.SHA256, TagSize: 32}

	tests := []struct {
		name   string
		hashes []Hash
	}{
		{name: "empty list", hashes: []Hash{}},
		{
			name: "three hashes in order",
			hashes: []Hash{
				{0x01, 0x02},
				{0xFF, 0xFE},
				{0xAA},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := make([]byte, 4096)
			n, err := WriteContactRequest(buf, 11, tt.hashes, crypto.AES256CBC, seal, testSealKey, testEncKey256)
			if err != nil {
				t.Fatalf("WriteContactRequest() error = %v", err)
			}

			payload := decodeContactPayload(t, buf[:n], MessageTypeContactRequest, seal)

			got, err := ParseHashList(payload)
			if err != nil {
				t.Fatalf("ParseHashList() error = %v", err)
			}
			if len(got) != len(tt.hashes) {
				t.Fatalf("ParseHashList() returned %d hashes, want %d", len(got), len(tt.hashes))
			}
			for i := range got {
				if got[i] != tt.hashes[i] {
					t.Errorf("hash[%d] = %x, want %x", i, got[i], tt.hashes[i])
				}
			}
		})
	}
}

func TestContactRoundTrip(t *testing.T) {
	seal := &SealSpec{Digest: crypto.SHA256, TagSize: 32}

	tests := []struct {
		name     string
		contacts ContactMap
	}{
		{name: "empty map", contacts: ContactMap{}},
		{
			name: "ipv4 and ipv6 endpoints",
			contacts: ContactMap{
				{0x01}: netip.AddrPortFrom(netip.MustParseAddr("192.0.2.1"), 12000),
				{0x02}: netip.AddrPortFrom(netip.MustParseAddr("2001:db8::1"), 443),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := make([]byte, 4096)
			n, err := WriteContact(buf, 12, tt.contacts, crypto.AES256CBC, seal, testSealKey, testEncKey256)
			if err != nil {
				t.Fatalf("WriteContact() error = %v", err)
			}

			payload := decodeContactPayload(t, buf[:n], MessageTypeContact, seal)

			got, err := ParseContactMap(payload)
			if err != nil {
				t.Fatalf("ParseContactMap() error = %v", err)
			}
			if len(got) != len(tt.contacts) {
				t.Fatalf("ParseContactMap() returned %d entries, want %d", len(got), len(tt.contacts))
			}
			for hash, ep := range tt.contacts {
				if got[hash] != ep {
					t.Errorf("contact %x = %s, want %s", hash, got[hash], ep)
				}
			}
		})
	}
}

func TestParseHashListRejects(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
	}{
		{name: "missing count", payload: []byte{0x00}},
		{name: "count exceeds buffer", payload: []byte{0x00, 0x02}},
		{name: "trailing bytes", payload: append([]byte{0x00, 0x01}, make([]byte, HashSize+1)...)},
		{name: "partial trailing element", payload: append([]byte{0x00, 0x01}, make([]byte, HashSize+HashSize/2)...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseHashList(tt.payload); !errors.Is(err, ErrFormat) {
				t.Errorf("ParseHashList() error = %v, want ErrFormat", err)
			}
		})
	}
}

func TestParseContactMapRejects(t *testing.T) {
	// One valid IPv4 entry to build malformed variants around.
	entry := append(append(bytes.Repeat([]byte{0x07}, HashSize), 0x04, 192, 0, 2, 1), 0x2E, 0xE0)

	valid := append([]byte{0x00, 0x01}, entry...)
	if _, err := ParseContactMap(valid); err != nil {
		t.Fatalf("ParseContactMap() on valid payload error = %v", err)
	}

	tests := []struct {
		name    string
		payload []byte
	}{
		{name: "missing count", payload: []byte{0x00}},
		{name: "count exceeds buffer", payload: []byte{0x00, 0x02}},
		{name: "truncated endpoint", payload: append([]byte{0x00, 0x01}, entry[:len(entry)-1]...)},
		{name: "unknown address family", payload: append([]byte{0x00, 0x01}, append(append(bytes.Repeat([]byte{0x07}, HashSize), 0x05, 192, 0, 2, 1), 0x2E, 0xE0)...)},
		{name: "trailing bytes", payload: append(append([]byte{0x00, 0x01}, entry...), 0xAA)},
		{name: "duplicate hash", payload: append(append([]byte{0x00, 0x02}, entry...), entry...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseContactMap(tt.payload); !errors.Is(err, ErrFormat) {
				t.Errorf("ParseContactMap() error = %v, want ErrFormat", err)
			}
		})
	}
}
