package protocol

import (
	"fmt"
	"net/netip"

	"github.com/peerlan/fscp/pkg/crypto"
)

// Endpoint address family tags on the wire.
const (
	endpointIPv4 uint8 = 0x04
	endpointIPv6 uint8 = 0x06
)

// ContactMap maps peer identifier hashes to their network endpoints. It is
// the payload of a contact frame, answering a contact request.
type ContactMap map[Hash]netip.AddrPort

// WriteContactRequest builds a contact-request frame announcing the peer
// identifier hashes the sender wants endpoints for. The payload shares the
// sealed and encrypted envelope of data frames; only the cleartext differs:
// count(2) followed by each hash in list order.
func WriteContactRequest(buf []byte, seq uint32, hashes []Hash, calg crypto.CipherAlgorithm, seal *SealSpec, sealKey, encKey []byte) (int, error) {
	if len(hashes) > 0xFFFF {
		return 0, fmt.Errorf("%w: %d hashes", ErrTooLarge, len(hashes))
	}

	cleartext := make([]byte, 2+len(hashes)*HashSize)
	w := writer{buf: cleartext}
	w.uint16(uint16(len(hashes)))
	for i := range hashes {
		w.bytes(hashes[i][:])
	}

	return writeRaw(buf, MessageTypeContactRequest, seq, calg, seal, cleartext, sealKey, encKey)
}

// WriteContact builds a contact frame carrying a hash to endpoint map. The
// cleartext is count(2) followed by each (hash, endpoint) pair; endpoints
// are encoded as a family tag, the address bytes and the port.
func WriteContact(buf []byte, seq uint32, contacts ContactMap, calg crypto.CipherAlgorithm, seal *SealSpec, sealKey, encKey []byte) (int, error) {
	if len(contacts) > 0xFFFF {
		return 0, fmt.Errorf("%w: %d contacts", ErrTooLarge, len(contacts))
	}

	size := 2
	for _, ep := range contacts {
		n, err := endpointSize(ep)
		if err != nil {
			return 0, err
		}
		size += HashSize + n
	}

	cleartext := make([]byte, size)
	w := writer{buf: cleartext}
	w.uint16(uint16(len(contacts)))
	for hash, ep := range contacts {
		w.bytes(hash[:])
		writeEndpoint(&w, ep)
	}

	return writeRaw(buf, MessageTypeContact, seq, calg, seal, cleartext, sealKey, encKey)
}

// ParseHashList parses a contact-request payload back into its hash list,
// in request order. The declared count must account for the whole buffer;
// trailing bytes are a format error, never silently dropped.
func ParseHashList(b []byte) ([]Hash, error) {
	r := reader{buf: b}
	count, err := r.uint16()
	if err != nil {
		return nil, err
	}
	if r.remaining() != int(count)*HashSize {
		return nil, fmt.Errorf("%w: %d hashes declared, %d bytes remain", ErrFormat, count, r.remaining())
	}

	hashes := make([]Hash, count)
	for i := range hashes {
		hb, _ := r.bytes(HashSize)
		copy(hashes[i][:], hb)
	}

	return hashes, nil
}

// ParseContactMap parses a contact payload back into a ContactMap. The
// declared count is validated against the remaining buffer as elements are
// read; duplicate hashes and trailing bytes are format errors.
func ParseContactMap(b []byte) (ContactMap, error) {
	r := reader{buf: b}
	count, err := r.uint16()
	if err != nil {
		return nil, err
	}

	contacts := make(ContactMap, count)
	for i := 0; i < int(count); i++ {
		hb, err := r.bytes(HashSize)
		if err != nil {
			return nil, err
		}
		var hash Hash
		copy(hash[:], hb)

		ep, err := readEndpoint(&r)
		if err != nil {
			return nil, err
		}

		if _, dup := contacts[hash]; dup {
			return nil, fmt.Errorf("%w: duplicate contact hash", ErrFormat)
		}
		contacts[hash] = ep
	}

	if r.remaining() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes after contact map", ErrFormat, r.remaining())
	}

	return contacts, nil
}

func endpointSize(ep netip.AddrPort) (int, error) {
	switch {
	case ep.Addr().Is4():
		return 1 + 4 + 2, nil
	case ep.Addr().Is6():
		return 1 + 16 + 2, nil
	default:
		return 0, fmt.Errorf("%w: invalid endpoint address", ErrFormat)
	}
}

func writeEndpoint(w *writer, ep netip.AddrPort) {
	if ep.Addr().Is4() {
		addr := ep.Addr().As4()
		w.uint8(endpointIPv4)
		w.bytes(addr[:])
	} else {
		addr := ep.Addr().As16()
		w.uint8(endpointIPv6)
		w.bytes(addr[:])
	}
	w.uint16(ep.Port())
}

func readEndpoint(r *reader) (netip.AddrPort, error) {
	tag, err := r.bytes(1)
	if err != nil {
		return netip.AddrPort{}, err
	}

	var addr netip.Addr
	switch tag[0] {
	case endpointIPv4:
		b, err := r.bytes(4)
		if err != nil {
			return netip.AddrPort{}, err
		}
		addr = netip.AddrFrom4([4]byte(b))
	case endpointIPv6:
		b, err := r.bytes(16)
		if err != nil {
			return netip.AddrPort{}, err
		}
		addr = netip.AddrFrom16([16]byte(b))
	default:
		return netip.AddrPort{}, fmt.Errorf("%w: unknown address family 0x%02x", ErrFormat, tag[0])
	}

	port, err := r.uint16()
	if err != nil {
		return netip.AddrPort{}, err
	}

	return netip.AddrPortFrom(addr, port), nil
}
