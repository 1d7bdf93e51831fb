package protocol

import (
	"errors"
	"io"
)

var (
	ErrInvalidVersion = errors.New("unsupported protocol version")
	ErrInvalidHeader  = errors.New("invalid header")
)

// Header represents the outer message header carried before every frame
// body. The type byte routes data frames to their channel; it is not part
// of the sealed body.
type Header struct {
	Version uint8  // Protocol version
	Type    uint8  // Message type
	Length  uint16 // Body length
}

// Encode encodes the header to bytes
func (h *Header) Encode() []byte {
	buf := make([]byte, HeaderSize)

	buf[0] = h.Version
	buf[1] = h.Type
	buf[2] = byte(h.Length >> 8)
	buf[3] = byte(h.Length)

	return buf
}

// Decode decodes the header from bytes
func (h *Header) Decode(buf []byte) error {
	if len(buf) < HeaderSize {
		return ErrInvalidHeader
	}

	h.Version = buf[0]
	h.Type = buf[1]
	h.Length = uint16(buf[2])<<8 | uint16(buf[3])

	return nil
}

// Validate validates the header
func (h *Header) Validate() error {
	if h.Version != ProtocolVersion {
		return ErrInvalidVersion
	}

	return nil
}

// ReadHeader reads a header from an io.Reader
func ReadHeader(r io.Reader) (*Header, error) {
	buf := make([]byte, HeaderSize)

	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}

	header := &Header{}
	if err := header.Decode(buf); err != nil {
		return nil, err
	}

	if err := header.Validate(); err != nil {
		return nil, err
	}

	return header, nil
}

// WriteHeader writes a header to an io.Writer
func WriteHeader(w io.Writer, h *Header) error {
	buf := h.Encode()
	_, err := w.Write(buf)
	return err
}
