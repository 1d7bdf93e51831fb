package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/peerlan/fscp/pkg/crypto"
)

var (
	// ErrSealMismatch reports a failed seal verification. The frame must be
	// discarded; decryption is not reachable from it.
	ErrSealMismatch = crypto.ErrSealMismatch

	ErrTooLarge       = errors.New("payload too large")
	ErrInvalidChannel = errors.New("invalid channel number")
)

// SealSpec configures frame sealing: the digest algorithm and the tag size
// the seal is truncated to. A nil *SealSpec means frames carry no integrity
// tag at all; that is an explicit configuration choice, not a fallback.
type SealSpec struct {
	Digest  crypto.DigestAlgorithm
	TagSize int
}

// DataFrame is a read-only view over a validated data frame body. It
// references the buffer it was mapped on without copying, so it must not
// outlive that buffer.
//
// The body layout, all integers in network byte order:
//
//	sequence_number(4) · iv_len(2) · iv · ciphertext_len(2) · ciphertext ·
//	seal_len(2) · seal
//
// The seal covers everything up to and including the ciphertext.
type DataFrame struct {
	body []byte
}

// MapData validates the structural layout of body and maps a frame view
// onto it. Every declared length is checked against the remaining buffer
// before it is trusted; on any violation MapData fails with ErrFormat and
// no frame is returned.
func MapData(body []byte) (*DataFrame, error) {
	if len(body) < MinBodyLength {
		return nil, fmt.Errorf("%w: body length %d below minimum %d", ErrFormat, len(body), MinBodyLength)
	}

	r := reader{buf: body}
	if _, err := r.uint32(); err != nil { // sequence number
		return nil, err
	}

	ivLen, err := r.uint16()
	if err != nil {
		return nil, err
	}
	if _, err := r.bytes(int(ivLen)); err != nil {
		return nil, err
	}

	ctLen, err := r.uint16()
	if err != nil {
		return nil, err
	}
	if _, err := r.bytes(int(ctLen)); err != nil {
		return nil, err
	}

	sealLen, err := r.uint16()
	if err != nil {
		return nil, err
	}
	if _, err := r.bytes(int(sealLen)); err != nil {
		return nil, err
	}

	if r.remaining() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes after seal", ErrFormat, r.remaining())
	}

	return &DataFrame{body: body}, nil
}

// The accessors below are computed views into the validated buffer. Each
// offset is derived by summing the sizes of the preceding fields on every
// call; nothing is cached.

// SequenceNumber returns the sender-assigned sequence number.
func (f *DataFrame) SequenceNumber() uint32 {
	return binary.BigEndian.Uint32(f.body[0:4])
}

// IVSize returns the initialization vector length.
func (f *DataFrame) IVSize() int {
	return int(binary.BigEndian.Uint16(f.body[4:6]))
}

// IV returns the initialization vector.
func (f *DataFrame) IV() []byte {
	return f.body[6 : 6+f.IVSize()]
}

// CiphertextSize returns the ciphertext length.
func (f *DataFrame) CiphertextSize() int {
	off := 6 + f.IVSize()
	return int(binary.BigEndian.Uint16(f.body[off : off+2]))
}

// Ciphertext returns the encrypted payload.
func (f *DataFrame) Ciphertext() []byte {
	off := 8 + f.IVSize()
	return f.body[off : off+f.CiphertextSize()]
}

// HMACSize returns the seal length. 0 means the frame is unsealed.
func (f *DataFrame) HMACSize() int {
	off := 8 + f.IVSize() + f.CiphertextSize()
	return int(binary.BigEndian.Uint16(f.body[off : off+2]))
}

// HMAC returns the seal bytes.
func (f *DataFrame) HMAC() []byte {
	off := 10 + f.IVSize() + f.CiphertextSize()
	return f.body[off : off+f.HMACSize()]
}

// sealedRange returns the byte range the seal is computed over: sequence
// number, IV length and IV, ciphertext length and ciphertext.
func (f *DataFrame) sealedRange() []byte {
	return f.body[:8+f.IVSize()+f.CiphertextSize()]
}

// Verified wraps a data frame whose seal has been checked. Decryption is
// only reachable through a Verified value, so ciphertext can never be
// processed before its seal is verified.
type Verified struct {
	frame *DataFrame
}

// Frame returns the underlying frame view.
func (v Verified) Frame() *DataFrame {
	return v.frame
}

// CheckSeal recomputes the seal over the frame with the given key and
// compares it against the stored seal bytes in constant time. On success it
// returns a Verified value granting access to decryption; on failure it
// returns ErrSealMismatch and the frame must be discarded.
//
// A nil seal spec waives integrity checking entirely; the frame passes
// without inspection of its seal field.
func (f *DataFrame) CheckSeal(seal *SealSpec, sealKey []byte) (Verified, error) {
	if seal == nil {
		return Verified{frame: f}, nil
	}

	if f.HMACSize() != seal.TagSize {
		return Verified{}, ErrSealMismatch
	}
	if err := crypto.VerifySeal(seal.Digest, sealKey, f.sealedRange(), f.HMAC(), seal.TagSize); err != nil {
		return Verified{}, err
	}

	return Verified{frame: f}, nil
}

// CleartextSize returns the buffer capacity the decrypted payload needs.
// Exact for AEAD ciphers, an upper bound for padded block ciphers.
func (v Verified) CleartextSize(calg crypto.CipherAlgorithm) int {
	return calg.CleartextSize(v.frame.CiphertextSize())
}

// Cleartext decrypts the frame payload and returns it as a fresh buffer.
// On failure no partially decrypted bytes are returned.
func (v Verified) Cleartext(calg crypto.CipherAlgorithm, encKey []byte) ([]byte, error) {
	return crypto.Decrypt(calg, encKey, v.frame.IV(), v.frame.Ciphertext())
}

// WriteData builds a complete data frame (outer header included) into buf:
// the cleartext is encrypted under calg/encKey with a fresh random IV, the
// envelope is serialized, and the seal is computed over it with sealKey.
// It returns the total byte count written.
//
// The destination capacity is checked before any byte is written; on
// ErrBufferTooSmall the buffer is untouched.
func WriteData(buf []byte, channel ChannelNumber, seq uint32, calg crypto.CipherAlgorithm, seal *SealSpec, cleartext, sealKey, encKey []byte) (int, error) {
	if channel >= ChannelCount {
		return 0, fmt.Errorf("%w: %d", ErrInvalidChannel, channel)
	}
	return writeRaw(buf, DataMessageType(channel), seq, calg, seal, cleartext, sealKey, encKey)
}

// writeRaw builds the sealed and encrypted envelope shared by all four
// frame kinds, differing only in the message type and the cleartext.
func writeRaw(buf []byte, msgType uint8, seq uint32, calg crypto.CipherAlgorithm, seal *SealSpec, cleartext, sealKey, encKey []byte) (int, error) {
	ctLen, err := calg.CiphertextSize(len(cleartext))
	if err != nil {
		return 0, err
	}

	ivLen := calg.IVSize()
	tagSize := 0
	if seal != nil {
		if seal.TagSize < 1 || seal.TagSize > seal.Digest.Size() {
			return 0, fmt.Errorf("%w: %d for %s", crypto.ErrInvalidTagSize, seal.TagSize, seal.Digest)
		}
		tagSize = seal.TagSize
	}

	bodyLen := MinBodyLength + ivLen + ctLen + 2 + tagSize
	if ctLen > 0xFFFF || bodyLen > 0xFFFF {
		return 0, fmt.Errorf("%w: body length %d", ErrTooLarge, bodyLen)
	}

	total := HeaderSize + bodyLen
	if total > len(buf) {
		return 0, fmt.Errorf("%w: need %d bytes, have %d", ErrBufferTooSmall, total, len(buf))
	}

	iv, err := crypto.GenerateIV(calg)
	if err != nil {
		return 0, err
	}
	ciphertext, err := crypto.Encrypt(calg, encKey, iv, cleartext)
	if err != nil {
		return 0, err
	}
	if len(ciphertext) != ctLen {
		return 0, fmt.Errorf("cipher %s produced %d bytes, expected %d", calg, len(ciphertext), ctLen)
	}

	w := writer{buf: buf}
	w.uint8(ProtocolVersion)
	w.uint8(msgType)
	w.uint16(uint16(bodyLen))

	w.uint32(seq)
	w.uint16(uint16(ivLen))
	w.bytes(iv)
	w.uint16(uint16(ctLen))
	if err := w.bytes(ciphertext); err != nil {
		return 0, err
	}

	if seal == nil {
		if err := w.uint16(0); err != nil {
			return 0, err
		}
		return w.off, nil
	}

	tag, err := crypto.Seal(seal.Digest, sealKey, buf[HeaderSize:w.off], tagSize)
	if err != nil {
		return 0, err
	}
	w.uint16(uint16(tagSize))
	if err := w.bytes(tag); err != nil {
		return 0, err
	}

	return w.off, nil
}
