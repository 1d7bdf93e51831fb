// Package protocol implements the secure datagram codec for the peer-to-peer
// encrypted channel protocol.
//
// The package defines how a typed frame carrying an encrypted application
// payload, a sequence number and an authentication seal is serialized for
// transmission and safely parsed and validated on receipt. Three auxiliary
// frame kinds support peer discovery and liveness: contact requests, contact
// replies and keep-alives.
//
// # Frame Kinds
//
// Four frame kinds share one sealed and encrypted envelope, differing only
// in their cleartext payload:
//   - Data: an opaque application payload, routed by channel number
//   - ContactRequest: a list of peer identifier hashes the sender wants
//     endpoints for
//   - Contact: a hash to endpoint map answering a contact request
//   - KeepAlive: random padding, occupying bandwidth and timing only
//
// # Wire Format
//
// Every frame starts with a 4-byte outer header:
//   - Version (1 byte): protocol version
//   - Type (1 byte): message type; data channels are 0x70-0x7F, so the
//     channel number routes the frame but is not part of the sealed body
//   - Length (2 bytes): body length
//
// The body follows, all integers in network byte order:
//   - sequence_number (4 bytes): sender-assigned, monotonically increasing
//   - iv_length (2 bytes), iv: 0-length if the cipher needs no IV
//   - ciphertext_length (2 bytes), ciphertext: the encrypted payload
//   - seal_length (2 bytes), seal: HMAC over all preceding body fields;
//     0-length means the frame is unsealed by explicit configuration
//
// # Parsing and Validation
//
// MapData performs structural validation only: every declared length is
// checked against the remaining buffer, cumulatively, before any derived
// offset is trusted. Field accessors on the resulting DataFrame are computed
// views; offsets are re-derived from the buffer on every call.
//
// # Seal Before Decrypt
//
// Seal verification and decryption are sequenced by the type system.
// CheckSeal is the only producer of Verified values and Cleartext is only
// defined on Verified, so unauthenticated ciphertext can never reach the
// cipher:
//
//	frame, err := protocol.MapData(body)
//	...
//	verified, err := frame.CheckSeal(&protocol.SealSpec{
//	    Digest:  crypto.SHA256,
//	    TagSize: 32,
//	}, sealKey)
//	...
//	cleartext, err := verified.Cleartext(crypto.AES256CBC, encKey)
//
// # Errors
//
// ErrFormat covers short buffers, over-declared lengths and trailing
// garbage; ErrSealMismatch a failed verification; ErrBufferTooSmall an
// undersized destination on write (recoverable, nothing written). The
// codec reports all of them to the immediate caller; presenting a uniform
// rejection signal to remote peers is the session layer's responsibility.
//
// # Statelessness
//
// The codec holds no state between calls. All operations are pure
// transforms over caller-supplied buffers and safe for concurrent use on
// independent buffers.
package protocol
