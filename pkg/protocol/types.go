package protocol

// Protocol constants
const (
	// Protocol version
	ProtocolVersion = 3

	// Header size: version(1) + type(1) + length(2)
	HeaderSize = 4

	// Peer identifier hash size (BLAKE2b-256)
	HashSize = 32

	// Minimum data frame body length: seq(4) + iv_len(2) + ciphertext_len(2)
	MinBodyLength = 8

	// Number of logical data channels multiplexed over one transport
	ChannelCount = 16
)

// Message types
const (
	// Handshake phase (codecs out of scope here, values kept for the wire)
	MessageTypeHelloRequest   uint8 = 0x00
	MessageTypeHelloResponse  uint8 = 0x01
	MessageTypePresentation   uint8 = 0x02
	MessageTypeSessionRequest uint8 = 0x03
	MessageTypeSession        uint8 = 0x04

	// Data channels: channel n is MessageTypeData + n, n in [0, ChannelCount)
	MessageTypeData uint8 = 0x70

	// Peer discovery and liveness
	MessageTypeContactRequest uint8 = 0xFD
	MessageTypeContact        uint8 = 0xFE
	MessageTypeKeepAlive      uint8 = 0xFF
)

// ChannelNumber identifies one of the logical data sub-channels.
type ChannelNumber uint8

// Hash represents a peer identifier hash (32 bytes).
type Hash [HashSize]byte

// DataMessageType returns the message type byte for a data frame on the
// given channel.
func DataMessageType(channel ChannelNumber) uint8 {
	return MessageTypeData + uint8(channel)
}

// DataChannel extracts the channel number from a data message type. ok is
// false if the type is not a data frame type.
func DataChannel(msgType uint8) (ChannelNumber, bool) {
	if msgType < MessageTypeData || msgType >= MessageTypeData+ChannelCount {
		return 0, false
	}
	return ChannelNumber(msgType - MessageTypeData), true
}
