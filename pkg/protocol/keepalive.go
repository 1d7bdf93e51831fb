package protocol

import (
	"crypto/rand"

	"github.com/peerlan/fscp/pkg/crypto"
)

// WriteKeepAlive builds a keep-alive frame whose cleartext is randomLen
// cryptographically random bytes. The content carries no meaning; the frame
// exists to occupy bandwidth and timing, so on the wire it is
// indistinguishable from any other sealed frame of the same size.
func WriteKeepAlive(buf []byte, seq uint32, randomLen int, calg crypto.CipherAlgorithm, seal *SealSpec, sealKey, encKey []byte) (int, error) {
	cleartext := make([]byte, randomLen)
	if _, err := rand.Read(cleartext); err != nil {
		return 0, err
	}

	return writeRaw(buf, MessageTypeKeepAlive, seq, calg, seal, cleartext, sealKey, encKey)
}
