// Command fscpdump builds and inspects secure channel frames.
//
// In build mode it reads cleartext from stdin and prints a hex-encoded
// sealed data frame; in dump mode (the default) it reads a hex-encoded
// frame, verifies the seal, decrypts the payload and prints every field.
// Keys and algorithms come from a TOML config file.
package main

import (
	"bufio"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/peerlan/fscp/pkg/crypto"
	"github.com/peerlan/fscp/pkg/protocol"
)

const defaultConfigPath = "./fscpdump.toml"

var (
	configPath = flag.String("config", defaultConfigPath, "Path to TOML config file")
	buildMode  = flag.Bool("build", false, "Build a data frame from stdin cleartext instead of dumping")
	hashMode   = flag.Bool("hash", false, "Print the peer identifier hash of stdin and exit")
	channel    = flag.Int("channel", 0, "Data channel number (build mode)")
	seq        = flag.Uint("seq", 0, "Sequence number (build mode)")
)

// Config holds the key material and algorithm choices for a channel.
type Config struct {
	Cipher   string `toml:"cipher"`
	Digest   string `toml:"digest"` // empty means unsealed
	HMACSize int    `toml:"hmac_size"`
	SealKey  string `toml:"seal_key"` // hex
	EncKey   string `toml:"enc_key"`  // hex
}

func main() {
	flag.Parse()

	input, err := io.ReadAll(bufio.NewReader(os.Stdin))
	if err != nil {
		log.Fatalf("Failed to read stdin: %v", err)
	}

	if *hashMode {
		hashStr, err := crypto.HashString(input)
		if err != nil {
			log.Fatalf("Failed to hash identity: %v", err)
		}
		fmt.Println(hashStr)
		return
	}

	calg, seal, sealKey, encKey, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *buildMode {
		if err := build(input, calg, seal, sealKey, encKey); err != nil {
			log.Fatalf("Failed to build frame: %v", err)
		}
		return
	}

	if err := dump(input, calg, seal, sealKey, encKey); err != nil {
		log.Fatalf("Failed to dump frame: %v", err)
	}
}

func loadConfig(path string) (crypto.CipherAlgorithm, *protocol.SealSpec, []byte, []byte, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return 0, nil, nil, nil, err
	}

	calg, err := crypto.ParseCipherAlgorithm(cfg.Cipher)
	if err != nil {
		return 0, nil, nil, nil, err
	}

	encKey, err := hex.DecodeString(cfg.EncKey)
	if err != nil {
		return 0, nil, nil, nil, fmt.Errorf("bad enc_key: %v", err)
	}

	var seal *protocol.SealSpec
	var sealKey []byte
	if cfg.Digest != "" {
		digest, err := crypto.ParseDigestAlgorithm(cfg.Digest)
		if err != nil {
			return 0, nil, nil, nil, err
		}
		sealKey, err = hex.DecodeString(cfg.SealKey)
		if err != nil {
			return 0, nil, nil, nil, fmt.Errorf("bad seal_key: %v", err)
		}
		seal = &protocol.SealSpec{Digest: digest, TagSize: cfg.HMACSize}
	}

	return calg, seal, sealKey, encKey, nil
}

func build(cleartext []byte, calg crypto.CipherAlgorithm, seal *protocol.SealSpec, sealKey, encKey []byte) error {
	buf := make([]byte, protocol.HeaderSize+0xFFFF)
	n, err := protocol.WriteData(buf, protocol.ChannelNumber(*channel), uint32(*seq), calg, seal, cleartext, sealKey, encKey)
	if err != nil {
		return err
	}

	fmt.Println(hex.EncodeToString(buf[:n]))
	return nil
}

func dump(input []byte, calg crypto.CipherAlgorithm, seal *protocol.SealSpec, sealKey, encKey []byte) error {
	frame, err := hex.DecodeString(strings.TrimSpace(string(input)))
	if err != nil {
		return fmt.Errorf("input is not hex: %v", err)
	}

	var header protocol.Header
	if err := header.Decode(frame); err != nil {
		return err
	}
	if err := header.Validate(); err != nil {
		return err
	}

	fmt.Printf("version:         %d\n", header.Version)
	fmt.Printf("type:            0x%02x%s\n", header.Type, typeName(header.Type))
	fmt.Printf("length:          %d\n", header.Length)

	body := frame[protocol.HeaderSize:]
	if int(header.Length) != len(body) {
		return fmt.Errorf("header declares %d body bytes, have %d", header.Length, len(body))
	}

	df, err := protocol.MapData(body)
	if err != nil {
		return err
	}

	fmt.Printf("sequence number: %d\n", df.SequenceNumber())
	fmt.Printf("iv:              %x\n", df.IV())
	fmt.Printf("ciphertext:      %x\n", df.Ciphertext())
	fmt.Printf("seal bytes:      %x\n", df.HMAC())

	verified, err := df.CheckSeal(seal, sealKey)
	if err != nil {
		return err
	}
	if seal != nil {
		fmt.Println("seal:            OK")
	} else {
		fmt.Println("seal:            not configured, skipped")
	}

	cleartext, err := verified.Cleartext(calg, encKey)
	if err != nil {
		return err
	}
	fmt.Printf("cleartext:       %x\n", cleartext)

	switch header.Type {
	case protocol.MessageTypeContactRequest:
		hashes, err := protocol.ParseHashList(cleartext)
		if err != nil {
			return err
		}
		for _, h := range hashes {
			fmt.Printf("  requested:     %x\n", h)
		}
	case protocol.MessageTypeContact:
		contacts, err := protocol.ParseContactMap(cleartext)
		if err != nil {
			return err
		}
		for h, ep := range contacts {
			fmt.Printf("  contact:       %x -> %s\n", h, ep)
		}
	}

	return nil
}

func typeName(t uint8) string {
	if ch, ok := protocol.DataChannel(t); ok {
		return fmt.Sprintf(" (data, channel %d)", ch)
	}
	switch t {
	case protocol.MessageTypeContactRequest:
		return " (contact request)"
	case protocol.MessageTypeContact:
		return " (contact)"
	case protocol.MessageTypeKeepAlive:
		return " (keep-alive)"
	default:
		return ""
	}
}
