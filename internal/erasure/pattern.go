package erasure

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/chacha20"

	"go-doc-lifecycle/internal/storage"
)

// gutmannPatterns is the fixed table cycled through by the middle passes of
// the simplified Gutmann method.
var gutmannPatterns = [...]byte{
	0x55, 0xAA, 0x92, 0x49, 0x24, 0x00, 0x11,
	0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88,
	0x99, 0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF,
}

const gutmannRandomEdge = 4

// Pattern describes the content of one overwrite pass. Random is true when the
// pass is filled from a CSPRNG stream; otherwise every byte equals Byte.
type Pattern struct {
	Random bool
	Byte   byte
}

func (p Pattern) String() string {
	if p.Random {
		return "random"
	}
	return fmt.Sprintf("0x%02X", p.Byte)
}

// PatternFor returns the pattern of pass (zero-based) out of total passes.
func PatternFor(method Method, pass int, total int) Pattern {
	switch method {
	case MethodDoD:
		switch pass {
		case 0:
			return Pattern{Byte: 0x00}
		case 1:
			return Pattern{Byte: 0xFF}
		default:
			return Pattern{Random: true}
		}
	case MethodGutmann:
		if pass < gutmannRandomEdge || pass >= total-gutmannRandomEdge {
			return Pattern{Random: true}
		}
		return Pattern{Byte: gutmannPatterns[pass%len(gutmannPatterns)]}
	default:
		return Pattern{Random: true}
	}
}

// newFill builds the storage fill function for a pattern. Random passes use a
// ChaCha20 keystream keyed from crypto/rand, fresh for every pass.
func newFill(p Pattern) (storage.FillFunc, error) {
	if !p.Random {
		value := p.Byte
		return func(buf []byte) error {
			for i := range buf {
				buf[i] = value
			}
			return nil
		}, nil
	}

	key := make([]byte, chacha20.KeySize)
	nonce := make([]byte, chacha20.NonceSize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("seed random pass: %w", err)
	}
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("seed random pass: %w", err)
	}

	cipher, err := chacha20.NewUnauthenticatedCipher(key, nonce)
	if err != nil {
		return nil, fmt.Errorf("init random pass: %w", err)
	}

	return func(buf []byte) error {
		clear(buf)
		cipher.XORKeyStream(buf, buf)
		return nil
	}, nil
}
