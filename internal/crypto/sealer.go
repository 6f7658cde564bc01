// Package crypto implements the payload seal stage: ChaCha20-Poly1305
// under an externally provisioned key held in a memguard enclave.
package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/awnumar/memguard"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/convoyapp/convoy/internal/core"
)

// BoxSealer seals plaintext as nonce||ciphertext. The key never sits
// in plain process memory between seals; it lives in an enclave and is
// opened per operation.
type BoxSealer struct {
	key *memguard.Enclave
}

// NewBoxSealer takes the hex-encoded 32-byte key from configuration.
// Key provisioning is injected here and nowhere else.
func NewBoxSealer(hexKey string) (*BoxSealer, error) {
	if hexKey == "" {
		return nil, core.ErrKeyUnavailable
	}
	raw, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("payload key is not valid hex: %w", err)
	}
	if len(raw) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("payload key must be %d bytes, got %d", chacha20poly1305.KeySize, len(raw))
	}
	// NewEnclave wipes raw.
	enclave := memguard.NewEnclave(raw)
	log.Info().Str("module", "crypto").Msg("payload sealer ready")
	return &BoxSealer{key: enclave}, nil
}

func (s *BoxSealer) Seal(plaintext []byte) ([]byte, error) {
	if s == nil || s.key == nil {
		return nil, core.ErrKeyUnavailable
	}
	buf, err := s.key.Open()
	if err != nil {
		return nil, fmt.Errorf("open key enclave: %w", err)
	}
	defer buf.Destroy()

	aead, err := chacha20poly1305.New(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("init aead: %w", err)
	}
	nonce := make([]byte, chacha20poly1305.NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}
	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Open reverses Seal. The relay itself never calls this; it exists for
// operators and tests.
func (s *BoxSealer) Open(sealed []byte) ([]byte, error) {
	if s == nil || s.key == nil {
		return nil, core.ErrKeyUnavailable
	}
	if len(sealed) < chacha20poly1305.NonceSize {
		return nil, fmt.Errorf("sealed payload too short")
	}
	buf, err := s.key.Open()
	if err != nil {
		return nil, fmt.Errorf("open key enclave: %w", err)
	}
	defer buf.Destroy()

	aead, err := chacha20poly1305.New(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("init aead: %w", err)
	}
	nonce, ct := sealed[:chacha20poly1305.NonceSize], sealed[chacha20poly1305.NonceSize:]
	return aead.Open(nil, nonce, ct, nil)
}
