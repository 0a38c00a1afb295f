package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/imovia/fluxo/pkg/domain"
	"github.com/imovia/fluxo/pkg/ports"
)

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

// envelopeKey holds the sealed transcript inside the envelope's variables.
const envelopeKey = "__encrypted__"

// ErrNotEnvelope is returned when a stored transcript carries no sealed payload.
var ErrNotEnvelope = errors.New("transcript is missing encrypted data envelope")

type encryptionMiddleware struct {
	next   ports.TranscriptStore
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that seals transcripts with AES-GCM.
// The stored envelope keeps only the id, the final status and the archive time.
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	if len(config.ActiveKey) != 32 {
		panic("active key must be 32 bytes (AES-256)")
	}
	return func(next ports.TranscriptStore) ports.TranscriptStore {
		return &encryptionMiddleware{
			next:   next,
			config: config,
		}
	}
}

func (m *encryptionMiddleware) Save(ctx context.Context, t *domain.Transcript) error {
	plainText, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal transcript: %w", err)
	}

	ciphertext, err := encrypt(plainText, m.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt transcript: %w", err)
	}

	envelope := &domain.Transcript{
		ConversationID: t.ConversationID,
		ArchivedAt:     t.ArchivedAt,
		State:          *domain.NewRunState(),
	}
	envelope.State.Status = t.State.Status
	envelope.State.Variables[envelopeKey] = base64.StdEncoding.EncodeToString(ciphertext)

	return m.next.Save(ctx, envelope)
}

func (m *encryptionMiddleware) Load(ctx context.Context, conversationID string) (*domain.Transcript, error) {
	envelope, err := m.next.Load(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	encryptedStr, ok := envelope.State.Variables[envelopeKey].(string)
	if !ok {
		// Fail closed: plain transcripts are not returned once encryption is on.
		return nil, ErrNotEnvelope
	}

	ciphertext, err := base64.StdEncoding.DecodeString(encryptedStr)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}

	plainText, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt transcript: %w", err)
	}

	var t domain.Transcript
	if err := json.Unmarshal(plainText, &t); err != nil {
		return nil, fmt.Errorf("failed to unmarshal decrypted transcript: %w", err)
	}
	return &t, nil
}

func (m *encryptionMiddleware) Delete(ctx context.Context, conversationID string) error {
	return m.next.Delete(ctx, conversationID)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// Helpers

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	// Try active key first
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}

	// Try fallbacks in order
	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}

	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	ciphertextBytes := ciphertext[gcm.NonceSize():]

	return gcm.Open(nil, nonce, ciphertextBytes, nil)
}
