package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/aretw0/flowcanvas/pkg/ports"
)

// envelopeKey is the node data key holding the sealed workflow.
const envelopeKey = "__encrypted__"

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

type encryptionMiddleware struct {
	next ports.WorkflowStore
	// active seals new documents; all is tried in order when opening.
	active cipher.AEAD
	all    []cipher.AEAD
}

// ParseKey decodes a 32 byte key given as hex or standard base64.
func ParseKey(s string) ([]byte, error) {
	if k, err := hex.DecodeString(s); err == nil && len(k) == 32 {
		return k, nil
	}
	if k, err := base64.StdEncoding.DecodeString(s); err == nil && len(k) == 32 {
		return k, nil
	}
	return nil, errors.New("encryption key must be 32 bytes, hex or base64 encoded")
}

// NewEncryptionMiddleware creates a middleware that seals workflow graphs using AES-GCM.
// The stored document keeps its name and timestamp so listing still works;
// the graph is replaced by a single note node carrying the ciphertext.
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	if len(config.ActiveKey) != 32 {
		panic("active key must be 32 bytes (AES-256)")
	}
	keys := append([][]byte{config.ActiveKey}, config.FallbackKeys...)
	aeads := make([]cipher.AEAD, 0, len(keys))
	for _, k := range keys {
		aead, err := newAEAD(k)
		if err != nil {
			panic(fmt.Sprintf("invalid encryption key: %v", err))
		}
		aeads = append(aeads, aead)
	}
	return func(next ports.WorkflowStore) ports.WorkflowStore {
		return &encryptionMiddleware{next: next, active: aeads[0], all: aeads}
	}
}

func (m *encryptionMiddleware) Save(ctx context.Context, wf *domain.Workflow) error {
	plainText, err := json.Marshal(wf.Graph)
	if err != nil {
		return fmt.Errorf("failed to marshal graph: %w", err)
	}

	ciphertext, err := seal(m.active, plainText)
	if err != nil {
		return fmt.Errorf("failed to encrypt graph: %w", err)
	}

	envelope := &domain.Workflow{
		Name:      wf.Name,
		UpdatedAt: wf.UpdatedAt,
		Graph: domain.Graph{
			Nodes: []domain.Node{{
				ID:    "encrypted",
				Type:  domain.NodeTypeNote,
				Label: "Encrypted workflow",
				Data:  map[string]string{envelopeKey: base64.StdEncoding.EncodeToString(ciphertext)},
			}},
			Edges: []domain.Edge{},
		},
	}
	return m.next.Save(ctx, envelope)
}

func (m *encryptionMiddleware) Load(ctx context.Context, name string) (*domain.Workflow, error) {
	envelope, err := m.next.Load(ctx, name)
	if err != nil {
		return nil, err
	}

	encryptedStr, ok := sealed(envelope.Graph)
	if !ok {
		// Fail secure: a plain document under an encrypting store is rejected.
		return nil, fmt.Errorf("workflow %q is missing the encrypted envelope", name)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(encryptedStr)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}

	plainText, err := open(m.all, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt workflow %q: %w", name, err)
	}

	var g domain.Graph
	if err := json.Unmarshal(plainText, &g); err != nil {
		return nil, fmt.Errorf("failed to unmarshal decrypted graph: %w", err)
	}
	if g.Edges == nil {
		g.Edges = []domain.Edge{}
	}

	out := *envelope
	out.Graph = g
	return &out, nil
}

func (m *encryptionMiddleware) Delete(ctx context.Context, name string) error {
	return m.next.Delete(ctx, name)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func sealed(g domain.Graph) (string, bool) {
	if len(g.Nodes) != 1 {
		return "", false
	}
	v, ok := g.Nodes[0].Data[envelopeKey]
	return v, ok
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// seal prefixes the ciphertext with its random nonce.
func seal(aead cipher.AEAD, plaintext []byte) ([]byte, error) {
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

// open tries each key in turn, which lets a rotated store read documents sealed with older keys.
func open(aeads []cipher.AEAD, sealed []byte) ([]byte, error) {
	for _, aead := range aeads {
		n := aead.NonceSize()
		if len(sealed) < n {
			return nil, errors.New("ciphertext too short")
		}
		if plain, err := aead.Open(nil, sealed[:n], sealed[n:], nil); err == nil {
			return plain, nil
		}
	}
	return nil, errors.New("decryption failed with all available keys")
}
