package middleware_test

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"io"
	"testing"

	"github.com/aretw0/flowcanvas/pkg/adapters/memory"
	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/aretw0/flowcanvas/pkg/persistence/middleware"
	"github.com/aretw0/flowcanvas/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func secretWorkflow(name string) *domain.Workflow {
	return &domain.Workflow{
		Name: name,
		Graph: domain.Graph{
			Nodes: []domain.Node{
				{ID: "s", Type: domain.NodeTypeStart, Label: "Start"},
				{ID: "a", Type: domain.NodeTypeAgent, Label: "Secret Sauce Agent"},
			},
			Edges: []domain.Edge{{ID: "e", Source: "s", Target: "a"}},
		},
	}
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	store := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(memory.NewStore())
	ports.RunWorkflowStoreContract(t, store)
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := memory.NewStore()
	secure := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlying)
	ctx := context.Background()

	require.NoError(t, secure.Save(ctx, secretWorkflow("flow")))

	// The underlying document is an opaque envelope.
	stored, err := underlying.Load(ctx, "flow")
	require.NoError(t, err)
	assert.Equal(t, "flow", stored.Name)
	require.Len(t, stored.Graph.Nodes, 1)
	assert.Equal(t, domain.NodeTypeNote, stored.Graph.Nodes[0].Type)
	assert.NotContains(t, stored.Graph.Nodes[0].Data["__encrypted__"], "Secret Sauce")

	loaded, err := secure.Load(ctx, "flow")
	require.NoError(t, err)
	assert.Equal(t, secretWorkflow("flow").Graph, loaded.Graph)

	names, err := secure.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"flow"}, names)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := memory.NewStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)
	ctx := context.Background()

	secureOld := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})(underlying)
	require.NoError(t, secureOld.Save(ctx, secretWorkflow("rotation")))

	secureNew := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})(underlying)

	loaded, err := secureNew.Load(ctx, "rotation")
	require.NoError(t, err, "fallback key should decrypt")
	assert.Len(t, loaded.Graph.Nodes, 2)

	// Saving again re-seals with the active key.
	require.NoError(t, secureNew.Save(ctx, loaded))
	_, err = secureOld.Load(ctx, "rotation")
	assert.Error(t, err, "old key alone must no longer decrypt")
}

func TestEncryptionMiddleware_RejectsPlainDocuments(t *testing.T) {
	underlying := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, underlying.Save(ctx, secretWorkflow("plain")))

	secure := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlying)
	_, err := secure.Load(ctx, "plain")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing the encrypted envelope")

	_, err = secure.Load(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrWorkflowNotFound)
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	assert.Panics(t, func() {
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	})
}

func TestParseKey(t *testing.T) {
	key := generateKey(t)

	got, err := middleware.ParseKey(hex.EncodeToString(key))
	require.NoError(t, err)
	assert.Equal(t, key, got)

	got, err = middleware.ParseKey(base64.StdEncoding.EncodeToString(key))
	require.NoError(t, err)
	assert.Equal(t, key, got)

	_, err = middleware.ParseKey("deadbeef")
	assert.Error(t, err)
}
