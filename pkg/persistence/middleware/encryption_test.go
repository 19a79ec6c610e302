package middleware_test

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finecision/finecision/pkg/adapters/memory"
	"github.com/finecision/finecision/pkg/domain"
	"github.com/finecision/finecision/pkg/persistence/middleware"
	"github.com/finecision/finecision/pkg/ports"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func secure(t *testing.T, next ports.ApplicationStore, cfg middleware.EncryptionConfig) ports.ApplicationStore {
	mw, err := middleware.NewEncryptionMiddleware(cfg)
	require.NoError(t, err)
	return middleware.Chain(next, mw)
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	store := secure(t, memory.NewApplicationStore(), middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ports.RunApplicationStoreContract(t, store)
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := memory.NewApplicationStore()
	store := secure(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ctx := context.Background()

	score := 72.0
	app := &domain.Application{
		ID:          "app-1",
		WorkflowID:  "personal-loan",
		Variables:   map[string]any{"name": "Ada Lovelace", "income": 4200.0},
		Status:      domain.ApplicationStatus(domain.StatusApproved),
		CreditScore: &score,
	}
	require.NoError(t, store.Save(ctx, app))

	raw, err := underlying.Load(ctx, "app-1")
	require.NoError(t, err)
	assert.NotContains(t, raw.Variables, "name")
	assert.Contains(t, raw.Variables, middleware.EnvelopeKey)
	assert.Equal(t, app.Status, raw.Status, "status stays readable")
	require.NotNil(t, raw.CreditScore)
	assert.Equal(t, 72.0, *raw.CreditScore)

	assert.Equal(t, "Ada Lovelace", app.Variables["name"], "caller's application must not be modified")

	loaded, err := store.Load(ctx, "app-1")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", loaded.Variables["name"])
	assert.Equal(t, 4200.0, loaded.Variables["income"])

	all, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Ada Lovelace", all[0].Variables["name"])
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := memory.NewApplicationStore()
	oldKey, newKey := generateKey(t), generateKey(t)
	ctx := context.Background()

	old := secure(t, underlying, middleware.EncryptionConfig{ActiveKey: oldKey})
	require.NoError(t, old.Save(ctx, &domain.Application{
		ID:        "rotated",
		Variables: map[string]any{"data": "encrypted-with-old-key"},
	}))

	rotated := secure(t, underlying, middleware.EncryptionConfig{ActiveKey: newKey, FallbackKeys: [][]byte{oldKey}})
	loaded, err := rotated.Load(ctx, "rotated")
	require.NoError(t, err)
	assert.Equal(t, "encrypted-with-old-key", loaded.Variables["data"])

	// Re-saving seals with the new key, so the old key alone no longer works.
	require.NoError(t, rotated.Save(ctx, loaded))
	_, err = old.Load(ctx, "rotated")
	assert.Error(t, err)

	withoutFallback := secure(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	_, err = withoutFallback.Load(ctx, "rotated")
	assert.Error(t, err)
}

func TestEncryptionMiddleware_PlainRecord(t *testing.T) {
	underlying := memory.NewApplicationStore()
	ctx := context.Background()
	require.NoError(t, underlying.Save(ctx, &domain.Application{ID: "plain", Variables: map[string]any{"age": 30.0}}))

	store := secure(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	_, err := store.Load(ctx, "plain")
	assert.ErrorContains(t, err, "missing encrypted data envelope")

	_, err = store.List(ctx)
	assert.ErrorContains(t, err, "plain")
}

func TestNewEncryptionMiddleware_KeySize(t *testing.T) {
	_, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short")})
	assert.ErrorIs(t, err, middleware.ErrKeySize)

	_, err = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    generateKey(t),
		FallbackKeys: [][]byte{[]byte("short")},
	})
	assert.ErrorIs(t, err, middleware.ErrKeySize)
}

func TestParseKey(t *testing.T) {
	key := generateKey(t)
	got, err := middleware.ParseKey(base64.StdEncoding.EncodeToString(key))
	require.NoError(t, err)
	assert.Equal(t, key, got)

	_, err = middleware.ParseKey(base64.StdEncoding.EncodeToString([]byte("short")))
	assert.ErrorIs(t, err, middleware.ErrKeySize)

	_, err = middleware.ParseKey("not base64!")
	assert.Error(t, err)
}
