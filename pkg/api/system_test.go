package api

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSystemService(t *testing.T) {
	tmpDir := t.TempDir()

	service, err := NewSystemService(SystemConfig{DataDir: tmpDir})
	require.NoError(t, err)
	assert.NotNil(t, service)
	assert.False(t, service.IsOpen())
}

func TestSystemServiceOpenClose(t *testing.T) {
	tmpDir := t.TempDir()

	service, err := NewSystemService(SystemConfig{DataDir: tmpDir})
	require.NoError(t, err)

	require.NoError(t, service.Open())
	assert.True(t, service.IsOpen())

	require.NoError(t, service.Close())
	assert.False(t, service.IsOpen())

	// Close is safe to call twice.
	require.NoError(t, service.Close())
}

func TestSystemService_APIKeyLifecycle(t *testing.T) {
	tmpDir := t.TempDir()

	service, err := NewSystemService(SystemConfig{
		DataDir:          tmpDir,
		EncryptionKey:    "12345678901234567890123456789012", // 32 bytes, AES-256
		EnableEncryption: true,
	})
	require.NoError(t, err)
	require.NoError(t, service.Open())
	defer service.Close()

	key := APIKey{
		ID:          "test-key-1",
		Key:         "secret123",
		Description: "test key",
		CreatedAt:   time.Now(),
		IsActive:    true,
	}
	require.NoError(t, service.StoreAPIKey(key))

	fetched, err := service.GetAPIKey("test-key-1")
	require.NoError(t, err)
	assert.Equal(t, "secret123", fetched.Key)
	assert.Equal(t, "test key", fetched.Description)

	ids, err := service.ListAPIKeys()
	require.NoError(t, err)
	assert.Contains(t, ids, "test-key-1")

	valid, err := service.ValidateAPIKey("secret123")
	require.NoError(t, err)
	assert.True(t, valid)

	valid, err = service.ValidateAPIKey("wrong-secret")
	require.NoError(t, err)
	assert.False(t, valid)

	require.NoError(t, service.DeleteAPIKey("test-key-1"))
	_, err = service.GetAPIKey("test-key-1")
	assert.Error(t, err)
}

func TestSystemService_ExpiredKeyDoesNotValidate(t *testing.T) {
	tmpDir := t.TempDir()

	service, err := NewSystemService(SystemConfig{DataDir: tmpDir})
	require.NoError(t, err)
	require.NoError(t, service.Open())
	defer service.Close()

	expired := time.Now().Add(-time.Hour)
	key := APIKey{
		ID:        "expired-key",
		Key:       "secret456",
		ExpiresAt: &expired,
		IsActive:  true,
	}
	require.NoError(t, service.StoreAPIKey(key))

	valid, err := service.ValidateAPIKey("secret456")
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestSystemService_EncryptionRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()

	service, err := NewSystemService(SystemConfig{
		DataDir:          tmpDir,
		EncryptionKey:    "12345678901234567890123456789012",
		EnableEncryption: true,
	})
	require.NoError(t, err)

	plaintext := []byte("sensitive metadata")
	ciphertext, err := service.encrypt(plaintext)
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, ciphertext)

	decrypted, err := service.decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestSystemService_NoEncryptionIsPassthrough(t *testing.T) {
	service, err := NewSystemService(SystemConfig{EnableEncryption: false})
	require.NoError(t, err)

	plaintext := []byte("plain metadata")
	ciphertext, err := service.encrypt(plaintext)
	require.NoError(t, err)
	assert.Equal(t, plaintext, ciphertext)
}

func TestSystemService_SystemConfigRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()

	service, err := NewSystemService(SystemConfig{DataDir: tmpDir})
	require.NoError(t, err)
	require.NoError(t, service.Open())
	defer service.Close()

	type info struct {
		Version string `json:"version"`
	}
	require.NoError(t, service.StoreSystemConfig("info", info{Version: "1.0.0"}))

	var got info
	require.NoError(t, service.GetSystemConfig("info", &got))
	assert.Equal(t, "1.0.0", got.Version)
}

func TestSystemService_InitializeSystem(t *testing.T) {
	tmpDir := t.TempDir()

	service, err := NewSystemService(SystemConfig{
		DataDir:          tmpDir,
		EncryptionKey:    "12345678901234567890123456789012",
		EnableEncryption: true,
	})
	require.NoError(t, err)

	require.NoError(t, service.InitializeSystem(tmpDir, "systemkey", "bootstrap-api-key"))
	assert.False(t, service.IsOpen(), "InitializeSystem closes the store once bootstrapping is done")

	require.NoError(t, service.Open())
	defer service.Close()

	root, err := service.GetAPIKey("system-root")
	require.NoError(t, err)
	assert.Equal(t, "bootstrap-api-key", root.Key)

	_, err = os.Stat(tmpDir + "/system/active.log")
	assert.NoError(t, err)
}
