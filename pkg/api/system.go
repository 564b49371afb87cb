package api

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/emberdb/emberdb/pkg/store"
)

// SystemConfig configures a SystemService.
type SystemConfig struct {
	DataDir          string
	EncryptionKey    string
	EnableEncryption bool
	MaxRecordSize    int
}

// SystemService is a second Engine instance, scoped to operational
// metadata (API keys, system config) and kept under DataDir/system so
// it never shares a log with the user keyspace. Values are optionally
// AES-GCM encrypted at rest; the user keyspace served by pkg/api's
// kv handlers is never encrypted by this mechanism.
type SystemService struct {
	engine *store.Engine
	config SystemConfig
	gcm    cipher.AEAD
	isOpen bool
}

// NewSystemService constructs a SystemService. If EnableEncryption is
// set and EncryptionKey is non-empty, values are sealed with AES-GCM
// before being written through the engine.
func NewSystemService(config SystemConfig) (*SystemService, error) {
	s := &SystemService{config: config}

	if config.EnableEncryption && config.EncryptionKey != "" {
		block, err := aes.NewCipher([]byte(config.EncryptionKey))
		if err != nil {
			return nil, fmt.Errorf("failed to create cipher: %w", err)
		}
		gcm, err := cipher.NewGCM(block)
		if err != nil {
			return nil, fmt.Errorf("failed to create GCM: %w", err)
		}
		s.gcm = gcm
	}

	return s, nil
}

// Open opens the underlying system engine under DataDir/system.
func (s *SystemService) Open() error {
	systemDir := filepath.Join(s.config.DataDir, "system")
	s.engine = store.NewEngine(store.EngineConfig{
		FilePath:      filepath.Join(systemDir, "active.log"),
		FsyncInterval: time.Second,
	})
	if _, err := s.engine.Open(); err != nil {
		return fmt.Errorf("failed to open system store: %w", err)
	}
	s.isOpen = true
	return nil
}

// Close releases the underlying engine. Safe to call more than once.
func (s *SystemService) Close() error {
	if !s.isOpen {
		return nil
	}
	s.isOpen = false
	return s.engine.Close()
}

// IsOpen reports whether Open has succeeded and Close has not yet run.
func (s *SystemService) IsOpen() bool {
	return s.isOpen
}

func (s *SystemService) encrypt(plaintext []byte) ([]byte, error) {
	if !s.config.EnableEncryption || s.gcm == nil {
		return plaintext, nil
	}

	nonce := make([]byte, s.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return s.gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func (s *SystemService) decrypt(ciphertext []byte) ([]byte, error) {
	if !s.config.EnableEncryption || s.gcm == nil {
		return ciphertext, nil
	}

	if len(ciphertext) < s.gcm.NonceSize() {
		return nil, fmt.Errorf("ciphertext too short")
	}

	nonce := ciphertext[:s.gcm.NonceSize()]
	ciphertext = ciphertext[s.gcm.NonceSize():]

	plaintext, err := s.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}
	return plaintext, nil
}

// StoreAPIKey stores an API key in the system store, under apikey:<id>.
func (s *SystemService) StoreAPIKey(apiKey APIKey) error {
	if !s.isOpen {
		return fmt.Errorf("system service is not open")
	}

	data, err := json.Marshal(apiKey)
	if err != nil {
		return fmt.Errorf("failed to marshal API key: %w", err)
	}

	encrypted, err := s.encrypt(data)
	if err != nil {
		return fmt.Errorf("failed to encrypt API key: %w", err)
	}

	return s.engine.Set([]byte("apikey:"+apiKey.ID), encrypted)
}

// GetAPIKey retrieves an API key from the system store.
func (s *SystemService) GetAPIKey(keyID string) (*APIKey, error) {
	if !s.isOpen {
		return nil, fmt.Errorf("system service is not open")
	}

	encrypted, err := s.engine.Get([]byte("apikey:" + keyID))
	if err != nil {
		return nil, fmt.Errorf("failed to get API key: %w", err)
	}

	data, err := s.decrypt(encrypted)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt API key: %w", err)
	}

	var apiKey APIKey
	if err := json.Unmarshal(data, &apiKey); err != nil {
		return nil, fmt.Errorf("failed to unmarshal API key: %w", err)
	}
	return &apiKey, nil
}

// ValidateAPIKey reports whether apiKeyValue matches an active,
// unexpired key in the system store.
func (s *SystemService) ValidateAPIKey(apiKeyValue string) (bool, error) {
	if !s.isOpen {
		return false, fmt.Errorf("system service is not open")
	}

	ids, err := s.ListAPIKeys()
	if err != nil {
		return false, fmt.Errorf("failed to list API keys: %w", err)
	}

	for _, id := range ids {
		apiKey, err := s.GetAPIKey(id)
		if err != nil {
			continue
		}
		if apiKey.Key != apiKeyValue || !apiKey.IsActive {
			continue
		}
		if apiKey.ExpiresAt != nil && time.Now().After(*apiKey.ExpiresAt) {
			return false, nil
		}
		return true, nil
	}

	return false, nil
}

// ListAPIKeys returns every stored API key's ID.
func (s *SystemService) ListAPIKeys() ([]string, error) {
	if !s.isOpen {
		return nil, fmt.Errorf("system service is not open")
	}

	keys := s.engine.ListKeys([]byte("apikey:"))
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, k[len("apikey:"):])
	}
	return ids, nil
}

// DeleteAPIKey removes an API key from the system store.
func (s *SystemService) DeleteAPIKey(keyID string) error {
	if !s.isOpen {
		return fmt.Errorf("system service is not open")
	}
	return s.engine.Delete([]byte("apikey:" + keyID))
}

// StoreSystemConfig stores a JSON-encoded configuration value under
// config:<key>.
func (s *SystemService) StoreSystemConfig(key string, value interface{}) error {
	if !s.isOpen {
		return fmt.Errorf("system service is not open")
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal config value: %w", err)
	}

	encrypted, err := s.encrypt(data)
	if err != nil {
		return fmt.Errorf("failed to encrypt config value: %w", err)
	}

	return s.engine.Set([]byte("config:"+key), encrypted)
}

// GetSystemConfig decodes the configuration value stored under
// config:<key> into value.
func (s *SystemService) GetSystemConfig(key string, value interface{}) error {
	if !s.isOpen {
		return fmt.Errorf("system service is not open")
	}

	encrypted, err := s.engine.Get([]byte("config:" + key))
	if err != nil {
		return fmt.Errorf("failed to get config value: %w", err)
	}

	data, err := s.decrypt(encrypted)
	if err != nil {
		return fmt.Errorf("failed to decrypt config value: %w", err)
	}

	return json.Unmarshal(data, value)
}

// InitializeSystem opens the system store, stores the bootstrap
// system-root API key, and records a system-info config entry.
func (s *SystemService) InitializeSystem(dataDir, systemKey, systemAPIKey string) error {
	if err := s.Open(); err != nil {
		return fmt.Errorf("failed to open system service: %w", err)
	}
	defer s.Close()

	apiKey := APIKey{
		ID:          "system-root",
		Key:         systemAPIKey,
		Description: "System root API key for administrative operations",
		CreatedAt:   time.Now(),
		IsActive:    true,
	}
	if err := s.StoreAPIKey(apiKey); err != nil {
		return fmt.Errorf("failed to store system API key: %w", err)
	}

	info := map[string]interface{}{
		"initialized_at":     time.Now().Format(time.RFC3339),
		"version":            "1.0.0",
		"encryption_enabled": s.config.EnableEncryption,
	}
	if err := s.StoreSystemConfig("system-info", info); err != nil {
		return fmt.Errorf("failed to store system configuration: %w", err)
	}

	return nil
}
