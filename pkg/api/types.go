package api

import "time"

// Response is the envelope every JSON endpoint replies with.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	Port                int
	APIKey              string
	DataDir             string
	SystemDataDir       string
	SystemEncryptionKey string
	EnableEncryption    bool
	MaxRecordSize       int
}

// APIKey is a named credential accepted by the X-API-Key middleware,
// stored in the system store (never the user keyspace).
type APIKey struct {
	ID          string     `json:"id"`
	Key         string     `json:"key"`
	Description string     `json:"description"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	IsActive    bool       `json:"is_active"`
}
