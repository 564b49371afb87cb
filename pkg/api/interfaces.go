package api

import "github.com/emberdb/emberdb/pkg/store"

// SystemInitializer is the system/API-key metadata store: a second,
// encryption-capable key-value store scoped entirely to operational
// metadata (API keys, system config), kept separate from the user
// keyspace served over /api/v1/kv.
type SystemInitializer interface {
	InitializeSystem(dataDir, systemKey, systemAPIKey string) error
	Open() error
	Close() error
	GetAPIKey(keyID string) (*APIKey, error)
	ListAPIKeys() ([]string, error)
	ValidateAPIKey(apiKeyValue string) (bool, error)
}

// SystemServiceFactory creates system services.
type SystemServiceFactory interface {
	CreateSystemService(dataDir, encryptionKey string, enableEncryption bool, maxRecordSize int) (SystemInitializer, error)
}

// ServerStarter starts the REST API server against an already-open
// engine.
type ServerStarter interface {
	StartServer(engine *store.Engine, config ServerConfig) error
}

// ServerFactory creates server instances.
type ServerFactory interface {
	CreateServerStarter() ServerStarter
}
