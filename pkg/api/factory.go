package api

import "github.com/emberdb/emberdb/pkg/store"

// DefaultSystemServiceFactory constructs SystemService instances.
type DefaultSystemServiceFactory struct{}

// NewSystemServiceFactory returns the default SystemServiceFactory.
func NewSystemServiceFactory() SystemServiceFactory {
	return &DefaultSystemServiceFactory{}
}

func (f *DefaultSystemServiceFactory) CreateSystemService(dataDir, encryptionKey string, enableEncryption bool, maxRecordSize int) (SystemInitializer, error) {
	return NewSystemService(SystemConfig{
		DataDir:          dataDir,
		EncryptionKey:    encryptionKey,
		EnableEncryption: enableEncryption,
		MaxRecordSize:    maxRecordSize,
	})
}

// DefaultServerStarter builds a Server around an open engine and an
// optional system service, then blocks serving it.
type DefaultServerStarter struct{}

func (d *DefaultServerStarter) StartServer(engine *store.Engine, config ServerConfig) error {
	var systemService *SystemService
	if config.SystemDataDir != "" {
		svc, err := NewSystemService(SystemConfig{
			DataDir:          config.SystemDataDir,
			EncryptionKey:    config.SystemEncryptionKey,
			EnableEncryption: config.EnableEncryption,
			MaxRecordSize:    config.MaxRecordSize,
		})
		if err != nil {
			return err
		}
		if err := svc.Open(); err != nil {
			return err
		}
		defer svc.Close()
		systemService = svc
	}

	metrics := NewMetrics()
	server := NewServer(engine, systemService, config, metrics)
	return server.Listen()
}

// DefaultServerFactory constructs ServerStarter instances.
type DefaultServerFactory struct{}

// NewServerFactory returns the default ServerFactory.
func NewServerFactory() ServerFactory {
	return &DefaultServerFactory{}
}

func (f *DefaultServerFactory) CreateServerStarter() ServerStarter {
	return &DefaultServerStarter{}
}
