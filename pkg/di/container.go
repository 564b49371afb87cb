// Package di wires together the factories pkg/api and cmd/ember depend
// on, so cmd/ember never constructs a concrete api.SystemService or
// api.Server directly.
package di

import "github.com/emberdb/emberdb/pkg/api"

// Container holds the factories used to build the system service and
// REST server at startup.
type Container struct {
	systemServiceFactory api.SystemServiceFactory
	serverFactory        api.ServerFactory
}

// NewContainer builds a Container wired to the default factories.
func NewContainer() *Container {
	return &Container{
		systemServiceFactory: api.NewSystemServiceFactory(),
		serverFactory:        api.NewServerFactory(),
	}
}

// GetSystemServiceFactory returns the container's SystemServiceFactory.
func (c *Container) GetSystemServiceFactory() api.SystemServiceFactory {
	return c.systemServiceFactory
}

// GetServerFactory returns the container's ServerFactory.
func (c *Container) GetServerFactory() api.ServerFactory {
	return c.serverFactory
}

// SetSystemServiceFactory overrides the container's SystemServiceFactory,
// used by tests to inject a fake system service.
func (c *Container) SetSystemServiceFactory(f api.SystemServiceFactory) {
	c.systemServiceFactory = f
}

// SetServerFactory overrides the container's ServerFactory, used by
// tests to inject a fake server.
func (c *Container) SetServerFactory(f api.ServerFactory) {
	c.serverFactory = f
}
