package api

import "sync"

// Handler registry variables store the registered implementations.
// These variables are protected by handlerMutex for thread-safe access.
var (
	toolProviderHandler ToolProvider

	// handlerMutex protects all handler registry operations for thread-safe registration and access.
	handlerMutex sync.RWMutex
)

// RegisterToolProvider registers the tool provider implementation.
//
// The registration is thread-safe and should be called during system
// initialization. Only one tool provider can be registered at a time;
// subsequent registrations will replace the previous handler.
func RegisterToolProvider(h ToolProvider) {
	handlerMutex.Lock()
	defer handlerMutex.Unlock()
	toolProviderHandler = h
}

// GetToolProvider returns the registered tool provider, or nil if none has
// been registered yet.
func GetToolProvider() ToolProvider {
	handlerMutex.RLock()
	defer handlerMutex.RUnlock()
	return toolProviderHandler
}
