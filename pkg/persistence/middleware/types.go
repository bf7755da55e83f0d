package middleware

import "github.com/aretw0/flowcanvas/pkg/ports"

// Middleware allows wrapping a WorkflowStore to add behavior.
type Middleware func(ports.WorkflowStore) ports.WorkflowStore

// Chain wraps store with mws. The first middleware is the outermost one.
func Chain(store ports.WorkflowStore, mws ...Middleware) ports.WorkflowStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
