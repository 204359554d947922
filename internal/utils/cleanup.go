package utils

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"github.com/gomoku/backend/internal/logger"
)

// CleanupFunc represents a cleanup function
type CleanupFunc func() error

type cleanup struct {
	name string
	fn   CleanupFunc
}

// ResourceManager handles graceful shutdown of resources. Cleanups run in
// reverse registration order, at most once.
type ResourceManager struct {
	mu       sync.Mutex
	cleanups []cleanup
	done     bool
}

// NewResourceManager creates a new resource manager
func NewResourceManager() *ResourceManager {
	return &ResourceManager{}
}

// AddCleanupFunc adds a cleanup function to be executed during shutdown
func (rm *ResourceManager) AddCleanupFunc(name string, fn CleanupFunc) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.cleanups = append(rm.cleanups, cleanup{name: name, fn: fn})
}

// Cleanup executes all cleanup functions and returns how many failed.
func (rm *ResourceManager) Cleanup() int {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if rm.done {
		return 0
	}
	rm.done = true

	failed := 0
	for i := len(rm.cleanups) - 1; i >= 0; i-- {
		c := rm.cleanups[i]
		if err := c.fn(); err != nil {
			failed++
			logger.Error("Cleanup error", zap.String("resource", c.name), zap.Error(err))
		}
	}
	return failed
}

// ShutdownContext returns a context cancelled on SIGINT or SIGTERM.
func ShutdownContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
