// Package logging builds the shared structured logger for the storage
// core, grounded on daviszhen-plan's cmd/main/main.go use of zap (zap.String,
// zap.Error fields) in place of the teacher's fmt.Printf debug traces.
package logging

import (
	"sync"

	"go.uber.org/zap"
)

var (
	once   sync.Once
	logger *zap.Logger
)

// L returns the process-wide logger, building it on first use with a
// production config (JSON encoding, info level) suited to an embedded
// storage engine with no REPL of its own.
func L() *zap.Logger {
	once.Do(func() {
		cfg := zap.NewProductionConfig()
		cfg.DisableStacktrace = true
		built, err := cfg.Build()
		if err != nil {
			// Logging must never be the reason the database fails to start.
			logger = zap.NewNop()
			return
		}
		logger = built
	})
	return logger
}

// Sync flushes buffered log entries. Callers should defer this at process
// shutdown (best-effort: stderr sync commonly errors on some platforms).
func Sync() {
	_ = L().Sync()
}
