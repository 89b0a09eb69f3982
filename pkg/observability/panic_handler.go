package observability

import (
	"runtime/debug"
)

// RecoverPanic logs a recovered panic with its stack. Call it in a defer; the panic is not
// re-raised.
//
//	defer observability.RecoverPanic(logger, "catalog watcher")
func RecoverPanic(logger *Logger, where string) {
	if r := recover(); r != nil {
		logger.WithFields(map[string]interface{}{
			"panic": r,
			"stack": string(debug.Stack()),
			"where": where,
		}).Error("panic recovered")
	}
}
