package node

import "go.uber.org/zap"

// Unknown type tags and similar wire oddities are diagnostics, not
// failures; they are reported here. Silent by default.
var log = zap.NewNop()

// SetLogger routes the package's diagnostics to the given logger.
func SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	log = logger
}
