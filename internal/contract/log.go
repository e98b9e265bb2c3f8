package contract

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the diagnostic logger. It is silent unless verbose is set,
// in which case debug output goes to stderr in the console format.
func NewLogger(verbose bool) (*zap.Logger, error) {
	if !verbose {
		return zap.NewNop(), nil
	}
	zcfg := zap.NewDevelopmentConfig()
	zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.DisableStacktrace = true
	return zcfg.Build()
}
